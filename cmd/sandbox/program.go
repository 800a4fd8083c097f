package main

import (
	"math"

	"github.com/mirador-engine/mirador/engine/colors"
	"github.com/mirador-engine/mirador/engine/ui"
)

// demoProgram is a tiny immediate-mode UI layer: render callbacks draw
// colored quads and declare child viewports. It exists to exercise the host;
// a real GUI library plugs in the same way.
//
// The host reads Output.Viewports as the complete desired set, so viewport
// declarations are retained across passes until explicitly dropped. A child
// viewport's own pass therefore never wipes its siblings.
type demoProgram struct {
	immediate ui.ImmediateRenderer
	retained  ui.DesiredOutput

	// passes is a stack because immediate viewports render reentrantly from
	// inside the parent's pass.
	passes []*passState
}

type passState struct {
	input  ui.Input
	output ui.Output
}

func newDemoProgram() *demoProgram {
	return &demoProgram{retained: ui.DesiredOutput{}}
}

func (p *demoProgram) SetImmediateRenderer(r ui.ImmediateRenderer) { p.immediate = r }

// RunPass implements ui.Program.
func (p *demoProgram) RunPass(in ui.Input, render ui.RenderCallback) ui.Output {
	state := &passState{input: in}
	p.passes = append(p.passes, state)

	if render != nil {
		render()
	}

	p.passes = p.passes[:len(p.passes)-1]

	state.output.Viewports = make(ui.DesiredOutput, len(p.retained))
	for id, dv := range p.retained {
		state.output.Viewports[id] = dv
	}
	return state.output
}

func (p *demoProgram) current() *passState {
	return p.passes[len(p.passes)-1]
}

// Input exposes the pass input to the active render callback.
func (p *demoProgram) Input() ui.Input { return p.current().input }

// Quad appends one solid-color rectangle to the current pass.
func (p *demoProgram) Quad(x, y, w, h float32, c colors.Color) {
	state := p.current()
	screen := state.input.ScreenSize
	clip := ui.Rect{Max: [2]float32{float32(screen[0]), float32(screen[1])}}

	v := func(px, py float32) ui.Vertex {
		return ui.Vertex{Pos: [2]float32{px, py}, Color: c}
	}
	state.output.Primitives = append(state.output.Primitives, ui.Mesh{
		Clip:    clip,
		Texture: ui.WhiteTexture,
		Vertices: []ui.Vertex{
			v(x, y), v(x+w, y), v(x+w, y+h), v(x, y+h),
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	})
}

// Pulse is a 0..1 triangle wave for simple animation.
func (p *demoProgram) Pulse(period float64) float32 {
	t := math.Mod(p.current().input.Time, period) / period
	return float32(1 - math.Abs(2*t-1))
}

// DeferredViewport declares a child viewport rendered in its own pass on its
// own schedule. The declaration is retained until DropViewport.
func (p *demoProgram) DeferredViewport(id ui.ID, attrs ui.Attributes, render ui.RenderCallback) {
	p.retained[id] = ui.DesiredViewport{
		Parent:     p.current().input.Viewport,
		Class:      ui.ClassDeferred,
		Attributes: attrs,
		Render:     render,
	}
}

// ImmediateViewport declares a child viewport and renders it synchronously,
// right now, before returning to the caller.
func (p *demoProgram) ImmediateViewport(id ui.ID, attrs ui.Attributes, render ui.RenderCallback) {
	parent := p.current().input.Viewport
	p.retained[id] = ui.DesiredViewport{
		Parent:     parent,
		Class:      ui.ClassImmediate,
		Attributes: attrs,
	}
	if p.immediate == nil {
		return
	}
	p.immediate(ui.ImmediateViewport{
		ID:         id,
		Parent:     parent,
		Attributes: attrs,
		Render:     render,
	})
}

// DropViewport withdraws a retained declaration; the host destroys the
// window at the next reconciliation.
func (p *demoProgram) DropViewport(id ui.ID) {
	delete(p.retained, id)
}

// CloseRequested reports whether the given viewport received a close event
// this pass.
func (p *demoProgram) CloseRequested(id ui.ID) bool {
	info, ok := p.current().input.Viewports[id]
	if !ok {
		return false
	}
	for _, ev := range info.Events {
		if ev == ui.ViewportEventClose {
			return true
		}
	}
	return false
}
