package ui

import "github.com/mirador-engine/mirador/engine/core"

// Adapter translates platform events into UI events for one viewport and
// accumulates them between passes. Its lifetime is tied to the viewport's
// window: it is built when the window is created and dropped with it.
type Adapter struct {
	viewport ID
	scale    float32

	events   []Event
	pointerX float32
	pointerY float32
}

func NewAdapter(viewport ID, scale float32) *Adapter {
	if scale <= 0 {
		scale = 1
	}
	return &Adapter{viewport: viewport, scale: scale}
}

func (a *Adapter) Viewport() ID { return a.viewport }

// OnEvent folds one platform event into the pending input. It reports
// whether the event produced UI input and therefore warrants a repaint.
func (a *Adapter) OnEvent(ev core.Event) (repaint bool) {
	switch e := ev.(type) {
	case core.EventMouseMove:
		a.pointerX = float32(e.X) / a.scale
		a.pointerY = float32(e.Y) / a.scale
		a.events = append(a.events, PointerMoved{X: a.pointerX, Y: a.pointerY})
		return true
	case core.EventMouseButton:
		a.events = append(a.events, PointerButton{
			X: a.pointerX, Y: a.pointerY,
			Button: e.Button, Down: e.Down, Mods: e.Mods,
		})
		return true
	case core.EventScroll:
		a.events = append(a.events, Scroll{DX: float32(e.Xoff), DY: float32(e.Yoff)})
		return true
	case core.EventKey:
		a.events = append(a.events, KeyEvent{Key: e.Key, Down: e.Down, Mods: e.Mods})
		return true
	case core.EventChar:
		a.events = append(a.events, Text{Text: string(e.Rune)})
		return true
	case core.EventCursorEntered:
		if e.Entered {
			// The first move inside the window carries the position.
			return false
		}
		a.events = append(a.events, PointerGone{})
		return true
	case core.EventFocused:
		a.events = append(a.events, FocusChanged{Focused: e.Focused})
		return true
	case core.EventScaleChanged:
		if e.Scale > 0 {
			a.scale = e.Scale
		}
		return true
	case core.EventResized, core.EventMoved:
		// Geometry reaches the UI layer through Info, not events.
		return true
	default:
		return false
	}
}

// OnMouseMotion folds a device-level pointer delta (routed here because this
// viewport is focused).
func (a *Adapter) OnMouseMotion(dx, dy float64) {
	a.events = append(a.events, MouseMotion{DX: float32(dx), DY: float32(dy)})
}

// Push appends a synthetic event, e.g. a screenshot delivery.
func (a *Adapter) Push(ev Event) {
	a.events = append(a.events, ev)
}

// Pending reports how many events await the next pass.
func (a *Adapter) Pending() int { return len(a.events) }

// TakeInput drains the pending events into an Input for one pass. The
// viewports snapshot and timing are merged in by the caller.
func (a *Adapter) TakeInput(now float64, screen [2]int, focused bool, viewports map[ID]Info) Input {
	events := a.events
	a.events = nil
	return Input{
		Viewport:   a.viewport,
		Time:       now,
		ScreenSize: screen,
		Scale:      a.scale,
		Focused:    focused,
		Events:     events,
		Viewports:  viewports,
	}
}
