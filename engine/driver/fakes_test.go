package driver

import (
	"errors"

	"github.com/mirador-engine/mirador/engine/colors"
	"github.com/mirador-engine/mirador/engine/core"
	"github.com/mirador-engine/mirador/engine/glctx"
	"github.com/mirador-engine/mirador/engine/ui"
	"github.com/mirador-engine/mirador/engine/viewport"
)

// fakeWindow doubles as viewport.Window and glctx.Surface, like the GLFW
// backend where the window is the drawable.
type fakeWindow struct {
	id     core.WindowID
	title  string
	width  int
	height int

	minimized bool
	focused   bool
	visible   bool
	cursor    ui.CursorIcon
	clipboard string
	destroyed bool

	makeErr   error
	swapErr   error
	makeCalls int
	swapCalls int
	resizes   [][2]int
}

func (w *fakeWindow) ID() core.WindowID            { return w.id }
func (w *fakeWindow) InnerSize() (int, int)        { return w.width, w.height }
func (w *fakeWindow) OuterPosition() (int, int)    { return 0, 0 }
func (w *fakeWindow) MonitorSize() (int, int)      { return 1920, 1080 }
func (w *fakeWindow) Scale() float32               { return 1 }
func (w *fakeWindow) Minimized() bool              { return w.minimized }
func (w *fakeWindow) Maximized() bool              { return false }
func (w *fakeWindow) Fullscreen() bool             { return false }
func (w *fakeWindow) Focused() bool                { return w.focused }
func (w *fakeWindow) SetTitle(t string)            { w.title = t }
func (w *fakeWindow) SetInnerSize(wd, ht int)      { w.width, w.height = wd, ht }
func (w *fakeWindow) SetPosition(int, int)         {}
func (w *fakeWindow) SetSizeLimits(_, _, _, _ int) {}
func (w *fakeWindow) SetResizable(bool)            {}
func (w *fakeWindow) SetDecorations(bool)          {}
func (w *fakeWindow) SetFullscreen(bool)           {}
func (w *fakeWindow) SetMaximized(bool)            {}
func (w *fakeWindow) SetMinimized(m bool)          { w.minimized = m }
func (w *fakeWindow) SetVisible(v bool)            { w.visible = v }
func (w *fakeWindow) SetAlwaysOnTop(bool)          {}
func (w *fakeWindow) SetIcon(*ui.Icon)             {}
func (w *fakeWindow) SetCursor(c ui.CursorIcon)    { w.cursor = c }
func (w *fakeWindow) SetClipboard(s string)        { w.clipboard = s }
func (w *fakeWindow) Focus()                       { w.focused = true }
func (w *fakeWindow) BeginDrag()                   {}
func (w *fakeWindow) Destroy()                     { w.destroyed = true }

func (w *fakeWindow) MakeCurrent() error {
	w.makeCalls++
	return w.makeErr
}
func (w *fakeWindow) ClearCurrent() {}
func (w *fakeWindow) SwapBuffers() error {
	w.swapCalls++
	return w.swapErr
}
func (w *fakeWindow) Resize(wd, ht int) { w.resizes = append(w.resizes, [2]int{wd, ht}) }

type fakePlatform struct {
	nextID  core.WindowID
	windows []*fakeWindow

	surfaceFailures int
}

func (p *fakePlatform) CreateWindow(attrs ui.Attributes) (viewport.Window, error) {
	p.nextID++
	w := &fakeWindow{id: p.nextID, width: 800, height: 600}
	if attrs.Title != nil {
		w.title = *attrs.Title
	}
	if attrs.InnerSize != nil {
		w.width, w.height = attrs.InnerSize[0], attrs.InnerSize[1]
	}
	p.windows = append(p.windows, w)
	return w, nil
}

func (p *fakePlatform) CreateSurface(w viewport.Window) (glctx.Surface, error) {
	if p.surfaceFailures > 0 {
		p.surfaceFailures--
		return nil, errors.New("no framebuffer config")
	}
	return w.(*fakeWindow), nil
}

// windowFor resolves the fake behind a viewport id.
func (p *fakePlatform) windowFor(id core.WindowID) *fakeWindow {
	for _, w := range p.windows {
		if w.id == id {
			return w
		}
	}
	return nil
}

type fakePainter struct {
	clears    int
	paints    int
	reads     int
	destroyed bool

	lastClearColor colors.Color
	lastPaintSize  [2]int
}

func (p *fakePainter) UpdateTextures(ui.TexturesDelta) {}
func (p *fakePainter) Clear(size [2]int, c colors.Color) {
	p.clears++
	p.lastClearColor = c
}
func (p *fakePainter) Paint(size [2]int, prims []ui.Primitive) {
	p.paints++
	p.lastPaintSize = size
}
func (p *fakePainter) ReadScreen(size [2]int) ui.Image {
	p.reads++
	return ui.Image{Width: size[0], Height: size[1], Pixels: make([]byte, size[0]*size[1]*4)}
}
func (p *fakePainter) Destroy() { p.destroyed = true }

// fakeProgram answers each pass through a configurable handler and exposes
// the registered immediate renderer to tests.
type fakeProgram struct {
	immediate ui.ImmediateRenderer
	onPass    func(in ui.Input, render ui.RenderCallback) ui.Output

	inputs []ui.Input
}

func (p *fakeProgram) SetImmediateRenderer(r ui.ImmediateRenderer) { p.immediate = r }

func (p *fakeProgram) RunPass(in ui.Input, render ui.RenderCallback) ui.Output {
	p.inputs = append(p.inputs, in)
	if p.onPass != nil {
		return p.onPass(in, render)
	}
	return ui.Output{Viewports: ui.DesiredOutput{}}
}

type fakeScheduler struct {
	repaints []core.WindowID
}

func (s *fakeScheduler) RequestRepaint(w core.WindowID) {
	s.repaints = append(s.repaints, w)
}

func (s *fakeScheduler) requested(w core.WindowID) bool {
	for _, r := range s.repaints {
		if r == w {
			return true
		}
	}
	return false
}
