package viewport

import (
	"errors"

	"github.com/mirador-engine/mirador/engine/core"
	"github.com/mirador-engine/mirador/engine/glctx"
	"github.com/mirador-engine/mirador/engine/ui"
)

type fakeWindow struct {
	id     core.WindowID
	title  string
	width  int
	height int
	x, y   int
	scale  float32

	minimized  bool
	maximized  bool
	fullscreen bool
	focused    bool
	visible    bool
	icon       *ui.Icon
	cursor     ui.CursorIcon
	clipboard  string

	sizeLimits [][4]int
	destroyed  bool
}

func (w *fakeWindow) ID() core.WindowID         { return w.id }
func (w *fakeWindow) InnerSize() (int, int)     { return w.width, w.height }
func (w *fakeWindow) OuterPosition() (int, int) { return w.x, w.y }
func (w *fakeWindow) MonitorSize() (int, int)   { return 1920, 1080 }
func (w *fakeWindow) Scale() float32            { return w.scale }
func (w *fakeWindow) Minimized() bool           { return w.minimized }
func (w *fakeWindow) Maximized() bool           { return w.maximized }
func (w *fakeWindow) Fullscreen() bool          { return w.fullscreen }
func (w *fakeWindow) Focused() bool             { return w.focused }
func (w *fakeWindow) SetTitle(t string)         { w.title = t }
func (w *fakeWindow) SetInnerSize(wd, ht int)   { w.width, w.height = wd, ht }
func (w *fakeWindow) SetPosition(x, y int)      { w.x, w.y = x, y }
func (w *fakeWindow) SetSizeLimits(minW, minH, maxW, maxH int) {
	w.sizeLimits = append(w.sizeLimits, [4]int{minW, minH, maxW, maxH})
}
func (w *fakeWindow) SetResizable(bool)         {}
func (w *fakeWindow) SetDecorations(bool)       {}
func (w *fakeWindow) SetFullscreen(f bool)      { w.fullscreen = f }
func (w *fakeWindow) SetMaximized(m bool)       { w.maximized = m }
func (w *fakeWindow) SetMinimized(m bool)       { w.minimized = m }
func (w *fakeWindow) SetVisible(v bool)         { w.visible = v }
func (w *fakeWindow) SetAlwaysOnTop(bool)       {}
func (w *fakeWindow) SetIcon(i *ui.Icon)        { w.icon = i }
func (w *fakeWindow) SetCursor(c ui.CursorIcon) { w.cursor = c }
func (w *fakeWindow) SetClipboard(s string)     { w.clipboard = s }
func (w *fakeWindow) Focus()                    { w.focused = true }
func (w *fakeWindow) BeginDrag()                {}
func (w *fakeWindow) Destroy()                  { w.destroyed = true }

type fakeSurface struct {
	window *fakeWindow

	makeErr error

	makeCalls  int
	clearCalls int
	swapCalls  int
	resizes    [][2]int

	released bool
}

func (s *fakeSurface) MakeCurrent() error {
	s.makeCalls++
	return s.makeErr
}
func (s *fakeSurface) ClearCurrent()      { s.clearCalls++ }
func (s *fakeSurface) SwapBuffers() error { s.swapCalls++; return nil }
func (s *fakeSurface) Resize(w, h int)    { s.resizes = append(s.resizes, [2]int{w, h}) }

type fakePlatform struct {
	nextID core.WindowID

	windows  []*fakeWindow
	surfaces []*fakeSurface

	// windowFailures / surfaceFailures fail the next N creations.
	windowFailures  int
	surfaceFailures int
}

func (p *fakePlatform) CreateWindow(attrs ui.Attributes) (Window, error) {
	if p.windowFailures > 0 {
		p.windowFailures--
		return nil, errors.New("no display")
	}
	p.nextID++
	w := &fakeWindow{id: p.nextID, width: 800, height: 600, scale: 1}
	if attrs.Title != nil {
		w.title = *attrs.Title
	}
	if attrs.InnerSize != nil {
		w.width, w.height = attrs.InnerSize[0], attrs.InnerSize[1]
	}
	if attrs.Position != nil {
		w.x, w.y = attrs.Position[0], attrs.Position[1]
	}
	w.icon = attrs.Icon
	p.windows = append(p.windows, w)
	return w, nil
}

func (p *fakePlatform) CreateSurface(w Window) (glctx.Surface, error) {
	if p.surfaceFailures > 0 {
		p.surfaceFailures--
		return nil, errors.New("no framebuffer config")
	}
	s := &fakeSurface{window: w.(*fakeWindow)}
	p.surfaces = append(p.surfaces, s)
	return s, nil
}

func newTestRegistry(rootAttrs ui.Attributes) (*Registry, *fakePlatform) {
	platform := &fakePlatform{}
	cell := glctx.NewCell(nil)
	return NewRegistry(platform, cell, rootAttrs, nil), platform
}
