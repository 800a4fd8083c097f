// Package platform realizes windows, surfaces and the event pump on GLFW.
package platform

import (
	"fmt"
	"image"
	"log/slog"
	"runtime"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/mirador-engine/mirador/engine/config"
	"github.com/mirador-engine/mirador/engine/core"
	"github.com/mirador-engine/mirador/engine/glctx"
	"github.com/mirador-engine/mirador/engine/ui"
	"github.com/mirador-engine/mirador/engine/viewport"
)

// Platform implements viewport.Platform and core.Pump on GLFW. All windows
// share one GL context group; the first window's context is the shared
// context every later window is created against.
type Platform struct {
	logger *slog.Logger
	opts   config.Options

	onWindow func(core.WindowID, core.Event)
	onDevice func(core.Event)

	windows  map[core.WindowID]*GLFWWindow
	nextID   core.WindowID
	glInited bool

	cursors map[ui.CursorIcon]*glfw.Cursor
}

// New initializes GLFW. Must be called on the main thread before any window
// or GL call.
func New(opts config.Options, logger *slog.Logger) (*Platform, error) {
	runtime.LockOSThread()
	if logger == nil {
		logger = slog.Default()
	}
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}
	return &Platform{
		logger:  logger,
		opts:    opts,
		windows: map[core.WindowID]*GLFWWindow{},
		cursors: map[ui.CursorIcon]*glfw.Cursor{},
	}, nil
}

// core.Pump implementation.
func (p *Platform) SetHandlers(window func(core.WindowID, core.Event), device func(core.Event)) {
	p.onWindow = window
	p.onDevice = device
}
func (p *Platform) PollEvents() { glfw.PollEvents() }
func (p *Platform) WaitEvents() { glfw.WaitEvents() }
func (p *Platform) Wake()       { glfw.PostEmptyEvent() }
func (p *Platform) Terminate()  { glfw.Terminate() }

// shareWindow returns any live window whose context the new one should share.
func (p *Platform) shareWindow() *glfw.Window {
	for _, w := range p.windows {
		return w.w
	}
	return nil
}

// CreateWindow implements viewport.Platform.
func (p *Platform) CreateWindow(attrs ui.Attributes) (viewport.Window, error) {
	glfw.DefaultWindowHints()

	// GL 3.3 core profile (Mac requires the forward-compatible flag).
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Samples, p.opts.Multisampling)

	// Windows start hidden until their first frame has been presented, so
	// startup shows content instead of a white flash.
	glfw.WindowHint(glfw.Visible, glfw.False)

	glfw.WindowHint(glfw.Decorated, hintBool(attrs.Decorations, true))
	glfw.WindowHint(glfw.Resizable, hintBool(attrs.Resizable, true))
	glfw.WindowHint(glfw.Maximized, hintBool(attrs.Maximized, false))
	glfw.WindowHint(glfw.Floating, hintBool(attrs.AlwaysOnTop, false))
	glfw.WindowHint(glfw.TransparentFramebuffer, hintBool(attrs.Transparent, false))

	width, height := 800, 600
	if attrs.InnerSize != nil {
		width, height = attrs.InnerSize[0], attrs.InnerSize[1]
	}
	title := ""
	if attrs.Title != nil {
		title = *attrs.Title
	}

	var monitor *glfw.Monitor
	if attrs.Fullscreen != nil && *attrs.Fullscreen {
		monitor = glfw.GetPrimaryMonitor()
	}

	win, err := glfw.CreateWindow(width, height, title, monitor, p.shareWindow())
	if err != nil {
		return nil, fmt.Errorf("glfw create window: %w", err)
	}

	p.nextID++
	gw := &GLFWWindow{p: p, w: win, id: p.nextID}
	p.windows[gw.id] = gw

	if attrs.Position != nil {
		win.SetPos(attrs.Position[0], attrs.Position[1])
	}
	if attrs.MinInnerSize != nil || attrs.MaxInnerSize != nil {
		minW, minH, maxW, maxH := -1, -1, -1, -1
		if attrs.MinInnerSize != nil {
			minW, minH = attrs.MinInnerSize[0], attrs.MinInnerSize[1]
		}
		if attrs.MaxInnerSize != nil {
			maxW, maxH = attrs.MaxInnerSize[0], attrs.MaxInnerSize[1]
		}
		gw.SetSizeLimits(minW, minH, maxW, maxH)
	}
	if attrs.Icon != nil {
		gw.SetIcon(attrs.Icon)
	}

	gw.installCallbacks()
	p.logger.Debug("created window", "window", gw.id, "title", title)
	return gw, nil
}

// CreateSurface implements viewport.Platform. With GLFW the window is the
// drawable surface; the same handle satisfies both interfaces.
func (p *Platform) CreateSurface(w viewport.Window) (glctx.Surface, error) {
	gw, ok := w.(*GLFWWindow)
	if !ok {
		return nil, fmt.Errorf("platform: foreign window %T", w)
	}
	return gw, nil
}

func hintBool(v *bool, def bool) int {
	b := def
	if v != nil {
		b = *v
	}
	if b {
		return glfw.True
	}
	return glfw.False
}

// GLFWWindow implements viewport.Window and glctx.Surface.
type GLFWWindow struct {
	p  *Platform
	w  *glfw.Window
	id core.WindowID

	vsyncApplied bool

	// windowed geometry remembered across fullscreen toggles
	restoreX, restoreY, restoreW, restoreH int
}

func (g *GLFWWindow) emit(ev core.Event) {
	if g.p.onWindow != nil {
		g.p.onWindow(g.id, ev)
	}
}

func (g *GLFWWindow) installCallbacks() {
	g.w.SetCloseCallback(func(*glfw.Window) {
		// The host decides whether closing is allowed.
		g.w.SetShouldClose(false)
		g.emit(core.EventCloseRequested{})
	})
	g.w.SetFramebufferSizeCallback(func(_ *glfw.Window, w, h int) {
		g.emit(core.EventResized{Width: w, Height: h})
	})
	g.w.SetPosCallback(func(_ *glfw.Window, x, y int) {
		g.emit(core.EventMoved{X: x, Y: y})
	})
	g.w.SetFocusCallback(func(_ *glfw.Window, focused bool) {
		g.emit(core.EventFocused{Focused: focused})
	})
	g.w.SetContentScaleCallback(func(_ *glfw.Window, x, _ float32) {
		g.emit(core.EventScaleChanged{Scale: x})
	})
	g.w.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		g.emit(core.EventMouseMove{X: x, Y: y})
	})
	g.w.SetCursorEnterCallback(func(_ *glfw.Window, entered bool) {
		g.emit(core.EventCursorEntered{Entered: entered})
	})
	g.w.SetMouseButtonCallback(func(_ *glfw.Window, b glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		btn, ok := translateMouseButton(b)
		if !ok {
			return
		}
		g.emit(core.EventMouseButton{Button: btn, Down: action != glfw.Release, Mods: translateMods(mods)})
	})
	g.w.SetScrollCallback(func(_ *glfw.Window, xoff, yoff float64) {
		g.emit(core.EventScroll{Xoff: xoff, Yoff: yoff})
	})
	g.w.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, mods glfw.ModifierKey) {
		k := translateKey(key)
		if k == core.KeyUnknown {
			return
		}
		g.emit(core.EventKey{Key: k, Down: action != glfw.Release, Mods: translateMods(mods)})
	})
	g.w.SetCharCallback(func(_ *glfw.Window, r rune) {
		g.emit(core.EventChar{Rune: r})
	})
}

// viewport.Window implementation.

func (g *GLFWWindow) ID() core.WindowID { return g.id }

func (g *GLFWWindow) InnerSize() (int, int)     { return g.w.GetFramebufferSize() }
func (g *GLFWWindow) OuterPosition() (int, int) { return g.w.GetPos() }

func (g *GLFWWindow) MonitorSize() (int, int) {
	m := g.w.GetMonitor()
	if m == nil {
		m = glfw.GetPrimaryMonitor()
	}
	if m == nil {
		return 0, 0
	}
	mode := m.GetVideoMode()
	if mode == nil {
		return 0, 0
	}
	return mode.Width, mode.Height
}

func (g *GLFWWindow) Scale() float32 {
	x, _ := g.w.GetContentScale()
	if x <= 0 {
		return 1
	}
	return x
}

func (g *GLFWWindow) Minimized() bool  { return g.w.GetAttrib(glfw.Iconified) == glfw.True }
func (g *GLFWWindow) Maximized() bool  { return g.w.GetAttrib(glfw.Maximized) == glfw.True }
func (g *GLFWWindow) Fullscreen() bool { return g.w.GetMonitor() != nil }
func (g *GLFWWindow) Focused() bool    { return g.w.GetAttrib(glfw.Focused) == glfw.True }

func (g *GLFWWindow) SetTitle(t string)     { g.w.SetTitle(t) }
func (g *GLFWWindow) SetInnerSize(w, h int) { g.w.SetSize(w, h) }
func (g *GLFWWindow) SetPosition(x, y int)  { g.w.SetPos(x, y) }
func (g *GLFWWindow) SetResizable(b bool)   { g.w.SetAttrib(glfw.Resizable, glfwBool(b)) }
func (g *GLFWWindow) SetDecorations(b bool) { g.w.SetAttrib(glfw.Decorated, glfwBool(b)) }
func (g *GLFWWindow) SetAlwaysOnTop(b bool) { g.w.SetAttrib(glfw.Floating, glfwBool(b)) }
func (g *GLFWWindow) SetClipboard(s string) { g.w.SetClipboardString(s) }
func (g *GLFWWindow) Focus()                { g.w.Focus() }

func (g *GLFWWindow) SetSizeLimits(minW, minH, maxW, maxH int) {
	g.w.SetSizeLimits(orDontCare(minW), orDontCare(minH), orDontCare(maxW), orDontCare(maxH))
}

func (g *GLFWWindow) SetFullscreen(fullscreen bool) {
	if fullscreen == g.Fullscreen() {
		return
	}
	if fullscreen {
		g.restoreX, g.restoreY = g.w.GetPos()
		g.restoreW, g.restoreH = g.w.GetSize()
		m := glfw.GetPrimaryMonitor()
		if m == nil {
			return
		}
		mode := m.GetVideoMode()
		g.w.SetMonitor(m, 0, 0, mode.Width, mode.Height, mode.RefreshRate)
	} else {
		g.w.SetMonitor(nil, g.restoreX, g.restoreY, g.restoreW, g.restoreH, 0)
	}
}

func (g *GLFWWindow) SetMaximized(b bool) {
	if b {
		g.w.Maximize()
	} else {
		g.w.Restore()
	}
}

func (g *GLFWWindow) SetMinimized(b bool) {
	if b {
		g.w.Iconify()
	} else {
		g.w.Restore()
	}
}

func (g *GLFWWindow) SetVisible(b bool) {
	if b {
		g.w.Show()
	} else {
		g.w.Hide()
	}
}

func (g *GLFWWindow) SetIcon(icon *ui.Icon) {
	if icon == nil {
		g.w.SetIcon(nil)
		return
	}
	img := image.NewRGBA(image.Rect(0, 0, icon.Width, icon.Height))
	copy(img.Pix, icon.Pixels)
	g.w.SetIcon([]image.Image{img})
}

func (g *GLFWWindow) SetCursor(c ui.CursorIcon) {
	if c == ui.CursorNone {
		g.w.SetInputMode(glfw.CursorMode, glfw.CursorHidden)
		return
	}
	g.w.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	cur, ok := g.p.cursors[c]
	if !ok {
		cur = glfw.CreateStandardCursor(standardCursor(c))
		g.p.cursors[c] = cur
	}
	g.w.SetCursor(cur)
}

func (g *GLFWWindow) BeginDrag() {
	// GLFW has no window-drag API; decorated windows drag via the title bar.
	g.p.logger.Debug("window drag not supported by backend", "window", g.id)
}

func (g *GLFWWindow) Destroy() {
	delete(g.p.windows, g.id)
	g.w.Destroy()
}

// glctx.Surface implementation.

func (g *GLFWWindow) MakeCurrent() error {
	g.w.MakeContextCurrent()
	if !g.p.glInited {
		if err := gl.Init(); err != nil {
			return fmt.Errorf("gl init: %w", err)
		}
		g.p.glInited = true
		g.p.logger.Debug("GL ready", "version", gl.GoStr(gl.GetString(gl.VERSION)))
	}
	if !g.vsyncApplied {
		// Swap interval is per context+surface and must be set while current.
		if g.p.opts.VSync {
			glfw.SwapInterval(1)
		} else {
			glfw.SwapInterval(0)
		}
		g.vsyncApplied = true
	}
	return nil
}

func (g *GLFWWindow) ClearCurrent() { glfw.DetachCurrentContext() }

func (g *GLFWWindow) SwapBuffers() error {
	g.w.SwapBuffers()
	return nil
}

func (g *GLFWWindow) Resize(w, h int) {
	// GLFW surfaces track the framebuffer automatically; just refresh the
	// GL viewport (the context is current here, see Registry.Resize).
	gl.Viewport(0, 0, int32(w), int32(h))
}

// --- translation tables ---

func glfwBool(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}

func orDontCare(v int) int {
	if v < 0 {
		return glfw.DontCare
	}
	return v
}

func standardCursor(c ui.CursorIcon) glfw.StandardCursor {
	switch c {
	case ui.CursorPointer:
		return glfw.HandCursor
	case ui.CursorText:
		return glfw.IBeamCursor
	case ui.CursorCrosshair:
		return glfw.CrosshairCursor
	case ui.CursorResizeHorizontal:
		return glfw.HResizeCursor
	case ui.CursorResizeVertical:
		return glfw.VResizeCursor
	default:
		return glfw.ArrowCursor
	}
}

func translateMouseButton(b glfw.MouseButton) (core.MouseButton, bool) {
	switch b {
	case glfw.MouseButtonLeft:
		return core.MouseButtonLeft, true
	case glfw.MouseButtonRight:
		return core.MouseButtonRight, true
	case glfw.MouseButtonMiddle:
		return core.MouseButtonMiddle, true
	default:
		return 0, false
	}
}

func translateKey(k glfw.Key) core.Key {
	switch k {
	case glfw.KeyEscape:
		return core.KeyEscape
	case glfw.KeyEnter:
		return core.KeyEnter
	case glfw.KeyTab:
		return core.KeyTab
	case glfw.KeyBackspace:
		return core.KeyBackspace
	case glfw.KeySpace:
		return core.KeySpace
	case glfw.KeyLeft:
		return core.KeyLeft
	case glfw.KeyRight:
		return core.KeyRight
	case glfw.KeyUp:
		return core.KeyUp
	case glfw.KeyDown:
		return core.KeyDown
	case glfw.KeyW:
		return core.KeyW
	case glfw.KeyA:
		return core.KeyA
	case glfw.KeyS:
		return core.KeyS
	case glfw.KeyD:
		return core.KeyD
	default:
		return core.KeyUnknown
	}
}

func translateMods(m glfw.ModifierKey) core.Mod {
	var out core.Mod
	if m&glfw.ModShift != 0 {
		out |= core.ModShift
	}
	if m&glfw.ModControl != 0 {
		out |= core.ModCtrl
	}
	if m&glfw.ModAlt != 0 {
		out |= core.ModAlt
	}
	if m&glfw.ModSuper != 0 {
		out |= core.ModSuper
	}
	return out
}
