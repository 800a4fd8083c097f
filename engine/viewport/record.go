// Package viewport maps viewport identities to per-window state and keeps
// that state reconciled against the UI layer's desired-viewport output.
package viewport

import (
	"errors"

	"github.com/mirador-engine/mirador/engine/core"
	"github.com/mirador-engine/mirador/engine/glctx"
	"github.com/mirador-engine/mirador/engine/ui"
)

// ErrSurfaceCreation means the platform refused to create a window or
// surface. Recoverable for non-root viewports: log, skip the viewport this
// pass, retry next pass if it is still requested.
var ErrSurfaceCreation = errors.New("viewport: surface creation failed")

// ErrUnknownViewport means an operation named an id the registry does not
// hold.
var ErrUnknownViewport = errors.New("viewport: unknown viewport")

// Window abstraction over one OS window.
type Window interface {
	ID() core.WindowID
	InnerSize() (int, int) // physical pixels
	OuterPosition() (int, int)
	MonitorSize() (int, int)
	Scale() float32
	Minimized() bool
	Maximized() bool
	Fullscreen() bool
	Focused() bool

	SetTitle(string)
	SetInnerSize(w, h int)
	SetPosition(x, y int)
	SetSizeLimits(minW, minH, maxW, maxH int)
	SetResizable(bool)
	SetDecorations(bool)
	SetFullscreen(bool)
	SetMaximized(bool)
	SetMinimized(bool)
	SetVisible(bool)
	SetAlwaysOnTop(bool)
	SetIcon(*ui.Icon)
	SetCursor(ui.CursorIcon)
	SetClipboard(string)
	Focus()
	BeginDrag()

	Destroy()
}

// Platform creates windows and their drawable surfaces. The GLFW
// implementation lives in engine/platform; tests inject fakes.
type Platform interface {
	CreateWindow(attrs ui.Attributes) (Window, error)
	// CreateSurface builds the drawable surface for a window the platform
	// previously created. Created together with, destroyed together with,
	// the window.
	CreateSurface(Window) (glctx.Surface, error)
}

// Action is a request captured at command-processing time and serviced by
// the frame driver after the next present.
type Action int

const ActionScreenshot Action = iota

// Record is the per-window state for one viewport.
type Record struct {
	ID     ui.ID
	Parent ui.ID
	Class  ui.Class

	// Attributes are the requested window attributes as last supplied by
	// the UI layer; Info is the observed state.
	Attributes ui.Attributes
	Info       ui.Info

	// DeferredCommands accumulate until a window exists to apply them to.
	DeferredCommands []ui.Command
	Actions          []Action

	// Render is the stored callback for deferred viewports; nil for
	// immediate viewports and while collapsed.
	Render ui.RenderCallback

	// Window, Surface and Adapter live and die together; Surface non-nil
	// implies Window non-nil. All nil until Initialize, nil again after
	// suspend.
	Window  Window
	Surface glctx.Surface
	Adapter *ui.Adapter

	// CloseRequested is set by CommandClose; for the root viewport it is
	// the application's close acknowledgment.
	CloseRequested bool
	// Presented flips after the first successful swap; windows start hidden
	// and are shown then, to avoid a white flash on startup.
	Presented bool
}

// Initialized reports whether the record has a live window and surface.
func (r *Record) Initialized() bool {
	return r.Window != nil && r.Surface != nil
}
