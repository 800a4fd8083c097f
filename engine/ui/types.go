// Package ui defines the boundary between the windowing host and the
// immediate-mode UI engine it drives: viewport identities and attributes,
// the per-pass input/output exchange, and the draw primitives handed to the
// painter. The host owns windows and the GL context; the UI engine owns
// layout and widgets and is consumed only through these types.
package ui

// ID is an opaque viewport identity, stable across passes.
type ID uint64

// RootID is the reserved root viewport, always present while the
// application runs.
const RootID ID = 1

// Class tells the host how a viewport is rendered and persisted.
type Class int

const (
	// ClassRoot has exactly one instance and is never garbage collected.
	ClassRoot Class = iota
	// ClassDeferred persists across passes and owns its own window+surface,
	// rendered via a stored callback.
	ClassDeferred
	// ClassImmediate is rendered synchronously inside its parent's pass; its
	// callback is supplied fresh each invocation and never stored.
	ClassImmediate
)

func (c Class) String() string {
	switch c {
	case ClassRoot:
		return "root"
	case ClassDeferred:
		return "deferred"
	case ClassImmediate:
		return "immediate"
	default:
		return "unknown"
	}
}

// RenderCallback produces one viewport's content for one pass.
type RenderCallback func()

// ViewportEvent is a pending notification delivered to the UI layer through
// Info on its next pass.
type ViewportEvent int

// ViewportEventClose asks the viewport to close; the UI layer may refuse by
// issuing CommandCancelClose on the same pass.
const ViewportEventClose ViewportEvent = iota

// Info is the observed window state, mutated by the platform event stream
// and read by the UI layer for layout decisions.
type Info struct {
	Parent      ID
	Title       string
	Events      []ViewportEvent
	InnerSize   [2]int // physical pixels
	OuterPos    [2]int
	MonitorSize [2]int
	Scale       float32

	// nil means "not yet observed".
	Minimized  *bool
	Maximized  *bool
	Fullscreen *bool
	Focused    *bool
}

// DesiredViewport is one entry of the per-pass declaration from the UI layer
// of which viewports should exist.
type DesiredViewport struct {
	Parent     ID
	Class      Class
	Attributes Attributes
	// Render is the stored callback for deferred viewports; nil for
	// immediate viewports (those receive their callback at invocation time).
	Render RenderCallback
	// Commands are window manipulations requested by the UI layer this pass.
	Commands []Command
}

// DesiredOutput maps viewport identity to its desired state. It is the sole
// input driving registry reconciliation; any registered viewport absent from
// the key set is destroyed.
type DesiredOutput map[ID]DesiredViewport

// Output is everything one UI pass produces for one viewport.
type Output struct {
	Primitives []Primitive
	Textures   TexturesDelta
	Platform   PlatformOutput
	Viewports  DesiredOutput
}

// PlatformOutput carries non-draw requests from the UI layer.
type PlatformOutput struct {
	Cursor     CursorIcon
	CopiedText string
}

type CursorIcon int

const (
	CursorDefault CursorIcon = iota
	CursorPointer
	CursorText
	CursorCrosshair
	CursorResizeHorizontal
	CursorResizeVertical
	CursorNone
)

// ImmediateViewport is the synchronous render request a UI pass may issue
// for a nested viewport while the parent's pass is still in flight.
type ImmediateViewport struct {
	ID         ID
	Parent     ID
	Attributes Attributes
	Render     RenderCallback
}

// ImmediateRenderer renders a nested viewport right now, reentrantly, from
// inside the call stack producing the parent's primitives.
type ImmediateRenderer func(ImmediateViewport)

// Program is the immediate-mode UI engine the host drives once per pass per
// viewport. RunPass may call the registered ImmediateRenderer any number of
// times before returning.
type Program interface {
	RunPass(in Input, render RenderCallback) Output
	// SetImmediateRenderer installs the host capability used to service
	// nested viewport renders. Installed once at startup.
	SetImmediateRenderer(ImmediateRenderer)
}
