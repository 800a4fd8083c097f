package core

// WindowID identifies one OS window for the lifetime of the process.
// The platform layer mints a fresh id for every window it creates; ids are
// never reused, so a stale id simply stops resolving.
type WindowID uint64

// NoWindow is the zero WindowID; it never names a live window.
const NoWindow WindowID = 0

// Event model (can expand over time).
type Event interface{ isEvent() }

// EventResized carries the new framebuffer size in physical pixels.
// A zero width or height is a minimize signal on some platforms and must not
// be treated as a real resize.
type EventResized struct{ Width, Height int }

func (EventResized) isEvent() {}

type EventMoved struct{ X, Y int }

func (EventMoved) isEvent() {}

type EventCloseRequested struct{}

func (EventCloseRequested) isEvent() {}

type EventFocused struct{ Focused bool }

func (EventFocused) isEvent() {}

type EventScaleChanged struct{ Scale float32 }

func (EventScaleChanged) isEvent() {}

type EventKey struct {
	Key  Key
	Down bool
	Mods Mod
}

func (EventKey) isEvent() {}

type EventChar struct{ Rune rune }

func (EventChar) isEvent() {}

type EventMouseMove struct{ X, Y float64 }

func (EventMouseMove) isEvent() {}

type EventMouseButton struct {
	Button MouseButton
	Down   bool
	Mods   Mod
}

func (EventMouseButton) isEvent() {}

type EventScroll struct{ Xoff, Yoff float64 }

func (EventScroll) isEvent() {}

// EventCursorEntered reports the pointer crossing the window boundary.
type EventCursorEntered struct{ Entered bool }

func (EventCursorEntered) isEvent() {}

// EventMouseMotion is a device-level pointer delta, not tied to any window.
// The frame driver routes it to the focused viewport.
type EventMouseMotion struct{ DX, DY float64 }

func (EventMouseMotion) isEvent() {}

// Key/mod enums (subset; add as needed).
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyEnter
	KeyTab
	KeyBackspace
	KeySpace
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyW
	KeyA
	KeyS
	KeyD
)

type Mod int

const (
	ModNone  Mod = 0
	ModShift Mod = 1 << 0
	ModCtrl  Mod = 1 << 1
	ModAlt   Mod = 1 << 2
	ModSuper Mod = 1 << 3
)

type MouseButton int

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonRight
	MouseButtonMiddle
)
