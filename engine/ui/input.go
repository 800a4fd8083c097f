package ui

import "github.com/mirador-engine/mirador/engine/core"

// Event is one input event in UI coordinates (logical points).
type Event interface{ isUIEvent() }

type PointerMoved struct{ X, Y float32 }
type PointerButton struct {
	X, Y   float32
	Button core.MouseButton
	Down   bool
	Mods   core.Mod
}
type PointerGone struct{}
type MouseMotion struct{ DX, DY float32 }
type Scroll struct{ DX, DY float32 }
type KeyEvent struct {
	Key  core.Key
	Down bool
	Mods core.Mod
}
type Text struct{ Text string }
type FocusChanged struct{ Focused bool }

// Screenshot delivers the pixels of a presented frame, one pass after the
// UI layer requested them.
type Screenshot struct {
	Viewport ID
	Image    Image
}

func (PointerMoved) isUIEvent()  {}
func (PointerButton) isUIEvent() {}
func (PointerGone) isUIEvent()   {}
func (MouseMotion) isUIEvent()   {}
func (Scroll) isUIEvent()        {}
func (KeyEvent) isUIEvent()      {}
func (Text) isUIEvent()          {}
func (FocusChanged) isUIEvent()  {}
func (Screenshot) isUIEvent()    {}

// Input is the merged per-pass input for one viewport: everything that
// happened since its last pass, plus a geometry snapshot of all live
// viewports (layout may depend on sibling geometry).
type Input struct {
	Viewport   ID
	Time       float64
	ScreenSize [2]int
	Scale      float32
	Focused    bool
	Events     []Event
	Viewports  map[ID]Info
}
