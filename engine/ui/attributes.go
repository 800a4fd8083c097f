package ui

// Icon is a window icon in RGBA8, top-left origin.
type Icon struct {
	Width, Height int
	Pixels        []byte
}

// Attributes are the desired window attributes for a viewport, as last
// supplied by the UI layer. nil fields mean "no preference"; the platform
// default applies.
type Attributes struct {
	Title        *string
	Position     *[2]int
	InnerSize    *[2]int
	MinInnerSize *[2]int
	MaxInnerSize *[2]int
	Resizable    *bool
	Decorations  *bool
	Transparent  *bool
	Fullscreen   *bool
	Maximized    *bool
	Visible      *bool
	AlwaysOnTop  *bool
	Icon         *Icon
}

// Command is an incremental window manipulation, either produced by
// diffing requested attributes or requested directly by the UI layer.
type Command interface{ isCommand() }

type CommandSetTitle struct{ Title string }
type CommandInnerSize struct{ Width, Height int }
type CommandOuterPosition struct{ X, Y int }
type CommandMinInnerSize struct{ Width, Height int }
type CommandMaxInnerSize struct{ Width, Height int }
type CommandResizable struct{ Resizable bool }
type CommandDecorations struct{ Decorations bool }
type CommandFullscreen struct{ Fullscreen bool }
type CommandMaximized struct{ Maximized bool }
type CommandMinimized struct{ Minimized bool }
type CommandVisible struct{ Visible bool }
type CommandAlwaysOnTop struct{ AlwaysOnTop bool }
type CommandSetIcon struct{ Icon *Icon }
type CommandFocus struct{}
type CommandBeginDrag struct{}
type CommandScreenshot struct{}
type CommandClose struct{}
type CommandCancelClose struct{}

func (CommandSetTitle) isCommand()      {}
func (CommandInnerSize) isCommand()     {}
func (CommandOuterPosition) isCommand() {}
func (CommandMinInnerSize) isCommand()  {}
func (CommandMaxInnerSize) isCommand()  {}
func (CommandResizable) isCommand()     {}
func (CommandDecorations) isCommand()   {}
func (CommandFullscreen) isCommand()    {}
func (CommandMaximized) isCommand()     {}
func (CommandMinimized) isCommand()     {}
func (CommandVisible) isCommand()       {}
func (CommandAlwaysOnTop) isCommand()   {}
func (CommandSetIcon) isCommand()       {}
func (CommandFocus) isCommand()         {}
func (CommandBeginDrag) isCommand()     {}
func (CommandScreenshot) isCommand()    {}
func (CommandClose) isCommand()         {}
func (CommandCancelClose) isCommand()   {}

// Patch diffs new requested attributes against a (stored) and mutates a to
// match. It returns the incremental commands to apply to a live window, plus
// recreate=true when the change cannot be applied live and the window must
// be rebuilt from scratch.
//
// Fields b leaves nil keep their stored value, so a UI layer that only sets
// the title once does not reset geometry every pass.
func (a *Attributes) Patch(b Attributes) (cmds []Command, recreate bool) {
	if b.Title != nil && (a.Title == nil || *a.Title != *b.Title) {
		a.Title = b.Title
		cmds = append(cmds, CommandSetTitle{Title: *b.Title})
	}
	if b.Position != nil && (a.Position == nil || *a.Position != *b.Position) {
		a.Position = b.Position
		cmds = append(cmds, CommandOuterPosition{X: b.Position[0], Y: b.Position[1]})
	}
	if b.InnerSize != nil && (a.InnerSize == nil || *a.InnerSize != *b.InnerSize) {
		a.InnerSize = b.InnerSize
		cmds = append(cmds, CommandInnerSize{Width: b.InnerSize[0], Height: b.InnerSize[1]})
	}
	if b.MinInnerSize != nil && (a.MinInnerSize == nil || *a.MinInnerSize != *b.MinInnerSize) {
		a.MinInnerSize = b.MinInnerSize
		cmds = append(cmds, CommandMinInnerSize{Width: b.MinInnerSize[0], Height: b.MinInnerSize[1]})
	}
	if b.MaxInnerSize != nil && (a.MaxInnerSize == nil || *a.MaxInnerSize != *b.MaxInnerSize) {
		a.MaxInnerSize = b.MaxInnerSize
		cmds = append(cmds, CommandMaxInnerSize{Width: b.MaxInnerSize[0], Height: b.MaxInnerSize[1]})
	}
	if b.Resizable != nil && (a.Resizable == nil || *a.Resizable != *b.Resizable) {
		a.Resizable = b.Resizable
		cmds = append(cmds, CommandResizable{Resizable: *b.Resizable})
	}
	if b.Decorations != nil && (a.Decorations == nil || *a.Decorations != *b.Decorations) {
		a.Decorations = b.Decorations
		cmds = append(cmds, CommandDecorations{Decorations: *b.Decorations})
	}
	if b.Fullscreen != nil && (a.Fullscreen == nil || *a.Fullscreen != *b.Fullscreen) {
		a.Fullscreen = b.Fullscreen
		cmds = append(cmds, CommandFullscreen{Fullscreen: *b.Fullscreen})
	}
	if b.Maximized != nil && (a.Maximized == nil || *a.Maximized != *b.Maximized) {
		a.Maximized = b.Maximized
		cmds = append(cmds, CommandMaximized{Maximized: *b.Maximized})
	}
	if b.Visible != nil && (a.Visible == nil || *a.Visible != *b.Visible) {
		a.Visible = b.Visible
		cmds = append(cmds, CommandVisible{Visible: *b.Visible})
	}
	if b.AlwaysOnTop != nil && (a.AlwaysOnTop == nil || *a.AlwaysOnTop != *b.AlwaysOnTop) {
		a.AlwaysOnTop = b.AlwaysOnTop
		cmds = append(cmds, CommandAlwaysOnTop{AlwaysOnTop: *b.AlwaysOnTop})
	}
	if b.Icon != nil && a.Icon != b.Icon {
		a.Icon = b.Icon
		cmds = append(cmds, CommandSetIcon{Icon: b.Icon})
	}

	// Transparency is baked into the framebuffer config; a live window
	// cannot change it.
	if b.Transparent != nil && (a.Transparent == nil || *a.Transparent != *b.Transparent) {
		a.Transparent = b.Transparent
		recreate = true
	}

	return cmds, recreate
}
