package viewport

import "github.com/mirador-engine/mirador/engine/ui"

// applyCommands drains a record's deferred commands into its live window,
// updating the observed info as it goes. Screenshot requests become Actions
// serviced by the frame driver after the next present.
func (r *Registry) applyCommands(rec *Record) {
	win := rec.Window
	if win == nil {
		return
	}
	cmds := rec.DeferredCommands
	rec.DeferredCommands = nil

	for _, cmd := range cmds {
		switch c := cmd.(type) {
		case ui.CommandSetTitle:
			win.SetTitle(c.Title)
			rec.Info.Title = c.Title
		case ui.CommandInnerSize:
			if c.Width > 0 && c.Height > 0 {
				win.SetInnerSize(c.Width, c.Height)
			}
		case ui.CommandOuterPosition:
			win.SetPosition(c.X, c.Y)
		case ui.CommandMinInnerSize:
			// SetSizeLimits sets all four bounds at once; fill the other pair
			// from the stored attributes so the commands compose.
			rec.Attributes.MinInnerSize = &[2]int{c.Width, c.Height}
			win.SetSizeLimits(sizeLimits(rec))
		case ui.CommandMaxInnerSize:
			rec.Attributes.MaxInnerSize = &[2]int{c.Width, c.Height}
			win.SetSizeLimits(sizeLimits(rec))
		case ui.CommandResizable:
			win.SetResizable(c.Resizable)
		case ui.CommandDecorations:
			win.SetDecorations(c.Decorations)
		case ui.CommandFullscreen:
			win.SetFullscreen(c.Fullscreen)
			rec.Info.Fullscreen = boolPtr(c.Fullscreen)
		case ui.CommandMaximized:
			win.SetMaximized(c.Maximized)
			rec.Info.Maximized = boolPtr(c.Maximized)
		case ui.CommandMinimized:
			win.SetMinimized(c.Minimized)
			rec.Info.Minimized = boolPtr(c.Minimized)
		case ui.CommandVisible:
			win.SetVisible(c.Visible)
		case ui.CommandAlwaysOnTop:
			win.SetAlwaysOnTop(c.AlwaysOnTop)
		case ui.CommandSetIcon:
			win.SetIcon(c.Icon)
			rec.Attributes.Icon = c.Icon
		case ui.CommandFocus:
			win.Focus()
		case ui.CommandBeginDrag:
			win.BeginDrag()
		case ui.CommandScreenshot:
			rec.Actions = append(rec.Actions, ActionScreenshot)
		case ui.CommandClose:
			rec.CloseRequested = true
		case ui.CommandCancelClose:
			rec.CloseRequested = false
			rec.Info.Events = removeCloseEvents(rec.Info.Events)
		default:
			r.logger.Warn("unhandled viewport command", "viewport", rec.ID, "command", cmd)
		}
	}
}

// sizeLimits resolves a record's full size-limit tuple, -1 for unset bounds.
func sizeLimits(rec *Record) (minW, minH, maxW, maxH int) {
	minW, minH, maxW, maxH = -1, -1, -1, -1
	if m := rec.Attributes.MinInnerSize; m != nil {
		minW, minH = m[0], m[1]
	}
	if m := rec.Attributes.MaxInnerSize; m != nil {
		maxW, maxH = m[0], m[1]
	}
	return minW, minH, maxW, maxH
}

func removeCloseEvents(events []ui.ViewportEvent) []ui.ViewportEvent {
	out := events[:0]
	for _, ev := range events {
		if ev != ui.ViewportEventClose {
			out = append(out, ev)
		}
	}
	return out
}
