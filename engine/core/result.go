package core

// EventResultKind is the scheduling verdict a host returns from handling an
// event or painting a frame.
type EventResultKind int

const (
	// KindWait means nothing to do; block until the next OS event.
	KindWait EventResultKind = iota
	// KindRepaintNow asks for a synchronous repaint inside the current event
	// dispatch (live-resize needs this to avoid flicker).
	KindRepaintNow
	// KindRepaintNext asks for a repaint on the next loop turn.
	KindRepaintNext
	// KindExit ends the application.
	KindExit
)

type EventResult struct {
	Kind   EventResultKind
	Window WindowID
}

func Wait() EventResult                  { return EventResult{Kind: KindWait} }
func RepaintNow(w WindowID) EventResult  { return EventResult{Kind: KindRepaintNow, Window: w} }
func RepaintNext(w WindowID) EventResult { return EventResult{Kind: KindRepaintNext, Window: w} }
func Exit() EventResult                  { return EventResult{Kind: KindExit} }

func (r EventResult) String() string {
	switch r.Kind {
	case KindRepaintNow:
		return "RepaintNow"
	case KindRepaintNext:
		return "RepaintNext"
	case KindExit:
		return "Exit"
	default:
		return "Wait"
	}
}
