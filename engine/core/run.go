package core

import (
	"log/slog"
	"runtime"
	"sort"
	"sync"
)

// Host is the windowing/graphics lifecycle layer driven by the event loop.
// All methods are called on the main OS thread.
type Host interface {
	// SetScheduler hands the host a way to request repaints of arbitrary
	// windows outside its own return verdicts (e.g. "repaint my parent too").
	SetScheduler(Scheduler)
	// Resumed fires once at startup on every platform, and again after each
	// Suspended on platforms with a suspend concept.
	Resumed() (EventResult, error)
	Suspended() (EventResult, error)
	WindowEvent(WindowID, Event) (EventResult, error)
	// DeviceEvent delivers events not tied to a specific window.
	DeviceEvent(Event) (EventResult, error)
	RunUIAndPaint(WindowID) (EventResult, error)
	// Destroy tears down every window, surface and the graphics context.
	Destroy()
}

// Scheduler marks windows dirty for the next loop turn.
type Scheduler interface {
	RequestRepaint(WindowID)
}

// Pump abstracts the OS event queue (GLFW in production, a fake in tests).
type Pump interface {
	// SetHandlers registers where pumped events are delivered. Events arrive
	// synchronously from inside PollEvents/WaitEvents.
	SetHandlers(window func(WindowID, Event), device func(Event))
	PollEvents()
	WaitEvents()
	// Wake unblocks a pending WaitEvents.
	Wake()
	Terminate()
}

// Run wires the platform pump to the host and executes the main loop.
// It blocks until the host verdicts Exit or an error escalates.
func Run(host Host, pump Pump, logger *slog.Logger) error {
	// Window and GL context calls require the main OS thread.
	runtime.LockOSThread()

	if logger == nil {
		logger = slog.Default()
	}

	l := &loop{host: host, pump: pump, logger: logger, dirty: map[WindowID]bool{}}
	host.SetScheduler(l)
	pump.SetHandlers(l.onWindowEvent, l.onDeviceEvent)
	defer pump.Terminate()
	defer host.Destroy()

	// Synthesize the startup resume; the desktop path is the mobile path with
	// suspend never fired.
	l.apply(host.Resumed())

	for !l.exit && l.err == nil {
		if l.hasDirty() {
			pump.PollEvents()
		} else {
			pump.WaitEvents()
		}
		if l.exit || l.err != nil {
			break
		}
		for _, w := range l.takeDirty() {
			l.apply(host.RunUIAndPaint(w))
			if l.exit || l.err != nil {
				break
			}
		}
	}

	if l.err != nil {
		logger.Error("event loop exiting with error", "error", l.err)
		return l.err
	}
	logger.Debug("event loop exit")
	return nil
}

type loop struct {
	host   Host
	pump   Pump
	logger *slog.Logger

	mu    sync.Mutex // guards dirty; repaints can be requested off-thread
	dirty map[WindowID]bool

	painting bool
	exit     bool
	err      error
}

// RequestRepaint implements Scheduler. Safe to call from any goroutine: the
// pump wake unblocks a loop parked in WaitEvents so the window paints this
// turn instead of after the next OS event.
func (l *loop) RequestRepaint(w WindowID) {
	if w == NoWindow {
		return
	}
	l.mu.Lock()
	l.dirty[w] = true
	l.mu.Unlock()
	l.pump.Wake()
}

func (l *loop) hasDirty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.dirty) > 0
}

func (l *loop) onWindowEvent(w WindowID, ev Event) {
	if l.exit || l.err != nil {
		return
	}
	l.apply(l.host.WindowEvent(w, ev))
}

func (l *loop) onDeviceEvent(ev Event) {
	if l.exit || l.err != nil {
		return
	}
	l.apply(l.host.DeviceEvent(ev))
}

func (l *loop) apply(res EventResult, err error) {
	if err != nil {
		if l.err == nil {
			l.err = err
		}
		return
	}
	switch res.Kind {
	case KindExit:
		l.exit = true
	case KindRepaintNext:
		l.RequestRepaint(res.Window)
	case KindRepaintNow:
		if l.painting {
			// A paint asking for another synchronous paint would recurse
			// without bound; defer it one turn instead.
			l.RequestRepaint(res.Window)
			return
		}
		l.painting = true
		r, err := l.host.RunUIAndPaint(res.Window)
		l.painting = false
		if r.Kind == KindRepaintNow {
			r = RepaintNext(r.Window)
		}
		l.apply(r, err)
	}
}

func (l *loop) takeDirty() []WindowID {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.dirty) == 0 {
		return nil
	}
	out := make([]WindowID, 0, len(l.dirty))
	for w := range l.dirty {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	clear(l.dirty)
	return out
}
