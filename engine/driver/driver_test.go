package driver

import (
	"io"
	"log/slog"
	"testing"

	"github.com/mirador-engine/mirador/engine/config"
	"github.com/mirador-engine/mirador/engine/core"
	"github.com/mirador-engine/mirador/engine/ui"
)

type harness struct {
	platform *fakePlatform
	program  *fakeProgram
	painter  *fakePainter
	sched    *fakeScheduler
	drv      *Driver
}

func newHarness(opts config.Options) *harness {
	h := &harness{
		platform: &fakePlatform{},
		program:  &fakeProgram{},
		painter:  &fakePainter{},
		sched:    &fakeScheduler{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h.drv = New(opts, h.platform, h.program, func() {},
		func() (Painter, error) { return h.painter, nil }, logger)
	h.drv.SetScheduler(h.sched)
	return h
}

// resume starts the host and returns the root window id.
func (h *harness) resume(t *testing.T) core.WindowID {
	t.Helper()
	res, err := h.drv.Resumed()
	if err != nil {
		t.Fatalf("Resumed: %v", err)
	}
	if res.Kind != core.KindRepaintNow {
		t.Fatalf("resume verdict = %v, want RepaintNow", res)
	}
	return res.Window
}

// declare makes every pass output the given desired set.
func (h *harness) declare(desired ui.DesiredOutput) {
	h.program.onPass = func(ui.Input, ui.RenderCallback) ui.Output {
		out := ui.Output{Viewports: ui.DesiredOutput{}}
		for id, dv := range desired {
			out.Viewports[id] = dv
		}
		return out
	}
}

func (h *harness) paint(t *testing.T, w core.WindowID) core.EventResult {
	t.Helper()
	res, err := h.drv.RunUIAndPaint(w)
	if err != nil {
		t.Fatalf("RunUIAndPaint: %v", err)
	}
	return res
}

func deferredDecl(id ui.ID) ui.DesiredOutput {
	return ui.DesiredOutput{
		id: {Parent: ui.RootID, Class: ui.ClassDeferred, Render: func() {}},
	}
}

func TestResumedInitializesRootViewport(t *testing.T) {
	h := newHarness(config.Default())
	rootWin := h.resume(t)

	reg := h.drv.Registry()
	if reg == nil {
		t.Fatal("registry must exist after resume")
	}
	rec, ok := reg.Get(ui.RootID)
	if !ok || !rec.Initialized() {
		t.Fatal("the root viewport must be fully materialized")
	}
	if w, _ := reg.WindowForViewport(ui.RootID); w != rootWin {
		t.Fatal("resume must ask to repaint the root window")
	}
	if reg.Cell().Current() == nil {
		t.Fatal("the context must be current after startup")
	}
	if h.platform.windows[0].title != config.Default().Title {
		t.Fatalf("root title = %q, want configured title", h.platform.windows[0].title)
	}
}

func TestDeferredViewportLifecycle(t *testing.T) {
	h := newHarness(config.Default())
	rootWin := h.resume(t)

	// Pass 1: the UI declares a second viewport.
	h.declare(deferredDecl(2))
	h.paint(t, rootWin)

	reg := h.drv.Registry()
	rec, ok := reg.Get(2)
	if !ok || !rec.Initialized() {
		t.Fatal("a declared viewport must gain a window and surface after the pass")
	}
	if rec.Info.Minimized == nil || *rec.Info.Minimized {
		t.Fatal("Info.Minimized must be observed false for a fresh window")
	}
	childWin := h.platform.windowFor(rec.Window.ID())

	// The child can now paint its own pass.
	h.paint(t, rec.Window.ID())
	if childWin.swapCalls == 0 {
		t.Fatal("the child viewport must present")
	}

	// Pass N: the UI stops declaring it; the window must be torn down.
	h.declare(ui.DesiredOutput{})
	h.paint(t, rootWin)
	if _, ok := reg.Get(2); ok {
		t.Fatal("an undeclared viewport must be removed")
	}
	if !childWin.destroyed {
		t.Fatal("the removed viewport's window must be destroyed")
	}
	if _, ok := reg.Get(ui.RootID); !ok {
		t.Fatal("the root must survive")
	}
}

func TestNewViewportFirstPaintIsScheduled(t *testing.T) {
	h := newHarness(config.Default())
	rootWin := h.resume(t)

	h.declare(deferredDecl(2))
	h.paint(t, rootWin)

	reg := h.drv.Registry()
	childWin, ok := reg.WindowForViewport(2)
	if !ok {
		t.Fatal("the declared viewport must gain a window")
	}
	// The fresh window is hidden and emits no OS events; the pass that
	// created it must schedule its first paint or it never presents.
	if !h.sched.requested(childWin) {
		t.Fatal("the new viewport's first paint must be scheduled")
	}

	// Once presented, nothing volunteers further repaints.
	h.sched.repaints = nil
	h.paint(t, childWin)
	h.paint(t, rootWin)
	if h.sched.requested(childWin) {
		t.Fatalf("repaints = %v, want none for a presented viewport", h.sched.repaints)
	}
}

func TestNestedRenderSchedulesDeclaredViewports(t *testing.T) {
	h := newHarness(config.Default())
	rootWin := h.resume(t)

	// The nested pass declares a deferred sibling; the merge after the
	// nested present must schedule its first paint too.
	h.program.onPass = func(in ui.Input, render ui.RenderCallback) ui.Output {
		switch in.Viewport {
		case ui.RootID:
			out := ui.Output{Viewports: ui.DesiredOutput{
				3: {Parent: ui.RootID, Class: ui.ClassImmediate},
				4: {Parent: ui.RootID, Class: ui.ClassDeferred, Render: func() {}},
			}}
			h.program.immediate(ui.ImmediateViewport{ID: 3, Parent: ui.RootID})
			return out
		case 3:
			return ui.Output{Viewports: ui.DesiredOutput{
				4: {Parent: ui.RootID, Class: ui.ClassDeferred, Render: func() {}},
			}}
		default:
			return ui.Output{Viewports: ui.DesiredOutput{}}
		}
	}
	h.paint(t, rootWin)

	reg := h.drv.Registry()
	w4, ok := reg.WindowForViewport(4)
	if !ok {
		t.Fatal("the viewport declared by the nested pass must be materialized")
	}
	if !h.sched.requested(w4) {
		t.Fatal("the nested render must schedule the first paint of viewports it declares")
	}
}

func TestZeroDimensionResizeIsAMinimizeSignal(t *testing.T) {
	h := newHarness(config.Default())
	rootWin := h.resume(t)
	win := h.platform.windowFor(rootWin)

	res, err := h.drv.WindowEvent(rootWin, core.EventResized{Width: 0, Height: 600})
	if err != nil {
		t.Fatalf("WindowEvent: %v", err)
	}
	if len(win.resizes) != 0 {
		t.Fatalf("resizes = %v, want none for a zero dimension", win.resizes)
	}
	if res.Kind == core.KindRepaintNow {
		t.Fatal("a minimize signal must not force a synchronous repaint")
	}

	res, err = h.drv.WindowEvent(rootWin, core.EventResized{Width: 640, Height: 480})
	if err != nil {
		t.Fatalf("WindowEvent: %v", err)
	}
	if len(win.resizes) != 1 || win.resizes[0] != [2]int{640, 480} {
		t.Fatalf("resizes = %v, want [[640 480]]", win.resizes)
	}
	if res.Kind != core.KindRepaintNow {
		t.Fatalf("verdict = %v, want a synchronous repaint during live resize", res)
	}
}

func TestCloseRequestProtocol(t *testing.T) {
	h := newHarness(config.Default())
	rootWin := h.resume(t)
	h.declare(deferredDecl(2))
	h.paint(t, rootWin)

	reg := h.drv.Registry()
	childWin, _ := reg.WindowForViewport(2)

	// Closing a child never exits; it queues an event and repaints both the
	// child and its parent.
	res, err := h.drv.WindowEvent(childWin, core.EventCloseRequested{})
	if err != nil {
		t.Fatalf("WindowEvent: %v", err)
	}
	if res.Kind == core.KindExit {
		t.Fatal("a child close request must not exit")
	}
	rec, _ := reg.Get(2)
	if len(rec.Info.Events) != 1 || rec.Info.Events[0] != ui.ViewportEventClose {
		t.Fatalf("child events = %v, want one close event", rec.Info.Events)
	}
	if !h.sched.requested(childWin) || !h.sched.requested(rootWin) {
		t.Fatal("both the child and its parent must be repainted")
	}

	// The root exits only after the application acknowledged the close.
	res, _ = h.drv.WindowEvent(rootWin, core.EventCloseRequested{})
	if res.Kind == core.KindExit {
		t.Fatal("an unacknowledged root close must not exit")
	}
	root, _ := reg.Get(ui.RootID)
	root.CloseRequested = true
	res, _ = h.drv.WindowEvent(rootWin, core.EventCloseRequested{})
	if res.Kind != core.KindExit {
		t.Fatalf("verdict = %v, want Exit for an acknowledged root close", res)
	}
}

func TestPaintExitsOnAcknowledgedRootClose(t *testing.T) {
	h := newHarness(config.Default())
	rootWin := h.resume(t)

	// The UI acknowledges the close with a command during the pass.
	h.program.onPass = func(ui.Input, ui.RenderCallback) ui.Output {
		return ui.Output{Viewports: ui.DesiredOutput{
			ui.RootID: {Parent: ui.RootID, Class: ui.ClassRoot,
				Commands: []ui.Command{ui.CommandClose{}}},
		}}
	}
	res := h.paint(t, rootWin)
	if res.Kind != core.KindExit {
		t.Fatalf("verdict = %v, want Exit once the root acknowledged", res)
	}
}

func TestImmediateViewportRendersReentrantly(t *testing.T) {
	h := newHarness(config.Default())
	rootWin := h.resume(t)
	reg := h.drv.Registry()

	nestedPainted := false
	h.program.onPass = func(in ui.Input, render ui.RenderCallback) ui.Output {
		out := ui.Output{Viewports: ui.DesiredOutput{}}
		if in.Viewport == ui.RootID {
			out.Viewports[3] = ui.DesiredViewport{Parent: ui.RootID, Class: ui.ClassImmediate}
			// Synchronous render from inside the parent's pass.
			h.program.immediate(ui.ImmediateViewport{ID: 3, Parent: ui.RootID})
			// By the time the callback returns, the nested viewport has
			// painted and presented.
			rec, ok := reg.Get(3)
			if !ok || !rec.Initialized() {
				t.Fatal("the nested viewport must be materialized mid-pass")
			}
			nestedPainted = rec.Presented
		}
		return out
	}

	h.paint(t, rootWin)

	if !nestedPainted {
		t.Fatal("the nested viewport must present before the parent pass resumes")
	}
	if h.painter.paints != 2 {
		t.Fatalf("paints = %d, want nested + parent", h.painter.paints)
	}
	// The parent must end the pass with its own surface current again.
	root, _ := reg.Get(ui.RootID)
	if reg.Cell().Current() != root.Surface {
		t.Fatal("the parent must rebind its surface after the nested render")
	}
	rootFake := h.platform.windowFor(rootWin)
	if rootFake.swapCalls != 1 {
		t.Fatalf("root swaps = %d, want 1", rootFake.swapCalls)
	}
}

func TestStaleImmediateCallbackIsSkipped(t *testing.T) {
	h := newHarness(config.Default())
	h.resume(t)

	render := h.program.immediate
	h.drv.Destroy()

	if !h.painter.destroyed {
		t.Fatal("Destroy must tear down the painter")
	}
	if h.drv.Registry() != nil {
		t.Fatal("Destroy must release the run state")
	}
	// A UI callback firing after teardown must be a logged no-op, not a
	// crash.
	render(ui.ImmediateViewport{ID: 9, Parent: ui.RootID})
}

func TestSuspendResumeRebuildsViewports(t *testing.T) {
	h := newHarness(config.Default())
	rootWin := h.resume(t)
	h.declare(deferredDecl(2))
	h.paint(t, rootWin)
	reg := h.drv.Registry()

	if _, err := h.drv.Suspended(); err != nil {
		t.Fatalf("Suspended: %v", err)
	}
	for _, w := range h.platform.windows {
		if !w.destroyed {
			t.Fatal("suspend must destroy every window")
		}
	}
	if reg.Cell().Current() != nil {
		t.Fatal("suspend must release the context")
	}

	// Events while suspended are ignored.
	res, err := h.drv.WindowEvent(rootWin, core.EventResized{Width: 10, Height: 10})
	if err != nil || res.Kind != core.KindWait {
		t.Fatalf("suspended event handling = %v, %v; want Wait", res, err)
	}
	// A duplicate suspend is tolerated.
	if _, err := h.drv.Suspended(); err != nil {
		t.Fatalf("double Suspended: %v", err)
	}

	res, err = h.drv.Resumed()
	if err != nil {
		t.Fatalf("Resumed: %v", err)
	}
	if res.Kind != core.KindRepaintNow {
		t.Fatalf("resume verdict = %v, want RepaintNow", res)
	}
	rec, _ := reg.Get(2)
	if !rec.Initialized() {
		t.Fatal("resume must rebuild the declared viewports")
	}
	if rec.Presented {
		t.Fatal("rebuilt windows have not presented yet")
	}
}

func TestDeviceEventsRouteToFocusedViewport(t *testing.T) {
	h := newHarness(config.Default())
	rootWin := h.resume(t)
	h.declare(deferredDecl(2))
	h.paint(t, rootWin)

	reg := h.drv.Registry()
	childWin, _ := reg.WindowForViewport(2)

	// Unfocused: motion goes nowhere.
	res, _ := h.drv.DeviceEvent(core.EventMouseMotion{DX: 1, DY: 1})
	if res.Kind != core.KindWait {
		t.Fatalf("verdict = %v, want Wait with no focus", res)
	}

	h.drv.WindowEvent(childWin, core.EventFocused{Focused: true})
	res, _ = h.drv.DeviceEvent(core.EventMouseMotion{DX: 1, DY: 2})
	if res.Kind != core.KindRepaintNext || res.Window != childWin {
		t.Fatalf("verdict = %v, want RepaintNext of the focused window", res)
	}
	rec, _ := reg.Get(2)
	if rec.Adapter.Pending() == 0 {
		t.Fatal("the motion must land in the focused viewport's input")
	}
}

func TestWindowsHiddenUntilFirstPresent(t *testing.T) {
	h := newHarness(config.Default())
	rootWin := h.resume(t)
	win := h.platform.windowFor(rootWin)

	if win.visible {
		t.Fatal("windows must stay hidden until they have content")
	}
	h.paint(t, rootWin)
	if !win.visible {
		t.Fatal("the first present must show the window")
	}
}

func TestScreenshotReadbackAfterPresent(t *testing.T) {
	h := newHarness(config.Default())
	rootWin := h.resume(t)
	reg := h.drv.Registry()

	reg.Upsert(ui.RootID, ui.DesiredViewport{Parent: ui.RootID, Class: ui.ClassRoot,
		Commands: []ui.Command{ui.CommandScreenshot{}}})

	h.paint(t, rootWin)
	if h.painter.reads != 1 {
		t.Fatalf("reads = %d, want one readback after present", h.painter.reads)
	}
	if !h.sched.requested(rootWin) {
		t.Fatal("the delivery pass must be scheduled")
	}
	rec, _ := reg.Get(ui.RootID)
	if rec.Adapter.Pending() == 0 {
		t.Fatal("the screenshot must be queued as input")
	}
	if len(rec.Actions) != 0 {
		t.Fatal("the action must be consumed")
	}

	// The next pass sees the screenshot event.
	h.paint(t, rootWin)
	last := h.program.inputs[len(h.program.inputs)-1]
	found := false
	for _, ev := range last.Events {
		if shot, ok := ev.(ui.Screenshot); ok {
			found = true
			if shot.Image.Width != 1024 || shot.Image.Height != 768 {
				t.Fatalf("screenshot size = %dx%d, want the presented size",
					shot.Image.Width, shot.Image.Height)
			}
		}
	}
	if !found {
		t.Fatal("the screenshot event must reach the UI on the next pass")
	}
}

func TestClearPolicyAuto(t *testing.T) {
	h := newHarness(config.Default()) // auto
	rootWin := h.resume(t)

	clearsDuringPass := -1
	h.program.onPass = func(in ui.Input, render ui.RenderCallback) ui.Output {
		if in.Viewport == ui.RootID {
			clearsDuringPass = h.painter.clears
		}
		return ui.Output{Viewports: ui.DesiredOutput{}}
	}
	h.paint(t, rootWin)
	if clearsDuringPass != 1 {
		t.Fatalf("clears during pass = %d, want early clear with one viewport", clearsDuringPass)
	}

	// With a second viewport live, auto switches to clearing after the pass.
	h.declare(deferredDecl(2))
	h.paint(t, rootWin)
	before := h.painter.clears
	h.program.onPass = func(in ui.Input, render ui.RenderCallback) ui.Output {
		if in.Viewport == ui.RootID {
			clearsDuringPass = h.painter.clears - before
		}
		return ui.Output{Viewports: deferredDecl(2)}
	}
	h.paint(t, rootWin)
	if clearsDuringPass != 0 {
		t.Fatalf("clears during pass = %d, want none with multiple viewports", clearsDuringPass)
	}
	if h.painter.clears == before {
		t.Fatal("the frame must still be cleared, after the pass")
	}
}

func TestImmediateViewportForwardsRepaintToParent(t *testing.T) {
	h := newHarness(config.Default())
	rootWin := h.resume(t)
	h.declare(ui.DesiredOutput{
		3: {Parent: ui.RootID, Class: ui.ClassImmediate},
	})
	h.paint(t, rootWin)

	reg := h.drv.Registry()
	childWin, ok := reg.WindowForViewport(3)
	if !ok {
		t.Fatal("the immediate viewport must be materialized")
	}
	res := h.paint(t, childWin)
	if res.Kind != core.KindRepaintNext || res.Window != rootWin {
		t.Fatalf("verdict = %v, want the parent repainted instead", res)
	}
}

func TestSurfaceFailureIsRecoverablePerViewport(t *testing.T) {
	h := newHarness(config.Default())
	rootWin := h.resume(t)

	h.platform.surfaceFailures = 1
	h.declare(deferredDecl(2))
	h.paint(t, rootWin) // initialization of viewport 2 fails, logged

	reg := h.drv.Registry()
	rec, ok := reg.Get(2)
	if !ok {
		t.Fatal("the record must survive a failed initialization")
	}
	if rec.Initialized() {
		t.Fatal("the viewport must be collapsed after the failure")
	}

	// Still declared: the next pass retries and succeeds.
	h.paint(t, rootWin)
	if !rec.Initialized() {
		t.Fatal("the retry must materialize the viewport")
	}
}
