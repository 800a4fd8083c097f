// Package driver runs the per-pass render protocol for every viewport and
// owns the suspend/resume lifecycle. It is the only writer of the context
// ownership cell and the only caller of the UI program.
package driver

import (
	"log/slog"
	"time"
	"weak"

	"github.com/mirador-engine/mirador/engine/assets"
	"github.com/mirador-engine/mirador/engine/colors"
	"github.com/mirador-engine/mirador/engine/config"
	"github.com/mirador-engine/mirador/engine/core"
	"github.com/mirador-engine/mirador/engine/glctx"
	"github.com/mirador-engine/mirador/engine/profiler"
	"github.com/mirador-engine/mirador/engine/ui"
	"github.com/mirador-engine/mirador/engine/viewport"
)

// Painter rasterizes UI primitives into the currently bound surface.
// The GL implementation lives in engine/gfx/gl; tests inject fakes.
type Painter interface {
	UpdateTextures(ui.TexturesDelta)
	Clear(size [2]int, c colors.Color)
	Paint(size [2]int, prims []ui.Primitive)
	ReadScreen(size [2]int) ui.Image
	Destroy()
}

// PainterFactory builds the painter once the context is current against the
// root surface.
type PainterFactory func() (Painter, error)

type lifecycleState int

const (
	// stateIdle: before the first resume; no windows or context exist yet.
	stateIdle lifecycleState = iota
	stateRunning
	stateSuspended
)

// Driver implements core.Host.
type Driver struct {
	logger     *slog.Logger
	opts       config.Options
	platform   viewport.Platform
	program    ui.Program
	rootRender ui.RenderCallback
	newPainter PainterFactory

	scheduler core.Scheduler
	state     lifecycleState

	// shared is everything the reentrant immediate-viewport renderer needs.
	// The renderer holds it weakly so a stale callback fails softly.
	shared *shared
}

// shared is the state reachable from the reentrant render path.
type shared struct {
	logger    *slog.Logger
	registry  *viewport.Registry
	cell      *glctx.Cell
	painter   Painter
	program   ui.Program
	scheduler core.Scheduler

	clearPolicy config.ClearPolicy
	clearColor  colors.Color
	start       time.Time

	// destroyed guards the window between teardown and the weak pointer
	// dying; a reentrant render observing it is skipped.
	destroyed bool
	// fatal records a context-bind failure raised inside a reentrant render,
	// propagated by the enclosing top-level pass.
	fatal error
}

func New(opts config.Options, platform viewport.Platform, program ui.Program,
	rootRender ui.RenderCallback, newPainter PainterFactory, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		logger:     logger,
		opts:       opts,
		platform:   platform,
		program:    program,
		rootRender: rootRender,
		newPainter: newPainter,
	}
}

func (d *Driver) SetScheduler(s core.Scheduler) { d.scheduler = s }

// Registry exposes the live registry for inspection; nil before the first
// resume and after destroy.
func (d *Driver) Registry() *viewport.Registry {
	if d.shared == nil {
		return nil
	}
	return d.shared.registry
}

// Resumed handles the startup signal and every resume after a suspend.
func (d *Driver) Resumed() (core.EventResult, error) {
	d.logger.Debug("resumed")

	switch d.state {
	case stateIdle:
		// First resume: full startup initialization.
		if err := d.initRunState(); err != nil {
			return core.Wait(), err
		}
	case stateSuspended:
		// Later resumes: rebuild every still-declared viewport.
		d.shared.registry.InitializeAll()
	case stateRunning:
		d.logger.Warn("resume while already running; reinitializing outstanding windows")
		d.shared.registry.InitializeAll()
	}
	d.state = stateRunning

	if w, ok := d.shared.registry.WindowForViewport(ui.RootID); ok {
		return core.RepaintNow(w), nil
	}
	return core.Wait(), nil
}

// Suspended tears down all windows and surfaces and releases the context.
func (d *Driver) Suspended() (core.EventResult, error) {
	if d.state != stateRunning {
		d.logger.Warn("redundant suspend event ignored", "state", d.state)
		return core.Wait(), nil
	}
	d.logger.Debug("suspending: dropping windows, surfaces and context binding")
	d.shared.registry.Suspend()
	d.state = stateSuspended
	return core.Wait(), nil
}

func (d *Driver) initRunState() error {
	cell := glctx.NewCell(d.logger)
	registry := viewport.NewRegistry(d.platform, cell, d.rootAttributes(), d.logger)

	// A root that cannot get a window, surface, or context binding is a
	// startup error: there is nothing to render error UI into.
	if err := registry.Initialize(ui.RootID); err != nil {
		return err
	}

	// The context is now current against the root surface; safe to compile
	// the painter's pipeline.
	painter, err := d.newPainter()
	if err != nil {
		return err
	}

	sh := &shared{
		logger:      d.logger,
		registry:    registry,
		cell:        cell,
		painter:     painter,
		program:     d.program,
		scheduler:   d.scheduler,
		clearPolicy: d.opts.ClearPolicy,
		clearColor:  d.opts.ClearColor,
		start:       time.Now(),
	}
	d.shared = sh

	// The immediate renderer reaches the shared state weakly: a render
	// callback firing after its owner is gone is legitimate (between a
	// user close and the next reconciliation) and must fail softly.
	logger := d.logger
	handle := weak.Make(sh)
	d.program.SetImmediateRenderer(func(iv ui.ImmediateViewport) {
		sh := handle.Value()
		if sh == nil || sh.destroyed {
			logger.Warn("immediate viewport render invoked after host shutdown",
				"viewport", iv.ID)
			return
		}
		sh.renderImmediateViewport(iv)
	})

	return nil
}

func (d *Driver) rootAttributes() ui.Attributes {
	attrs := ui.Attributes{
		Title:       &d.opts.Title,
		InnerSize:   &[2]int{d.opts.Width, d.opts.Height},
		Decorations: &d.opts.Decorations,
		Transparent: &d.opts.Transparent,
	}
	if d.opts.PositionX != nil && d.opts.PositionY != nil {
		attrs.Position = &[2]int{*d.opts.PositionX, *d.opts.PositionY}
	}
	if d.opts.IconPath != "" {
		icon, err := assets.LoadIcon(d.opts.IconPath)
		if err != nil {
			d.logger.Warn("failed to load window icon", "path", d.opts.IconPath, "error", err)
		} else {
			attrs.Icon = icon
		}
	}
	return attrs
}

// WindowEvent translates one OS window event per the close/resize/focus
// protocol and feeds the rest to the viewport's input adapter.
func (d *Driver) WindowEvent(w core.WindowID, ev core.Event) (core.EventResult, error) {
	if d.state != stateRunning {
		return core.Wait(), nil
	}
	sh := d.shared

	vid, ok := sh.registry.ViewportForWindow(w)
	if !ok {
		d.logger.Debug("ignoring event for unknown window", "window", w)
		return core.Wait(), nil
	}
	rec, ok := sh.registry.Get(vid)
	if !ok {
		return core.Wait(), nil
	}

	// Live resizes repaint synchronously inside the event dispatch; waiting
	// a turn makes the window flicker while the compositor runs ahead.
	repaintASAP := false

	switch e := ev.(type) {
	case core.EventFocused:
		sh.registry.SetFocused(vid, e.Focused)

	case core.EventResized:
		// A zero dimension is a minimize signal on some platforms, never a
		// real resize.
		if e.Width > 0 && e.Height > 0 {
			sh.registry.Resize(vid, e.Width, e.Height)
			repaintASAP = true
		}

	case core.EventCloseRequested:
		if vid == ui.RootID && rec.CloseRequested {
			d.logger.Debug("close requested for root viewport; shutting down")
			return core.Exit(), nil
		}
		// Queue the close notification for the UI layer, then repaint both
		// this viewport and its parent: once to notice, once to enforce.
		rec.Info.Events = append(rec.Info.Events, ui.ViewportEventClose)
		if d.scheduler != nil {
			d.scheduler.RequestRepaint(w)
			if pw, ok := sh.registry.WindowForViewport(rec.Parent); ok && pw != w {
				d.scheduler.RequestRepaint(pw)
			}
		}

	case core.EventMoved:
		rec.Info.OuterPos = [2]int{e.X, e.Y}

	case core.EventScaleChanged:
		if e.Scale > 0 {
			rec.Info.Scale = e.Scale
		}
	}

	repaint := false
	if rec.Adapter != nil {
		repaint = rec.Adapter.OnEvent(ev)
	}
	switch {
	case repaint && repaintASAP:
		return core.RepaintNow(w), nil
	case repaint:
		return core.RepaintNext(w), nil
	default:
		return core.Wait(), nil
	}
}

// DeviceEvent routes window-less events to the focused viewport.
func (d *Driver) DeviceEvent(ev core.Event) (core.EventResult, error) {
	if d.state != stateRunning {
		return core.Wait(), nil
	}
	motion, ok := ev.(core.EventMouseMotion)
	if !ok {
		return core.Wait(), nil
	}
	rec, ok := d.shared.registry.Focused()
	if !ok || rec.Adapter == nil {
		return core.Wait(), nil
	}
	rec.Adapter.OnMouseMotion(motion.DX, motion.DY)
	if w, ok := d.shared.registry.WindowForViewport(rec.ID); ok {
		return core.RepaintNext(w), nil
	}
	return core.Wait(), nil
}

// RunUIAndPaint runs one full pass for the viewport owning the window:
// input, UI callback (which may reenter), rebind, paint, present,
// reconcile.
func (d *Driver) RunUIAndPaint(w core.WindowID) (core.EventResult, error) {
	if d.state != stateRunning {
		return core.Wait(), nil
	}
	defer profiler.Start("driver.RunUIAndPaint")()
	sh := d.shared

	vid, ok := sh.registry.ViewportForWindow(w)
	if !ok {
		return core.Wait(), nil
	}
	rec, ok := sh.registry.Get(vid)
	if !ok {
		return core.Wait(), nil
	}

	// An immediate viewport cannot render by itself; it needs its parent's
	// pass. Forward the repaint to the parent's window.
	if rec.Render == nil && vid != ui.RootID {
		if pw, ok := sh.registry.WindowForViewport(rec.Parent); ok {
			return core.RepaintNext(pw), nil
		}
		return core.Wait(), nil
	}
	if !rec.Initialized() || rec.Adapter == nil {
		return core.Wait(), nil
	}

	sh.registry.UpdateInfo(rec)
	input := sh.gatherInput(rec)

	render := rec.Render
	if vid == ui.RootID {
		render = d.rootRender
	}

	clearedBefore := false
	if sh.clearBeforeUpdate() {
		// Clear before the UI pass so user paint callbacks can draw between
		// the clear color and the UI.
		if err := sh.cell.Rebind(rec.Surface); err != nil {
			return core.Wait(), err
		}
		sh.painter.Clear(rec.Info.InnerSize, sh.clearColor)
		clearedBefore = true
	}

	// The UI pass may synchronously render nested immediate viewports,
	// rebinding the context and mutating the registry. Hold nothing across
	// this call that a nested render could invalidate.
	out := sh.program.RunPass(input, render)

	if err := sh.takeFatal(); err != nil {
		return core.Wait(), err
	}

	// Drop viewports the pass no longer declares; we may be one of them.
	sh.registry.DropNotIn(out.Viewports)
	rec, ok = sh.registry.Get(vid)
	if !ok || !rec.Initialized() {
		return core.Wait(), nil
	}

	rec.Info.Events = nil // the pass has seen them

	sh.handlePlatformOutput(rec, out.Platform)

	// Rebind even if we cleared before the pass: a nested immediate render
	// almost certainly moved the context.
	if err := sh.cell.Rebind(rec.Surface); err != nil {
		return core.Wait(), err
	}

	width, height := rec.Window.InnerSize()
	size := [2]int{width, height}
	if !clearedBefore {
		sh.painter.Clear(size, sh.clearColor)
	}
	sh.painter.UpdateTextures(out.Textures)
	sh.painter.Paint(size, out.Primitives)

	if err := sh.cell.Present(); err != nil {
		// Frame dropped; surface and context state are unchanged, so the
		// next pass retries implicitly.
		sh.logger.Error("present failed, dropping frame", "viewport", vid, "error", err)
	} else {
		sh.afterPresent(rec, size)
		// A screenshot readback pushed a synthetic event; schedule a pass to
		// deliver it.
		if rec.Adapter.Pending() > 0 && d.scheduler != nil {
			d.scheduler.RequestRepaint(w)
		}
	}

	// Reconcile, materialize any newly-declared viewports, then schedule
	// their first paint: a fresh window is still hidden and emits no OS
	// events, so nothing else would ever paint it.
	sh.registry.Reconcile(out.Viewports)
	sh.registry.InitializeAll()
	sh.scheduleUnpresented()

	if root, ok := sh.registry.Get(ui.RootID); ok && root.CloseRequested {
		return core.Exit(), nil
	}

	// Reconciliation may have dropped our window (e.g. a recreate-forcing
	// attribute change); it will be rebuilt before its next paint.
	if rec.Window != nil && rec.Window.Minimized() {
		// A minimized window repainting at full tilt burns a core.
		time.Sleep(10 * time.Millisecond)
	}
	return core.Wait(), nil
}

// Destroy is the only true teardown: per-viewport destroy plus final release
// of the context cell itself.
func (d *Driver) Destroy() {
	if d.shared == nil {
		return
	}
	sh := d.shared
	sh.destroyed = true

	// Painter teardown issues GL calls; give it a current context if any
	// surface is still alive.
	if root, ok := sh.registry.Get(ui.RootID); ok && root.Surface != nil {
		if err := sh.cell.Rebind(root.Surface); err != nil {
			sh.logger.Warn("could not bind context for teardown", "error", err)
		}
	}
	sh.painter.Destroy()
	sh.registry.Suspend()
	d.shared = nil
	d.state = stateIdle
}

// --- shared (reentrancy-safe) operations ---

// renderImmediateViewport services a nested viewport synchronously from
// inside the parent's UI pass. It uses the same registry paths as top-level
// rendering and may itself reenter.
func (sh *shared) renderImmediateViewport(iv ui.ImmediateViewport) {
	defer profiler.Start("driver.renderImmediateViewport")()

	sh.registry.Upsert(iv.ID, ui.DesiredViewport{
		Parent:     iv.Parent,
		Class:      ui.ClassImmediate,
		Attributes: iv.Attributes,
	})
	if err := sh.registry.Initialize(iv.ID); err != nil {
		sh.logger.Error("failed to initialize immediate viewport",
			"viewport", iv.ID, "error", err)
		return
	}

	rec, ok := sh.registry.Get(iv.ID)
	if !ok || !rec.Initialized() || rec.Adapter == nil {
		return
	}
	sh.registry.UpdateInfo(rec)
	input := sh.gatherInput(rec)

	// The nested pass can reenter this function again; no registry state may
	// be held across it.
	out := sh.program.RunPass(input, iv.Render)

	if sh.fatal != nil {
		return
	}
	rec, ok = sh.registry.Get(iv.ID)
	if !ok || !rec.Initialized() {
		return
	}
	rec.Info.Events = nil

	if err := sh.cell.Rebind(rec.Surface); err != nil {
		// The cell is left not-current, a legal state, but a context that
		// refuses to bind cannot render anything; escalate.
		sh.fatal = err
		return
	}

	width, height := rec.Window.InnerSize()
	size := [2]int{width, height}
	sh.painter.Clear(size, colors.Transparent)
	sh.painter.UpdateTextures(out.Textures)
	sh.painter.Paint(size, out.Primitives)

	if err := sh.cell.Present(); err != nil {
		sh.logger.Error("present failed for immediate viewport",
			"viewport", iv.ID, "error", err)
	} else {
		sh.afterPresent(rec, size)
	}

	sh.handlePlatformOutput(rec, out.Platform)
	// A nested pass speaks only for viewports it declares; siblings are not
	// its to remove.
	sh.registry.Merge(out.Viewports)
	sh.registry.InitializeAll()
	sh.scheduleUnpresented()
}

// scheduleUnpresented requests a paint for every materialized viewport that
// has never presented. Covers the first frame of a newly-declared viewport
// and the retry of one whose present failed.
func (sh *shared) scheduleUnpresented() {
	if sh.scheduler == nil {
		return
	}
	for _, id := range sh.registry.IDs() {
		rec, ok := sh.registry.Get(id)
		if !ok || !rec.Initialized() || rec.Presented {
			continue
		}
		if w, ok := sh.registry.WindowForViewport(id); ok {
			sh.scheduler.RequestRepaint(w)
		}
	}
}

func (sh *shared) gatherInput(rec *viewport.Record) ui.Input {
	infos := map[ui.ID]ui.Info{}
	for _, id := range sh.registry.IDs() {
		if r, ok := sh.registry.Get(id); ok {
			infos[id] = r.Info
		}
	}
	focused := false
	if rec.Info.Focused != nil {
		focused = *rec.Info.Focused
	}
	return rec.Adapter.TakeInput(
		time.Since(sh.start).Seconds(),
		rec.Info.InnerSize,
		focused,
		infos,
	)
}

// afterPresent shows a window after its first frame (windows start hidden to
// avoid a white startup flash) and services pending screenshot requests by
// reading back the just-presented surface.
func (sh *shared) afterPresent(rec *viewport.Record, size [2]int) {
	if !rec.Presented {
		rec.Presented = true
		if rec.Attributes.Visible == nil || *rec.Attributes.Visible {
			rec.Window.SetVisible(true)
		}
	}
	if len(rec.Actions) == 0 {
		return
	}
	actions := rec.Actions
	rec.Actions = nil
	for _, action := range actions {
		if action == viewport.ActionScreenshot {
			img := sh.painter.ReadScreen(size)
			rec.Adapter.Push(ui.Screenshot{Viewport: rec.ID, Image: img})
		}
	}
}

func (sh *shared) handlePlatformOutput(rec *viewport.Record, out ui.PlatformOutput) {
	if rec.Window == nil {
		return
	}
	rec.Window.SetCursor(out.Cursor)
	if out.CopiedText != "" {
		rec.Window.SetClipboard(out.CopiedText)
	}
}

func (sh *shared) clearBeforeUpdate() bool {
	switch sh.clearPolicy {
	case config.ClearBeforeUpdate:
		return true
	case config.ClearAfterUpdate:
		return false
	default:
		// The early clear does not take on some platforms when several
		// viewports are live (double-clear artifact), so auto only clears
		// early for a single viewport.
		return sh.registry.Count() == 1
	}
}

func (sh *shared) takeFatal() error {
	err := sh.fatal
	sh.fatal = nil
	return err
}
