package viewport

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/mirador-engine/mirador/engine/core"
	"github.com/mirador-engine/mirador/engine/glctx"
	"github.com/mirador-engine/mirador/engine/profiler"
	"github.com/mirador-engine/mirador/engine/ui"
)

// Registry maps viewport identities to Records and to OS window identities,
// bidirectionally, and reconciles them against the UI layer's desired set.
// Single render thread; reentrant access goes through the same lookup and
// creation paths as top-level access.
type Registry struct {
	platform Platform
	cell     *glctx.Cell
	logger   *slog.Logger

	viewports          map[ui.ID]*Record
	viewportFromWindow map[core.WindowID]ui.ID
	windowFromViewport map[ui.ID]core.WindowID

	focused ui.ID // 0 = none
}

// NewRegistry creates a registry holding only the root record, with no
// window yet: windows are materialized by Initialize, which on some
// platforms is only legal after a resume signal.
func NewRegistry(platform Platform, cell *glctx.Cell, rootAttrs ui.Attributes, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		platform:           platform,
		cell:               cell,
		logger:             logger,
		viewports:          map[ui.ID]*Record{},
		viewportFromWindow: map[core.WindowID]ui.ID{},
		windowFromViewport: map[ui.ID]core.WindowID{},
	}
	r.viewports[ui.RootID] = &Record{
		ID:         ui.RootID,
		Parent:     ui.RootID, // root's parent is itself
		Class:      ui.ClassRoot,
		Attributes: rootAttrs,
	}
	return r
}

func (r *Registry) Cell() *glctx.Cell { return r.cell }

func (r *Registry) Get(id ui.ID) (*Record, bool) {
	rec, ok := r.viewports[id]
	return rec, ok
}

func (r *Registry) ViewportForWindow(w core.WindowID) (ui.ID, bool) {
	id, ok := r.viewportFromWindow[w]
	return id, ok
}

func (r *Registry) WindowForViewport(id ui.ID) (core.WindowID, bool) {
	w, ok := r.windowFromViewport[id]
	return w, ok
}

// Count reports how many viewports are registered (live or collapsed).
func (r *Registry) Count() int { return len(r.viewports) }

// IDs returns the registered viewport ids in stable order.
func (r *Registry) IDs() []ui.ID {
	ids := make([]ui.ID, 0, len(r.viewports))
	for id := range r.viewports {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SetFocused updates the focused-viewport pointer, used to route
// device-level events that are not tied to a specific window.
func (r *Registry) SetFocused(id ui.ID, focused bool) {
	if focused {
		r.focused = id
	} else if r.focused == id {
		r.focused = 0
	}
}

// Focused resolves the focused viewport's record, if any.
func (r *Registry) Focused() (*Record, bool) {
	if r.focused == 0 {
		return nil, false
	}
	rec, ok := r.viewports[r.focused]
	return rec, ok
}

// Initialize ensures a window, input adapter and surface exist for an
// existing record. Idempotent: an already-initialized record is a no-op.
func (r *Registry) Initialize(id ui.ID) error {
	defer profiler.Start("registry.Initialize")()

	rec, ok := r.viewports[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownViewport, id)
	}

	if rec.Window == nil {
		r.logger.Debug("creating window", "viewport", id)
		win, err := r.platform.CreateWindow(rec.Attributes)
		if err != nil {
			return fmt.Errorf("%w: viewport %d: %v", ErrSurfaceCreation, id, err)
		}
		rec.Window = win
		rec.Adapter = ui.NewAdapter(id, win.Scale())
		r.updateInfo(rec, true)
	}

	if rec.Adapter == nil {
		rec.Adapter = ui.NewAdapter(id, rec.Window.Scale())
	}

	if rec.Surface == nil {
		r.logger.Debug("creating surface", "viewport", id)
		surface, err := r.platform.CreateSurface(rec.Window)
		if err != nil {
			// Keep the invariant surface => window: drop the window too so
			// the next pass rebuilds from scratch.
			r.dropWindow(rec)
			return fmt.Errorf("%w: viewport %d: %v", ErrSurfaceCreation, id, err)
		}
		rec.Surface = surface
		// Make the fresh surface current right away, the way the context is
		// always handed a new surface before its first paint.
		if err := r.cell.Rebind(surface); err != nil {
			rec.Surface = nil
			r.dropWindow(rec)
			return err
		}
	}

	r.viewportFromWindow[rec.Window.ID()] = id
	r.windowFromViewport[id] = rec.Window.ID()

	// Commands queued while the window was down (e.g. during a
	// recreate-forcing Upsert) apply to the rebuilt window now, not on the
	// next Upsert.
	if len(rec.DeferredCommands) > 0 {
		r.applyCommands(rec)
		r.updateInfo(rec, false)
	}
	return nil
}

// InitializeAll materializes windows and surfaces for every record lacking
// them; used after resume, and after reconciliation declares new viewports.
// Per-viewport failures are logged, not escalated.
func (r *Registry) InitializeAll() {
	defer profiler.Start("registry.InitializeAll")()

	for _, id := range r.IDs() {
		if err := r.Initialize(id); err != nil {
			r.logger.Error("failed to initialize viewport", "viewport", id, "error", err)
		}
	}
}

// Upsert inserts a fresh record for a new id or patches an existing one.
// Class and render callback are updated unconditionally; attribute diffs
// yield incremental commands, or force a window recreation.
func (r *Registry) Upsert(id ui.ID, dv ui.DesiredViewport) *Record {
	attrs := dv.Attributes
	if attrs.Icon == nil {
		// Inherit the parent's icon. Cosmetic convenience, not an invariant.
		if parent, ok := r.viewports[dv.Parent]; ok {
			attrs.Icon = parent.Attributes.Icon
		}
	}

	rec, ok := r.viewports[id]
	if !ok {
		r.logger.Debug("creating viewport record", "viewport", id, "class", dv.Class)
		rec = &Record{
			ID:         id,
			Parent:     dv.Parent,
			Class:      dv.Class,
			Attributes: attrs,
			Render:     dv.Render,
		}
		rec.Info.Parent = dv.Parent
		r.viewports[id] = rec
	} else {
		rec.Parent = dv.Parent
		rec.Info.Parent = dv.Parent
		rec.Class = dv.Class
		rec.Render = dv.Render

		delta, recreate := rec.Attributes.Patch(attrs)
		if recreate {
			r.logger.Debug("recreating window", "viewport", id)
			r.dropSurfaceAndWindow(rec)
		}
		rec.DeferredCommands = append(rec.DeferredCommands, delta...)
	}

	rec.DeferredCommands = append(rec.DeferredCommands, dv.Commands...)

	if rec.Window != nil {
		r.applyCommands(rec)
		r.updateInfo(rec, false)
	}
	return rec
}

// Reconcile brings the registry in line with the UI layer's latest desired
// output: insert-or-patch every entry, then garbage-collect every record
// whose id is not a key of desired. The root is exempt.
func (r *Registry) Reconcile(desired ui.DesiredOutput) {
	defer profiler.Start("registry.Reconcile")()

	r.Merge(desired)
	r.DropNotIn(desired)
}

// Merge insert-or-patches every entry of desired without garbage collecting.
// Used by the nested render path, whose pass output does not speak for
// sibling viewports.
func (r *Registry) Merge(desired ui.DesiredOutput) {
	ids := make([]ui.ID, 0, len(desired))
	for id := range desired {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		dv := desired[id]
		if !r.parentReachable(id, dv.Parent) {
			r.logger.Warn("ignoring viewport with unreachable parent chain",
				"viewport", id, "parent", dv.Parent)
			continue
		}
		r.Upsert(id, dv)
	}
}

// DropNotIn removes every record (root exempt) whose id is not a key of
// desired, without patching the survivors. Run right after a UI pass so a
// viewport closed by the pass never gets painted again.
func (r *Registry) DropNotIn(desired ui.DesiredOutput) {
	for _, id := range r.IDs() {
		if id == ui.RootID {
			continue
		}
		if _, keep := desired[id]; !keep {
			r.remove(id)
		}
	}
}

// parentReachable rejects cycles and dangling parents: the chain must
// terminate at the root without revisiting id.
func (r *Registry) parentReachable(id, parent ui.ID) bool {
	seen := map[ui.ID]bool{id: true}
	for parent != ui.RootID {
		if seen[parent] {
			return false
		}
		seen[parent] = true
		next, ok := r.viewports[parent]
		if !ok {
			return false
		}
		parent = next.Parent
	}
	return true
}

func (r *Registry) remove(id ui.ID) {
	rec, ok := r.viewports[id]
	if !ok {
		return
	}
	r.logger.Debug("removing viewport", "viewport", id)
	r.dropSurfaceAndWindow(rec)
	delete(r.viewports, id)
	if r.focused == id {
		r.focused = 0
	}
}

// Resize resizes a viewport's surface. The context must be current against
// the surface for the platform resize call.
func (r *Registry) Resize(id ui.ID, width, height int) {
	rec, ok := r.viewports[id]
	if !ok || rec.Surface == nil {
		return
	}
	if err := r.cell.Rebind(rec.Surface); err != nil {
		r.logger.Error("rebind for resize failed", "viewport", id, "error", err)
		return
	}
	rec.Surface.Resize(width, height)
	rec.Info.InnerSize = [2]int{width, height}
}

// Suspend drops every record's surface, window and adapter and releases the
// context. Records themselves survive so resume can rebuild them from their
// requested attributes.
func (r *Registry) Suspend() {
	r.logger.Debug("dropping all windows and surfaces for suspend")
	for _, id := range r.IDs() {
		r.dropSurfaceAndWindow(r.viewports[id])
	}
	r.cell.ReleaseForSuspend()
}

// UpdateInfo refreshes a record's observed window state.
func (r *Registry) UpdateInfo(rec *Record) { r.updateInfo(rec, false) }

func (r *Registry) updateInfo(rec *Record, firstTime bool) {
	win := rec.Window
	if win == nil {
		return
	}
	w, h := win.InnerSize()
	x, y := win.OuterPosition()
	mw, mh := win.MonitorSize()
	rec.Info.InnerSize = [2]int{w, h}
	rec.Info.OuterPos = [2]int{x, y}
	rec.Info.MonitorSize = [2]int{mw, mh}
	rec.Info.Scale = win.Scale()
	rec.Info.Minimized = boolPtr(win.Minimized())
	rec.Info.Maximized = boolPtr(win.Maximized())
	rec.Info.Fullscreen = boolPtr(win.Fullscreen())
	rec.Info.Focused = boolPtr(win.Focused())
	if firstTime && rec.Attributes.Title != nil {
		rec.Info.Title = *rec.Attributes.Title
	}
}

// dropSurfaceAndWindow releases a record's surface then its window (and the
// adapter bound to it), keeping surface => window along the way.
func (r *Registry) dropSurfaceAndWindow(rec *Record) {
	if rec.Surface != nil {
		r.cell.ReleaseSurface(rec.Surface)
		rec.Surface = nil
	}
	r.dropWindow(rec)
	rec.Presented = false
}

func (r *Registry) dropWindow(rec *Record) {
	if rec.Window == nil {
		rec.Adapter = nil
		return
	}
	wid := rec.Window.ID()
	delete(r.viewportFromWindow, wid)
	delete(r.windowFromViewport, rec.ID)
	rec.Window.Destroy()
	rec.Window = nil
	rec.Adapter = nil
}

func boolPtr(b bool) *bool { return &b }
