// Package glctx owns the single shared graphics context. The context can be
// current against at most one surface at a time; Cell makes that the only
// representable shape instead of policing a "is current" flag at runtime.
package glctx

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrContextBind means the platform refused to make the context current.
// A context that cannot bind cannot render anything, including error UI, so
// callers treat this as unrecoverable.
var ErrContextBind = errors.New("glctx: context bind failed")

// Surface is a platform drawable the context renders into.
type Surface interface {
	// MakeCurrent binds the shared context to this surface.
	MakeCurrent() error
	// ClearCurrent detaches the context from whatever surface it is bound to.
	ClearCurrent()
	// SwapBuffers presents the surface. Only valid while current.
	SwapBuffers() error
	// Resize adjusts the drawable size in physical pixels.
	Resize(width, height int)
}

// Cell holds the context in exactly one of two states: not bound to any
// surface, or current against exactly one surface. It starts not-current
// and is never duplicated; single render thread, reentrancy-safe by
// construction because every transition completes before callbacks run.
type Cell struct {
	logger  *slog.Logger
	current Surface // non-nil iff the context is current against it
}

func NewCell(logger *slog.Logger) *Cell {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cell{logger: logger}
}

// Current returns the surface the context is bound to, or nil.
func (c *Cell) Current() Surface { return c.current }

// Bind transitions NotCurrent -> Current(s). Calling Bind while current is a
// programming error and escalates, because it would mean two live bindings.
func (c *Cell) Bind(s Surface) error {
	if c.current != nil {
		return fmt.Errorf("%w: already current against another surface", ErrContextBind)
	}
	if err := s.MakeCurrent(); err != nil {
		return fmt.Errorf("%w: %v", ErrContextBind, err)
	}
	c.current = s
	return nil
}

// Rebind makes the context current against s, unbinding first if needed.
// Called before every paint: a UI callback may have reentrantly rebound the
// context elsewhere. Rebinding to the surface already current is a no-op.
func (c *Cell) Rebind(s Surface) error {
	if c.current == s {
		// Early-out to save a platform call; correctness does not depend on
		// this because the transition below is equivalent.
		return nil
	}
	c.Unbind()
	return c.Bind(s)
}

// Unbind transitions Current -> NotCurrent. No-op if already not current.
func (c *Cell) Unbind() {
	if c.current == nil {
		return
	}
	c.current.ClearCurrent()
	c.current = nil
}

// ReleaseSurface unbinds only if the context is current against s. Used when
// a viewport's window is about to be destroyed.
func (c *Cell) ReleaseSurface(s Surface) {
	if c.current == s {
		c.Unbind()
	}
}

// ReleaseForSuspend forces NotCurrent. Only the lifecycle handler calls this.
func (c *Cell) ReleaseForSuspend() {
	if c.current == nil {
		c.logger.Debug("context already not current on suspend")
		return
	}
	c.Unbind()
}

// Present swaps the current surface. Requires a binding; a present with no
// current surface would mean the cell invariant was already violated.
func (c *Cell) Present() error {
	if c.current == nil {
		return fmt.Errorf("%w: present with no current surface", ErrContextBind)
	}
	return c.current.SwapBuffers()
}
