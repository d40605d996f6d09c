package control

import (
	"sync/atomic"

	"github.com/cwbudde/enginesound/engine"
	"github.com/cwbudde/enginesound/preset"
)

// Handle is a lock-free, swappable reference to the live *engine.Engine,
// mirroring the teacher's atomic.Pointer[SoundChip] player handle: the
// audio callback goroutine calls Load once per buffer and never blocks,
// while a background rebuild goroutine constructs a replacement engine
// off-thread and publishes it with a single atomic store.
type Handle struct {
	ptr atomic.Pointer[engine.Engine]
}

// NewHandle wraps an already-built engine.
func NewHandle(e *engine.Engine) *Handle {
	h := &Handle{}
	h.ptr.Store(e)
	return h
}

// Load returns the current live engine. Safe to call from any
// goroutine; never returns nil once constructed via NewHandle.
func (h *Handle) Load() *engine.Engine {
	return h.ptr.Load()
}

// Rebuild constructs a new engine from record and publishes it
// atomically if construction succeeds. The previously-live engine
// keeps running (and may still be referenced by an in-flight Load)
// until the caller's next Load picks up the replacement; on failure
// the live engine is left untouched and the ConfigInvalid error is
// returned to the caller.
func (h *Handle) Rebuild(record preset.Engine) error {
	next, err := engine.NewEngine(record)
	if err != nil {
		return err
	}
	h.ptr.Store(next)
	return nil
}
