package signals

import (
	"sync/atomic"

	"github.com/delaneyj/relay/dispatch"
	"github.com/delaneyj/relay/lifetime"
)

// Slot is one subscription record: a callback, the context it runs on and the
// receiver whose lifetime bounds it. The receiver is only observed, never
// owned. Slots are compared by identity.
type Slot[T any] struct {
	ctx         dispatch.Context
	recv        lifetime.Receiver
	fn          func(T)
	invalidated atomic.Bool

	// unsubscribed runs when a registry removes the slot on request; stage
	// forwarders use it to learn that their upstream let go of them.
	unsubscribed func()

	// keep pins the slot's owner for as long as a registry holds the slot.
	keep atomic.Pointer[anchor]
}

type anchor struct {
	v any
}

// NewSlot binds fn to recv and ctx. A nil ctx means dispatch.Immediate and a
// nil recv means lifetime.Forever.
func NewSlot[T any](ctx dispatch.Context, recv lifetime.Receiver, fn func(T)) *Slot[T] {
	if ctx == nil {
		ctx = dispatch.Immediate
	}
	if recv == nil {
		recv = lifetime.Forever
	}
	return &Slot[T]{ctx: ctx, recv: recv, fn: fn}
}

// Valid reports whether the slot still delivers.
func (s *Slot[T]) Valid() bool {
	return !s.invalidated.Load() && s.recv.Alive()
}

// Invoke schedules the callback with msg on the slot's context. A dead slot
// drops msg silently. Validity is checked here, not when the callback runs.
func (s *Slot[T]) Invoke(msg T) bool {
	if !s.Valid() {
		return false
	}
	s.ctx.Invoke(func() {
		s.fn(msg)
	})
	return true
}

// Invalidate switches the slot off regardless of its receiver. Registries
// drop it on their next pass.
func (s *Slot[T]) Invalidate() {
	s.invalidated.Store(true)
}

func (s *Slot[T]) notifyUnsubscribed() {
	if s.unsubscribed != nil {
		s.unsubscribed()
	}
}
