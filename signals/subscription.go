package signals

import "github.com/delaneyj/relay/lifetime"

type slotHandle interface {
	Valid() bool
	Invalidate()
}

// Subscription is the caller's handle on one subscribed slot.
type Subscription struct {
	slot        slotHandle
	unsubscribe func()
}

func (s *Subscription) Valid() bool {
	return s.slot.Valid()
}

// Invalidate stops delivery at once; the registry drops the slot on its next
// pass.
func (s *Subscription) Invalidate() {
	s.slot.Invalidate()
}

// Unsubscribe removes the slot from its registry right away, which lets an
// unobserved pipeline stage detach from its upstream.
func (s *Subscription) Unsubscribe() {
	s.slot.Invalidate()
	s.unsubscribe()
}

// InvalidateWith hands the subscription to c.
func (s *Subscription) InvalidateWith(c *lifetime.Container) *Subscription {
	c.Add(s)
	return s
}
