package signals

import (
	"sync/atomic"

	"github.com/delaneyj/relay/dispatch"
	"go.uber.org/zap"
)

// Observable is anything slots can subscribe to.
type Observable[T any] interface {
	Subscribe(s *Slot[T])
	Unsubscribe(s *Slot[T])
	SubscriberCount() int
}

// Event is a thread-safe registry of slots. Subscriptions, removals and
// deliveries all run through one Serializer, so callers on any goroutine
// never interleave list mutation and a callback may subscribe or unsubscribe
// re-entrantly.
//
// Dead slots are pruned lazily, on the next Send or Unsubscribe, so
// SubscriberCount may still count them until then. A Stage also prunes its
// own registry after every message its modifier swallows, so a pipeline
// whose last stage never passes anything still notices dead subscribers.
type Event[T any] struct {
	ser   *dispatch.Serializer
	reg   registry[T]
	count atomic.Int64
	last  atomic.Pointer[T]
	opts  *options

	// emptied runs inside the serializer when the subscriber count drops to
	// zero through Unsubscribe or pruning.
	emptied func()
	// occupied runs inside the serializer when the count rises from zero.
	occupied func()
}

func NewEvent[T any](opts ...Option) *Event[T] {
	return newEvent[T](buildOptions(opts), &dispatch.Serializer{})
}

func newEvent[T any](o *options, ser *dispatch.Serializer) *Event[T] {
	return &Event[T]{
		ser:  ser,
		reg:  newRegistry[T](),
		opts: o,
	}
}

// Subscribe adds s unless it is already subscribed. If the event has sent a
// message before, s gets that message first, ahead of any later one.
//
// When the event is idle, s is registered and the replay handed to its
// context before Subscribe returns. While a delivery is running, on another
// goroutine or further up the caller's own stack, both are queued behind it
// and Subscribe returns at once.
func (e *Event[T]) Subscribe(s *Slot[T]) {
	if s == nil {
		return
	}
	e.ser.Do(func() {
		before := e.reg.len()
		added := e.reg.subscribe(s)
		e.count.Store(int64(e.reg.len()))
		if added && before == 0 && e.occupied != nil {
			e.occupied()
		}
	})
}

// Unsubscribe removes s and runs its unsubscribed hook. Unknown slots are
// ignored.
func (e *Event[T]) Unsubscribe(s *Slot[T]) {
	if s == nil {
		return
	}
	e.ser.Do(func() {
		before := e.reg.len()
		removed, pruned := e.reg.unsubscribe(s)
		e.settle(before, pruned)
		if removed {
			s.notifyUnsubscribed()
		}
	})
}

// Send delivers msg to every live subscriber in subscription order and keeps
// it for replay.
func (e *Event[T]) Send(msg T) {
	e.ser.Do(func() {
		e.deliver(msg)
	})
}

// deliver must run inside the serializer.
func (e *Event[T]) deliver(msg T) {
	e.last.Store(&msg)
	before := e.reg.len()
	delivered, pruned := e.reg.send(msg)
	e.opts.metrics.Sent()
	e.opts.metrics.Delivered(delivered)
	e.settle(before, pruned)
}

// prune drops dead slots without sending anything.
func (e *Event[T]) prune() {
	e.ser.Do(func() {
		before := e.reg.len()
		e.settle(before, e.reg.prune())
	})
}

func (e *Event[T]) settle(before, pruned int) {
	after := e.reg.len()
	e.count.Store(int64(after))
	if pruned > 0 {
		e.opts.metrics.Prune(pruned)
		e.opts.logger.Debug("pruned dead subscribers",
			zap.String("signal", e.opts.name),
			zap.Int("pruned", pruned),
			zap.Int("remaining", after),
		)
	}
	if before > 0 && after == 0 && e.emptied != nil {
		e.emptied()
	}
}

// UnsubscribeAll runs every slot's unsubscribed hook and empties the
// registry. The last message is kept.
func (e *Event[T]) UnsubscribeAll() {
	e.ser.Do(func() {
		slots := e.reg.removeAll()
		e.count.Store(0)
		for _, s := range slots {
			s.notifyUnsubscribed()
		}
	})
}

// SubscriberCount is the registry length, dead slots not yet pruned included.
func (e *Event[T]) SubscriberCount() int {
	return int(e.count.Load())
}

// Last returns the most recently sent message.
func (e *Event[T]) Last() (T, bool) {
	if p := e.last.Load(); p != nil {
		return *p, true
	}
	var zero T
	return zero, false
}
