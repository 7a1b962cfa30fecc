package signals

import (
	"time"

	"github.com/delaneyj/relay/dispatch"
	"github.com/delaneyj/relay/lifetime"
	"github.com/delaneyj/relay/modifier"
)

// Chain is the end of a pipeline under construction: an observable plus the
// settings new stages and subscriptions inherit. Every operator attaches a
// new stage and returns the chain ending at it.
type Chain[T any] struct {
	source Observable[T]
	opts   *options
}

// From starts a chain at any observable.
func From[T any](source Observable[T], opts ...Option) *Chain[T] {
	return &Chain[T]{source: source, opts: buildOptions(opts)}
}

// Observable returns the observable the chain currently ends at.
func (c *Chain[T]) Observable() Observable[T] {
	return c.source
}

func (c *Chain[T]) SubscriberCount() int {
	return c.source.SubscriberCount()
}

// Apply attaches a stage running mod and returns the chain ending at it. mod
// may notify any number of times per message.
func Apply[T, U any](c *Chain[T], mod modifier.Modifier[T, U]) *Chain[U] {
	return &Chain[U]{
		source: newStage(c.source, mod, c.opts),
		opts:   c.opts,
	}
}

func Map[T, U any](c *Chain[T], transform func(T) U) *Chain[U] {
	return Apply(c, modifier.Map(transform))
}

// Distinct drops messages equal to the one before them.
func Distinct[T comparable](c *Chain[T]) *Chain[T] {
	return Apply(c, modifier.Distinct[T]())
}

func DistinctFunc[T any](c *Chain[T], equal func(a, b T) bool) *Chain[T] {
	return Apply(c, modifier.DistinctFunc(equal))
}

func (c *Chain[T]) Filter(predicate func(T) bool) *Chain[T] {
	return Apply(c, modifier.Filter(predicate))
}

// Discard swallows the first n messages.
func (c *Chain[T]) Discard(n int) *Chain[T] {
	return Apply(c, modifier.Discard[T](n))
}

// Throttle passes at most maxRate messages per second, leading edge first.
func (c *Chain[T]) Throttle(maxRate float64) *Chain[T] {
	return Apply(c, modifier.Throttle[T](c.opts.clock, maxRate))
}

// Debounce passes the last message of every burst once timeout went by
// without a newer one.
func (c *Chain[T]) Debounce(timeout time.Duration) *Chain[T] {
	return Apply(c, modifier.Debounce[T](c.opts.clock, timeout))
}

// Then runs fn for every message and keeps the pipeline going with the same
// message.
func (c *Chain[T]) Then(fn func(T)) *Chain[T] {
	return Apply(c, modifier.Tap(fn))
}

// ThenWith is Then bound to recv: fn is skipped once recv is dead.
func (c *Chain[T]) ThenWith(recv lifetime.Receiver, fn func(T)) *Chain[T] {
	return Apply(c, modifier.TapWith(recv, fn))
}

// Dispatch makes later subscriptions of the chain run on ctx, and later
// stages too unless ModifyOn picked a context for them.
func (c *Chain[T]) Dispatch(ctx dispatch.Context) *Chain[T] {
	o := c.opts.clone()
	WithContext(ctx)(o)
	return &Chain[T]{source: c.source, opts: o}
}

// ModifyOn makes later stages run their modifiers on ctx while subscribers
// keep the dispatch context. A nil ctx ties the two together again.
func (c *Chain[T]) ModifyOn(ctx dispatch.Context) *Chain[T] {
	o := c.opts.clone()
	WithModifierContext(ctx)(o)
	return &Chain[T]{source: c.source, opts: o}
}

// NoDispatch makes later stages and subscriptions run on whatever goroutine
// delivers to them.
func (c *Chain[T]) NoDispatch() *Chain[T] {
	return c.Dispatch(dispatch.Immediate).ModifyOn(nil)
}

// OwnedBy hands the stage the chain ends at to owner, so invalidating owner
// tears the pipeline down. Chains that end at a plain source are unaffected.
func (c *Chain[T]) OwnedBy(owner *lifetime.Container) *Chain[T] {
	if x, ok := c.source.(lifetime.Invalidatable); ok {
		owner.Add(x)
	}
	return c
}

// Subscribe registers fn as a receiver-less subscriber. It lives until the
// returned subscription is invalidated or unsubscribed.
func (c *Chain[T]) Subscribe(fn func(T)) *Subscription {
	return c.SubscribeWith(nil, fn)
}

// SubscribeWith registers fn for as long as recv is alive.
func (c *Chain[T]) SubscribeWith(recv lifetime.Receiver, fn func(T)) *Subscription {
	slot := NewSlot(c.opts.ctx, recv, fn)
	source := c.source
	source.Subscribe(slot)
	return &Subscription{
		slot: slot,
		unsubscribe: func() {
			source.Unsubscribe(slot)
		},
	}
}
