package dispatch

// Context decides where and when a callback runs. Implementations keep FIFO
// order for callbacks handed to the same context.
type Context interface {
	Invoke(fn func())
}

// ContextFunc adapts a plain function to a Context.
type ContextFunc func(fn func())

func (f ContextFunc) Invoke(fn func()) {
	f(fn)
}

type immediate struct{}

func (immediate) Invoke(fn func()) {
	fn()
}

// Immediate runs every callback synchronously on the caller's goroutine.
var Immediate Context = immediate{}

type background struct{}

func (background) Invoke(fn func()) {
	go fn()
}

// Background runs every callback on a fresh goroutine. Callbacks handed to
// Background have no ordering relative to each other.
var Background Context = background{}

// Scheduler is the host facility the queue-bound contexts need: run a callback
// later on a serial queue, and tell whether the caller is already on it.
type Scheduler interface {
	Post(fn func())
	IsCurrent() bool
}

type onQueue struct {
	s Scheduler
}

func (c onQueue) Invoke(fn func()) {
	c.s.Post(fn)
}

// OnQueue always posts onto s, even when the caller is already running there.
func OnQueue(s Scheduler) Context {
	return onQueue{s: s}
}

type deferTo struct {
	s Scheduler
}

func (c deferTo) Invoke(fn func()) {
	if c.s.IsCurrent() {
		fn()
		return
	}
	c.s.Post(fn)
}

// DeferTo runs callbacks synchronously when the caller is already on s and
// posts them to s otherwise. This is the "main thread ASAP" policy with the
// main thread made explicit.
func DeferTo(s Scheduler) Context {
	return deferTo{s: s}
}
