package signals

import (
	"sync"

	"github.com/delaneyj/relay/dispatch"
)

// Property holds a value and announces every write through DidSet. New
// subscribers get the current value first.
//
// Writes and change deliveries share one serializer, so subscribers see
// values in write order. Reads only take the value lock and may happen from
// inside a callback.
type Property[T any] struct {
	mu    sync.RWMutex
	value T

	ser   *dispatch.Serializer
	event *Event[T]
	opts  *options
}

func NewProperty[T any](value T, opts ...Option) *Property[T] {
	o := buildOptions(opts)
	ser := newSerializer()
	p := &Property[T]{
		value: value,
		ser:   ser,
		event: newEvent[T](o, ser),
		opts:  o,
	}
	p.event.Send(value)
	return p
}

func (p *Property[T]) Get() T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// Set stores v and announces it.
func (p *Property[T]) Set(v T) {
	p.mu.Lock()
	p.value = v
	drain := p.ser.Enqueue(func() {
		p.event.deliver(v)
	})
	p.mu.Unlock()

	if drain {
		p.ser.Drain()
	}
}

// Update replaces the value with fn(current) and announces it. fn runs under
// the value lock and must not call back into the property.
func (p *Property[T]) Update(fn func(T) T) T {
	p.mu.Lock()
	v := fn(p.value)
	p.value = v
	drain := p.ser.Enqueue(func() {
		p.event.deliver(v)
	})
	p.mu.Unlock()

	if drain {
		p.ser.Drain()
	}
	return v
}

// DidSet starts a chain at the change stream.
func (p *Property[T]) DidSet() *Chain[T] {
	return &Chain[T]{source: p.event, opts: p.opts}
}

func (p *Property[T]) SubscriberCount() int {
	return p.event.SubscriberCount()
}

// Close unsubscribes everything listening to DidSet.
func (p *Property[T]) Close() {
	p.event.UnsubscribeAll()
}

func newSerializer() *dispatch.Serializer {
	return &dispatch.Serializer{}
}
