package signals

// Signal is a producer handle: whatever is fired goes to every subscriber of
// Fired, and the last fired message is replayed to late subscribers.
type Signal[T any] struct {
	event *Event[T]
	opts  *options
}

func New[T any](opts ...Option) *Signal[T] {
	o := buildOptions(opts)
	return &Signal[T]{
		event: newEvent[T](o, newSerializer()),
		opts:  o,
	}
}

// Fire sends msg. It never waits for subscribers running on other contexts.
func (s *Signal[T]) Fire(msg T) {
	s.event.Send(msg)
}

// Fired starts a chain at the signal.
func (s *Signal[T]) Fired() *Chain[T] {
	return &Chain[T]{source: s.event, opts: s.opts}
}

func (s *Signal[T]) SubscriberCount() int {
	return s.event.SubscriberCount()
}

// Close unsubscribes everything, which detaches every stage built on the
// signal.
func (s *Signal[T]) Close() {
	s.event.UnsubscribeAll()
}
