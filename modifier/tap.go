package modifier

import "github.com/delaneyj/relay/lifetime"

type tapModifier[T any] struct {
	fn   func(T)
	recv lifetime.Receiver
}

func (m *tapModifier[T]) Process(msg T, notify func(T)) {
	if m.recv == nil || m.recv.Alive() {
		m.fn(msg)
	}
	notify(msg)
}

// Tap runs fn for its side effect and passes the message on unchanged.
func Tap[T any](fn func(T)) Modifier[T, T] {
	return &tapModifier[T]{fn: fn}
}

// TapWith is Tap bound to a receiver: fn stops running once recv is dead,
// while messages keep flowing.
func TapWith[T any](recv lifetime.Receiver, fn func(T)) Modifier[T, T] {
	return &tapModifier[T]{fn: fn, recv: recv}
}
