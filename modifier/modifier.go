// Package modifier holds the single-input transforms that pipeline stages
// apply between an upstream observable and their own subscribers.
//
// A modifier receives one message at a time and reports its output through
// notify, zero or more times per input. Modifiers keep state and are not safe
// for concurrent Process calls; the stage that owns one serializes them.
package modifier

// Modifier transforms a stream of In messages into a stream of Out messages.
type Modifier[In, Out any] interface {
	Process(msg In, notify func(Out))
}

// Func adapts a function to a Modifier.
type Func[In, Out any] func(msg In, notify func(Out))

func (f Func[In, Out]) Process(msg In, notify func(Out)) {
	f(msg, notify)
}

type mapModifier[In, Out any] struct {
	transform func(In) Out
}

func (m *mapModifier[In, Out]) Process(msg In, notify func(Out)) {
	notify(m.transform(msg))
}

// Map passes every message through transform.
func Map[In, Out any](transform func(In) Out) Modifier[In, Out] {
	return &mapModifier[In, Out]{transform: transform}
}

type filterModifier[T any] struct {
	predicate func(T) bool
}

func (m *filterModifier[T]) Process(msg T, notify func(T)) {
	if m.predicate(msg) {
		notify(msg)
	}
}

// Filter passes the messages predicate accepts.
func Filter[T any](predicate func(T) bool) Modifier[T, T] {
	return &filterModifier[T]{predicate: predicate}
}

type discardModifier[T any] struct {
	remaining int
}

func (m *discardModifier[T]) Process(msg T, notify func(T)) {
	if m.remaining > 0 {
		m.remaining--
		return
	}
	notify(msg)
}

// Discard swallows the first n messages and passes the rest. The count never
// resets.
func Discard[T any](n int) Modifier[T, T] {
	return &discardModifier[T]{remaining: n}
}
