package modifier

type distinctModifier[T any] struct {
	equal   func(a, b T) bool
	last    T
	hasLast bool
}

func (m *distinctModifier[T]) Process(msg T, notify func(T)) {
	if m.hasLast && m.equal(m.last, msg) {
		return
	}
	m.last, m.hasLast = msg, true
	notify(msg)
}

// Distinct collapses runs of equal consecutive messages into the first one.
// A value that comes back after a different one passes again.
func Distinct[T comparable]() Modifier[T, T] {
	return DistinctFunc(func(a, b T) bool {
		return a == b
	})
}

// DistinctFunc is Distinct with a caller supplied equality.
func DistinctFunc[T any](equal func(a, b T) bool) Modifier[T, T] {
	return &distinctModifier[T]{equal: equal}
}
