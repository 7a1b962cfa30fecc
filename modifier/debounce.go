package modifier

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

type debounceModifier[T any] struct {
	clock   clock.Clock
	timeout time.Duration

	mu    sync.Mutex
	timer *clock.Timer
	gen   uint64
}

func (m *debounceModifier[T]) Process(msg T, notify func(T)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.timer != nil {
		m.timer.Stop()
	}
	m.gen++
	gen := m.gen
	m.timer = m.clock.AfterFunc(m.timeout, func() {
		m.mu.Lock()
		// a newer message may have re-armed the timer after this one fired
		current := gen == m.gen
		if current {
			m.timer = nil
		}
		m.mu.Unlock()

		if current {
			notify(msg)
		}
	})
}

// Debounce is trailing-edge only: every message restarts a timeout and the
// last message is passed on once the stream stayed quiet for that long.
// Delivery happens on the clock's timer goroutine.
func Debounce[T any](clk clock.Clock, timeout time.Duration) Modifier[T, T] {
	if clk == nil {
		clk = clock.New()
	}
	return &debounceModifier[T]{clock: clk, timeout: timeout}
}
