package modifier

import (
	"time"

	"github.com/benbjohnson/clock"
)

type throttleModifier[T any] struct {
	clock    clock.Clock
	interval time.Duration
	last     time.Time
	fired    bool
}

func (m *throttleModifier[T]) Process(msg T, notify func(T)) {
	now := m.clock.Now()
	if m.fired && now.Sub(m.last) < m.interval {
		return
	}
	m.last, m.fired = now, true
	notify(msg)
}

// Throttle is a leading-edge rate limiter: the first message passes and every
// later one passes only if at least 1/maxRate seconds went by since the last
// message that passed. A non-positive maxRate lets everything through.
func Throttle[T any](clk clock.Clock, maxRate float64) Modifier[T, T] {
	var interval time.Duration
	if maxRate > 0 {
		interval = time.Duration(float64(time.Second) / maxRate)
	}
	return ThrottleInterval[T](clk, interval)
}

// ThrottleInterval is Throttle expressed as the minimum gap between passes.
func ThrottleInterval[T any](clk clock.Clock, interval time.Duration) Modifier[T, T] {
	if clk == nil {
		clk = clock.New()
	}
	return &throttleModifier[T]{clock: clk, interval: interval}
}
