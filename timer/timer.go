// Package timer turns clock timers into signals: a Timer fires its Fired
// chain once after a delay, or periodically.
package timer

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/delaneyj/relay/signals"
	"go.uber.org/zap"
)

type config struct {
	clock      clock.Clock
	logger     *zap.Logger
	signalOpts []signals.Option
}

type Option func(*config)

// WithClock sets the clock that drives the timer. Defaults to the wall clock.
func WithClock(clk clock.Clock) Option {
	return func(c *config) {
		c.clock = clk
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithSignalOptions configures the signal behind Fired.
func WithSignalOptions(opts ...signals.Option) Option {
	return func(c *config) {
		c.signalOpts = append(c.signalOpts, opts...)
	}
}

// Timer fires its signal after a delay, once or repeatedly.
type Timer struct {
	signal  *signals.Signal[struct{}]
	clock   clock.Clock
	logger  *zap.Logger
	repeats bool

	mu     sync.Mutex
	gen    uint64
	timer  *clock.Timer
	ticker *clock.Ticker
	stop   chan struct{}
}

func New(repeats bool, opts ...Option) *Timer {
	cfg := &config{
		clock:  clock.New(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Timer{
		signal:  signals.New[struct{}](append([]signals.Option{signals.WithClock(cfg.clock)}, cfg.signalOpts...)...),
		clock:   cfg.clock,
		logger:  cfg.logger,
		repeats: repeats,
	}
}

// Fired starts a chain at the timer's signal.
func (t *Timer) Fired() *signals.Chain[struct{}] {
	return t.signal.Fired()
}

// FireAfter arms the timer, cancelling whatever was pending. A repeating
// timer keeps firing every interval until disabled.
func (t *Timer) FireAfter(interval time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.disableLocked()
	t.gen++
	gen := t.gen
	t.logger.Debug("timer armed",
		zap.Duration("interval", interval),
		zap.Bool("repeats", t.repeats),
	)

	if !t.repeats {
		t.timer = t.clock.AfterFunc(interval, func() {
			if t.current(gen) {
				t.signal.Fire(struct{}{})
			}
		})
		return
	}

	ticker := t.clock.Ticker(interval)
	stop := make(chan struct{})
	t.ticker, t.stop = ticker, stop
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if !t.current(gen) {
					return
				}
				t.signal.Fire(struct{}{})
			}
		}
	}()
}

func (t *Timer) current(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen == gen
}

// Disable cancels the pending fire. A fire already handed to the signal is
// not taken back.
func (t *Timer) Disable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disableLocked()
	t.gen++
}

func (t *Timer) disableLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	if t.ticker != nil {
		t.ticker.Stop()
		close(t.stop)
		t.ticker, t.stop = nil, nil
		t.logger.Debug("timer disabled")
	}
}

// Close disables the timer and unsubscribes everything from Fired.
func (t *Timer) Close() {
	t.Disable()
	t.signal.Close()
}
