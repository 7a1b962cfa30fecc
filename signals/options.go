package signals

import (
	"github.com/benbjohnson/clock"
	"github.com/delaneyj/relay/dispatch"
	"github.com/delaneyj/relay/metrics"
	"go.uber.org/zap"
)

// Option configures a Signal, Property, Event or Stage. Chains derived from
// them inherit the same settings.
type Option func(*options)

type options struct {
	name    string
	ctx     dispatch.Context
	modCtx  dispatch.Context
	clock   clock.Clock
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func defaultOptions() *options {
	return &options{
		ctx:    dispatch.Immediate,
		clock:  clock.New(),
		logger: zap.NewNop(),
	}
}

func buildOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) clone() *options {
	c := *o
	return &c
}

// modifierContext is where stages run their modifier: the modifier context
// when one was set, the dispatch context otherwise.
func (o *options) modifierContext() dispatch.Context {
	if o.modCtx != nil {
		return o.modCtx
	}
	return o.ctx
}

// WithName labels log entries of everything built from the source.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithContext sets where subscriber callbacks run, and modifier steps too
// unless WithModifierContext says otherwise. Defaults to dispatch.Immediate.
func WithContext(ctx dispatch.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// WithModifierContext sets where stages run their modifiers, apart from
// where subscribers are called.
func WithModifierContext(ctx dispatch.Context) Option {
	return func(o *options) {
		o.modCtx = ctx
	}
}

// WithClock sets the clock used by time based operators.
func WithClock(clk clock.Clock) Option {
	return func(o *options) {
		if clk != nil {
			o.clock = clk
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}
