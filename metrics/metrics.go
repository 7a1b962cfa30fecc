// Package metrics exposes Prometheus counters for signal traffic. A nil
// *Metrics is valid everywhere and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "relay").
	Namespace string

	// Subsystem is the metrics subsystem (default: "signals").
	Subsystem string

	// ConstLabels are added to every collector.
	ConstLabels prometheus.Labels

	// Registry receives the collectors. Nil skips registration.
	Registry prometheus.Registerer
}

// Option configures Config.
type Option func(*Config)

func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the registerer the collectors are added to.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "relay",
		Subsystem: "signals",
	}
}

// Metrics counts what flows through registries and stages.
type Metrics struct {
	Sends         prometheus.Counter
	Deliveries    prometheus.Counter
	Pruned        prometheus.Counter
	StageDetaches prometheus.Counter
}

// New builds the collectors and registers them when a registry is given.
func New(opts ...Option) (*Metrics, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: cfg.ConstLabels,
		})
	}

	m := &Metrics{
		Sends:         counter("sends_total", "Messages sent into a registry."),
		Deliveries:    counter("deliveries_total", "Messages handed to a live subscriber."),
		Pruned:        counter("pruned_total", "Dead subscribers removed from a registry."),
		StageDetaches: counter("stage_detaches_total", "Pipeline stages detached from their upstream."),
	}

	if cfg.Registry != nil {
		for _, c := range []prometheus.Collector{m.Sends, m.Deliveries, m.Pruned, m.StageDetaches} {
			if err := cfg.Registry.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) Sent() {
	if m != nil {
		m.Sends.Inc()
	}
}

func (m *Metrics) Delivered(n int) {
	if m != nil && n > 0 {
		m.Deliveries.Add(float64(n))
	}
}

func (m *Metrics) Prune(n int) {
	if m != nil && n > 0 {
		m.Pruned.Add(float64(n))
	}
}

func (m *Metrics) Detached() {
	if m != nil {
		m.StageDetaches.Inc()
	}
}
