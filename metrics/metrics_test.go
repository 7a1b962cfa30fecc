package metrics_test

import (
	"testing"

	"github.com/delaneyj/relay/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.Sent()
		m.Delivered(3)
		m.Prune(1)
		m.Detached()
	})
}

func TestCountersAreRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(metrics.WithRegistry(reg), metrics.WithNamespace("test"))
	require.NoError(t, err)

	m.Sent()
	m.Sent()
	m.Delivered(5)
	m.Delivered(0)
	m.Prune(2)
	m.Detached()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Sends))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.Deliveries))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Pruned))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StageDetaches))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "test_signals_sends_total")
	assert.Contains(t, names, "test_signals_stage_detaches_total")
}

func TestDuplicateRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := metrics.New(metrics.WithRegistry(reg))
	require.NoError(t, err)
	_, err = metrics.New(metrics.WithRegistry(reg))
	assert.Error(t, err)
}
