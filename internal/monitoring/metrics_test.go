package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsObservePass(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	m.ObservePass("lanes8", "horizontal", 12, 3*time.Millisecond)
	m.ObservePass("lanes8", "horizontal", 0, time.Millisecond)
	m.ObservePass("reference", "vertical", 5, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.passes.WithLabelValues("lanes8", "horizontal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.passes.WithLabelValues("reference", "vertical")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.flagged.WithLabelValues("horizontal")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.flagged.WithLabelValues("vertical")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.passDuration))
}

func TestMetricsDoubleRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)
	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestNilMetrics(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() { m.ObservePass("reference", "vertical", 1, time.Second) })

	unregistered, err := NewMetrics(nil)
	require.NoError(t, err)
	unregistered.ObservePass("reference", "vertical", 1, time.Second)
}
