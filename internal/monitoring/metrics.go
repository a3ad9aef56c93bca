package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts flagging passes. A nil *Metrics is valid and records nothing.
type Metrics struct {
	passes       *prometheus.CounterVec
	flagged      *prometheus.CounterVec
	passDuration *prometheus.HistogramVec
}

// NewMetrics creates the pass metrics and registers them on reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rfiflag_passes_total",
			Help: "SumThreshold passes executed, by tier and direction.",
		}, []string{"tier", "direction"}),
		flagged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rfiflag_flagged_samples_total",
			Help: "Samples newly flagged by SumThreshold passes, by direction.",
		}, []string{"direction"}),
		passDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rfiflag_pass_duration_seconds",
			Help:    "Duration of a single SumThreshold pass.",
			Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
		}, []string{"tier", "direction"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.passes, m.flagged, m.passDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObservePass records one completed pass.
func (m *Metrics) ObservePass(tier, direction string, newlyFlagged int, d time.Duration) {
	if m == nil {
		return
	}
	m.passes.WithLabelValues(tier, direction).Inc()
	m.flagged.WithLabelValues(direction).Add(float64(newlyFlagged))
	m.passDuration.WithLabelValues(tier, direction).Observe(d.Seconds())
}
