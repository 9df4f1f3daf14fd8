// internal/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the coordinator's Prometheus instrumentation. A nil *Metrics
// is a working no-op, so the engine runs unchanged without a registry.
type Metrics struct {
	cycles        *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	entityErrors  *prometheus.CounterVec
	available     prometheus.Gauge
	values        *prometheus.GaugeVec
}

// New creates and registers the coordinator metrics.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mapper_poll_cycles_total",
			Help: "Completed poll cycles by result.",
		}, []string{"result"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mapper_poll_cycle_seconds",
			Help:    "Duration of one poll cycle.",
			Buckets: prometheus.DefBuckets,
		}),
		entityErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mapper_entity_read_failures_total",
			Help: "Per-entity read or decode failures.",
		}, []string{"key"}),
		available: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mapper_available",
			Help: "1 while the last poll cycle succeeded.",
		}),
		values: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mapper_entity_value",
			Help: "Last decoded numeric value per entity key.",
		}, []string{"key"}),
	}

	reg.MustRegister(m.cycles, m.cycleDuration, m.entityErrors, m.available, m.values)
	return m
}

// ObserveCycle records one finished poll cycle.
func (m *Metrics) ObserveCycle(d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.cycles.WithLabelValues(result).Inc()
	m.cycleDuration.Observe(d.Seconds())
}

// EntityReadFailure counts an isolated per-entity failure.
func (m *Metrics) EntityReadFailure(key string) {
	if m == nil {
		return
	}
	m.entityErrors.WithLabelValues(key).Inc()
}

// SetAvailable mirrors the coordinator availability flag.
func (m *Metrics) SetAvailable(ok bool) {
	if m == nil {
		return
	}
	v := 0.0
	if ok {
		v = 1.0
	}
	m.available.Set(v)
}

// SetValue exports the latest decoded value of an entity. Booleans map to
// 0/1; null values clear nothing and are simply not exported.
func (m *Metrics) SetValue(key string, v any) {
	if m == nil {
		return
	}
	switch x := v.(type) {
	case bool:
		f := 0.0
		if x {
			f = 1.0
		}
		m.values.WithLabelValues(key).Set(f)
	case int64:
		m.values.WithLabelValues(key).Set(float64(x))
	case float64:
		m.values.WithLabelValues(key).Set(x)
	}
}
