package cache

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for the cache and git watcher.
type Metrics struct {
	HitsTotal          *prometheus.CounterVec
	MissesTotal        *prometheus.CounterVec
	LoadErrorsTotal    *prometheus.CounterVec
	LoadDuration       *prometheus.HistogramVec
	Entries            prometheus.Gauge
	GitEventsTotal     *prometheus.CounterVec
	InvalidationsTotal prometheus.Counter
}

// NewMetrics registers the cache metrics with the default registry once and
// returns the shared instance.
//
// Metrics:
//   - devflow_cache_hits_total{kind}
//   - devflow_cache_misses_total{kind}
//   - devflow_cache_load_errors_total{kind}
//   - devflow_cache_load_duration_seconds{kind}
//   - devflow_cache_entries
//   - devflow_git_events_total{type}
//   - devflow_cache_invalidations_total
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			HitsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "devflow_cache_hits_total",
					Help: "Total number of cache hits",
				},
				[]string{"kind"},
			),
			MissesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "devflow_cache_misses_total",
					Help: "Total number of cache misses, expired entries included",
				},
				[]string{"kind"},
			),
			LoadErrorsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "devflow_cache_load_errors_total",
					Help: "Total number of failed collector loads",
				},
				[]string{"kind"},
			),
			LoadDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "devflow_cache_load_duration_seconds",
					Help:    "Duration of collector loads in seconds",
					Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
				},
				[]string{"kind"},
			),
			Entries: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "devflow_cache_entries",
					Help: "Current number of cache entries",
				},
			),
			GitEventsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "devflow_git_events_total",
					Help: "Total number of repository changes seen by the watcher",
				},
				[]string{"type"},
			),
			InvalidationsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "devflow_cache_invalidations_total",
					Help: "Total number of entries removed by invalidation",
				},
			),
		}
	})
	return globalMetrics
}

// Methods are nil-safe so a Cache can run without metrics.

func (m *Metrics) hit(kind string) {
	if m != nil {
		m.HitsTotal.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) miss(kind string) {
	if m != nil {
		m.MissesTotal.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) load(kind string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.LoadDuration.WithLabelValues(kind).Observe(d.Seconds())
	if err != nil {
		m.LoadErrorsTotal.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) size(n int) {
	if m != nil {
		m.Entries.Set(float64(n))
	}
}

func (m *Metrics) gitEvent(ev Event, invalidated int) {
	if m == nil {
		return
	}
	m.GitEventsTotal.WithLabelValues(ev.String()).Inc()
	m.InvalidationsTotal.Add(float64(invalidated))
}
