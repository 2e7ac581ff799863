// Package metrics records query measurements with Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements engine.Recorder using Prometheus.
type Recorder struct {
	queries  *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	degraded *prometheus.CounterVec
}

// New registers the collectors on reg. Passing prometheus.DefaultRegisterer
// exposes them on the default /metrics handler.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		queries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketreport_queries_total",
				Help: "Total number of market queries by outcome",
			},
			[]string{"outcome"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketreport_query_duration_seconds",
				Help:    "Duration of market queries in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"outcome"},
		),
		degraded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketreport_fetch_degraded_total",
				Help: "Optional fetches that failed and were left out of a report",
			},
			[]string{"part"},
		),
	}
}

// ObserveQuery records one finished query.
func (r *Recorder) ObserveQuery(outcome string, elapsed time.Duration) {
	r.queries.WithLabelValues(outcome).Inc()
	r.latency.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// FetchDegraded records a history or news fetch that fell back to absent.
func (r *Recorder) FetchDegraded(part string) {
	r.degraded.WithLabelValues(part).Inc()
}
