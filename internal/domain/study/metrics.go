package study

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts searches by outcome and records result sizes.
type Metrics struct {
	searches *prometheus.CounterVec
	results  prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		searches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ctweb",
			Name:      "searches_total",
			Help:      "Study searches by outcome (empty, ok, error).",
		}, []string{"outcome"}),
		results: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ctweb",
			Name:      "search_result_count",
			Help:      "Number of studies matched per search.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
	}
}

func (m *Metrics) observe(outcome string, count int) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		m.results.Observe(float64(count))
	}
}
