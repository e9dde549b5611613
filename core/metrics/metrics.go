package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors the matching pipeline reports to.
type Metrics struct {
	MatchDuration  *prometheus.HistogramVec
	SlotsReturned  *prometheus.HistogramVec
	FetchFailures  *prometheus.CounterVec
	PatternLookups *prometheus.CounterVec
}

// New builds the collectors and registers them on reg. A nil reg skips registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "smartschedule",
			Name:      "match_duration_seconds",
			Help:      "Time spent resolving a matching request, fetches included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		SlotsReturned: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "smartschedule",
			Name:      "slots_returned",
			Help:      "Number of ranked slots returned per request.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20},
		}, []string{"operation"}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smartschedule",
			Name:      "source_fetch_failures_total",
			Help:      "Participant calendar fetches that fell back to the default pattern.",
		}, []string{"source"}),
		PatternLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smartschedule",
			Name:      "pattern_cache_lookups_total",
			Help:      "Working-hours analysis cache lookups by result.",
		}, []string{"result"}),
	}

	if reg != nil {
		reg.MustRegister(m.MatchDuration, m.SlotsReturned, m.FetchFailures, m.PatternLookups)
	}
	return m
}

// NewNop returns unregistered collectors, handy in tests.
func NewNop() *Metrics {
	return New(nil)
}
