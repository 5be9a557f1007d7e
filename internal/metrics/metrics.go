package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	resolveTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mge_booking",
			Name:      "availability_resolve_total",
			Help:      "Count of availability resolves by outcome.",
		},
		[]string{"outcome"},
	)

	remoteFetchErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mge_booking",
			Name:      "remote_fetch_errors_total",
			Help:      "Count of failed available-times fetches from the backend.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mge_booking",
			Name:      "http_requests_total",
			Help:      "Count of HTTP API requests by handler.",
		},
		[]string{"handler"},
	)

	staleResultsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mge_booking",
			Name:      "stale_results_dropped_total",
			Help:      "Count of resolve results discarded because the selection changed.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(resolveTotal, remoteFetchErrors, httpRequests, staleResultsDropped)
	})
}

// Resolve outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeFallback    = "fallback"
	OutcomeNoSelection = "no_selection"
)

func IncResolve(outcome string) {
	resolveTotal.WithLabelValues(outcome).Inc()
}

func IncRemoteFetchError() {
	remoteFetchErrors.Inc()
}

func IncHTTP(handler string) {
	httpRequests.WithLabelValues(handler).Inc()
}

func IncStaleResultDropped() {
	staleResultsDropped.Inc()
}
