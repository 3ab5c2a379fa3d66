package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// UpstreamRequestsTotal counts venue API requests by endpoint and outcome.
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_upstream_requests_total",
			Help: "Number of upstream venue API requests.",
		},
		[]string{"venue", "endpoint", "status"},
	)

	// UpstreamRequestDuration observes venue API request latency.
	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portfolio_upstream_request_duration_seconds",
			Help:    "Latency of upstream venue API requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"venue", "endpoint"},
	)

	// ValuationRunsTotal counts valuation operations by name and outcome.
	ValuationRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_valuation_runs_total",
			Help: "Number of valuation runs.",
		},
		[]string{"operation", "status"},
	)

	// CoinFetchFailures counts per-coin balance fetches that failed after all
	// alias retries. These are recovered omissions, not run failures.
	CoinFetchFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "portfolio_coin_fetch_failures_total",
			Help: "Number of per-coin balance fetches that failed after alias retries.",
		},
	)
)

// MustRegisterMetrics registers all collectors with the default registry.
// Call once from main.
func MustRegisterMetrics() {
	prometheus.MustRegister(
		UpstreamRequestsTotal,
		UpstreamRequestDuration,
		ValuationRunsTotal,
		CoinFetchFailures,
	)
}

// ObserveUpstream records one upstream request.
func ObserveUpstream(venue, endpoint string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	UpstreamRequestsTotal.WithLabelValues(venue, endpoint, status).Inc()
	UpstreamRequestDuration.WithLabelValues(venue, endpoint).Observe(time.Since(start).Seconds())
}
