package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bimakw/wallet-aggregator/internal/domain/entities"
)

const outcomeSuccess = "success"

var (
	sourceRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_source_requests_total",
			Help: "Source adapter calls by outcome",
		},
		[]string{"source", "outcome"},
	)

	sourceRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wallet_source_request_duration_seconds",
			Help:    "Source adapter call duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"source"},
	)

	degradedDomainsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_degraded_domains_total",
			Help: "Domains published with a surfaced error",
		},
		[]string{"domain", "kind"},
	)

	staleResultsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wallet_stale_results_total",
			Help: "Aggregation results discarded because a newer query started",
		},
	)
)

func observeSource(source string, err error, latency time.Duration) {
	outcome := outcomeSuccess
	if err != nil {
		outcome = string(entities.KindOf(err))
	}
	sourceRequestsTotal.WithLabelValues(source, outcome).Inc()
	sourceRequestDuration.WithLabelValues(source).Observe(latency.Seconds())
}

func observeDomains(domains map[entities.Domain]entities.DomainState) {
	for domain, state := range domains {
		if state.Error != nil {
			degradedDomainsTotal.WithLabelValues(string(domain), string(state.Error.Kind)).Inc()
		}
	}
}
