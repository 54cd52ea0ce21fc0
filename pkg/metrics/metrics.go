package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "payu_links"

// Outcome labels shared by the counters below.
const (
	OutcomeOK           = "ok"
	OutcomeError        = "error"
	OutcomeUnauthorized = "unauthorized"
	OutcomeIgnored      = "ignored"
	OutcomeNotYet       = "not_yet_available"
)

var (
	ProviderCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_calls_total",
		Help:      "PayU API calls by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	ProviderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "provider_call_seconds",
		Help:      "PayU API call latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})

	TokenLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_lookups_total",
		Help:      "Access token lookups served from cache or fetched.",
	}, []string{"source"})

	WebhookDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_deliveries_total",
		Help:      "Inbound PayU webhook deliveries by outcome.",
	}, []string{"outcome"})

	Polls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "status_polls_total",
		Help:      "Status polls by outcome.",
	}, []string{"outcome"})

	LinksCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "links_created_total",
		Help:      "Payment links created by currency.",
	}, []string{"currency"})

	LinksExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "links_expired_total",
		Help:      "Links flipped to expired by the expiry job.",
	})
)

// ObserveProviderCall records one PayU call.
func ObserveProviderCall(endpoint, outcome string, seconds float64) {
	ProviderCalls.WithLabelValues(endpoint, outcome).Inc()
	ProviderLatency.WithLabelValues(endpoint).Observe(seconds)
}
