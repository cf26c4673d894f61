package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StatusTransitions counts domain status transitions by event and target
	StatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domain_status_transitions_total",
			Help: "Domain status transitions by event type and resulting status",
		},
		[]string{"event", "status"},
	)

	// StaleTransitions counts transitions skipped because the domain moved
	// concurrently
	StaleTransitions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "domain_stale_transitions_total",
			Help: "Status transitions skipped due to concurrent updates",
		},
	)

	// VerificationChecks counts ownership verification attempts by outcome
	VerificationChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domain_verification_checks_total",
			Help: "Ownership verification checks by outcome",
		},
		[]string{"outcome"},
	)

	// ProviderCalls counts hosting provider API calls by operation and result
	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hosting_provider_calls_total",
			Help: "Hosting provider API calls by operation and result",
		},
		[]string{"operation", "result"},
	)
)
