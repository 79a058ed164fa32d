// Package services – Prometheus domain metrics
//
// HTTP-level metrics live in the middleware package; the collectors here
// track the gateway's domain events: code issuance, verification outcomes,
// agent routing, and upstream token spend. Label sets are kept small and
// closed (outcome names, agent ids) to bound cardinality.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// codesIssued counts verification codes generated (delivery outcome is a
	// label so fallback rates are visible on dashboards).
	codesIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_codes_issued_total",
			Help: "Total number of verification codes issued.",
		},
		[]string{"delivered"},
	)

	// verifications counts verification attempts by outcome
	// (success, mismatch, expired, too_many_attempts, not_found).
	verifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_attempts_total",
			Help: "Total number of code verification attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// agentRequests counts routed chat/chain completions by agent id.
	agentRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_requests_total",
			Help: "Total number of completion requests routed, by agent.",
		},
		[]string{"agent"},
	)

	// completionTokens tracks upstream token usage split by direction.
	completionTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "completion_tokens_total",
			Help: "Total completion API tokens consumed.",
		},
		[]string{"direction"},
	)
)

func init() {
	prometheus.MustRegister(codesIssued, verifications, agentRequests, completionTokens)
}
