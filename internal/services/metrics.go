package services

import "github.com/prometheus/client_golang/prometheus"

// Submission outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeInvalid  = "invalid"
	OutcomeFailed   = "failed"
	OutcomeReplayed = "replayed"
)

// submissionsTotal counts submit attempts by outcome.
var submissionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "form_submissions_total",
		Help: "Form submissions by outcome.",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(submissionsTotal)
}
