package submissions

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var submissionCreatedCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vernis_submissions_created",
	Help: "Number of submissions created, by initial status",
}, []string{"status"})

var submissionReviewedCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vernis_submissions_reviewed",
	Help: "Number of terminal lifecycle transitions, by outcome",
}, []string{"outcome"})
