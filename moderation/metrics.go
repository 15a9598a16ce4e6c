package moderation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var evaluateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "vernis_moderation_evaluate_duration_sec",
	Help: "Total duration of moderation evaluations",
})

var verdictCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vernis_moderation_verdicts",
	Help: "Number of completed moderation verdicts, by outcome",
}, []string{"outcome"})

var mediaAnalyzedCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "vernis_moderation_media_analyzed",
	Help: "Number of media items analyzed",
})

var safetyFailCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vernis_moderation_safety_failures",
	Help: "Number of safe-search degradations, by policy applied",
}, []string{"policy"})

var relevanceFailCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "vernis_moderation_relevance_failures",
	Help: "Number of label-detection degradations (always fail-open)",
})

var costRecordErrorCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "vernis_moderation_cost_record_errors",
	Help: "Number of failed cost ledger writes (evaluation continued)",
})
