package moderation

import (
	"github.com/shopspring/decimal"
)

// MediaAnalysis is the outcome of analyzing a single media item. Produced
// once per item per evaluation and consumed immediately; never persisted.
type MediaAnalysis struct {
	SafetyScore    float64
	Reasons        []string
	RelevanceScore float64
	IsRelevant     bool
	DetectedLabels []string
}

// CostSummary accounts for one whole evaluation.
type CostSummary struct {
	ImagesProcessed  int             `json:"imagesProcessed"`
	EstimatedCost    decimal.Decimal `json:"estimatedCost"`
	ProcessingTimeMs int64           `json:"processingTimeMs"`
}

// Verdict is the combined safety+relevance+spam outcome of one moderation
// evaluation. The submission lifecycle consumes it to pick the initial
// persisted status; only a projection of it is ever stored.
type Verdict struct {
	Safe               bool            `json:"safe"`
	SpamScore          float64         `json:"spamScore"`
	InappropriateScore float64         `json:"inappropriateScore"`
	Relevant           bool            `json:"relevant"`
	MinRelevanceScore  float64         `json:"minRelevanceScore"`
	Reasons            []string        `json:"reasons"`
	Cost               CostSummary     `json:"cost"`
}
