package visual

// Ordinal confidence level returned by the vision service's safe-search
// endpoint. The five known values form a scale from VERY_UNLIKELY to
// VERY_LIKELY; anything else (including an empty string) is treated as
// unknown by downstream scoring.
type Likelihood string

const (
	LikelihoodVeryUnlikely Likelihood = "VERY_UNLIKELY"
	LikelihoodUnlikely     Likelihood = "UNLIKELY"
	LikelihoodPossible     Likelihood = "POSSIBLE"
	LikelihoodLikely       Likelihood = "LIKELY"
	LikelihoodVeryLikely   Likelihood = "VERY_LIKELY"
)

// Per-axis safe-search verdict for a single image.
type SafeSearchResult struct {
	Adult    Likelihood `json:"adult"`
	Violence Likelihood `json:"violence"`
	Racy     Likelihood `json:"racy"`
}

// Single detected content label with model confidence.
type Label struct {
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}
