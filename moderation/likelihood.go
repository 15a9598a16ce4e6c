package moderation

import (
	"github.com/lacquer-social/vernis/visual"
)

// LikelihoodScore converts the vision service's five-point ordinal confidence
// scale into a probability. Unrecognized or missing values map to 0.5: an
// unparseable upstream response should neither silently pass nor silently
// block content.
func LikelihoodScore(l visual.Likelihood) float64 {
	switch l {
	case visual.LikelihoodVeryUnlikely:
		return 0.0
	case visual.LikelihoodUnlikely:
		return 0.2
	case visual.LikelihoodPossible:
		return 0.5
	case visual.LikelihoodLikely:
		return 0.8
	case visual.LikelihoodVeryLikely:
		return 1.0
	default:
		return 0.5
	}
}
