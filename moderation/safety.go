package moderation

import (
	"context"
)

const (
	// an item is safe when its aggregate score sits strictly below this
	safetyThreshold = 0.5
	// per-axis reasons surface above this, independent of the safety gate
	safetyReasonThreshold = 0.6
)

// SafetyScore aggregates per-axis probabilities into a single inappropriate
// score (the max), and surfaces a human-readable reason for each axis
// strictly above the reason threshold. The reason threshold (0.6) and the
// safety gate (0.5) are distinct and must both be honored exactly.
func SafetyScore(adult, violence, racy float64) (float64, []string) {
	score := max(adult, violence, racy)

	var reasons []string
	if adult > safetyReasonThreshold {
		reasons = append(reasons, "Adult content")
	}
	if violence > safetyReasonThreshold {
		reasons = append(reasons, "Violence")
	}
	if racy > safetyReasonThreshold {
		reasons = append(reasons, "Racy content")
	}
	return score, reasons
}

// analyzeSafety scores one media item via the vision service's safe-search
// endpoint.
//
// Failure policy is asymmetric on purpose: a failed call is assumed
// transient and fails open (score 0), while a successful call that returns
// no annotation is untrusted and fails closed (score 1). Do not normalize
// these to one policy.
func (eng *Engine) analyzeSafety(ctx context.Context, url string) (float64, []string) {
	res, err := eng.Vision.SafeSearch(ctx, url)
	if err != nil {
		eng.logger().Warn("safe-search call failed, failing open", "url", url, "err", err)
		safetyFailCount.WithLabelValues("open").Inc()
		return 0, []string{"service unavailable"}
	}
	if res == nil {
		eng.logger().Warn("safe-search returned no annotation, failing closed", "url", url)
		safetyFailCount.WithLabelValues("closed").Inc()
		return 1, []string{"missing safety annotation"}
	}

	score, reasons := SafetyScore(
		LikelihoodScore(res.Adult),
		LikelihoodScore(res.Violence),
		LikelihoodScore(res.Racy),
	)
	eng.logger().Debug("safe-search scored", "url", url, "score", score)
	return score, reasons
}
