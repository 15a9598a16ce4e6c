package moderation

import (
	"context"
	"time"
)

const (
	// trailing window over the submitter's own submissions
	spamWindow = time.Hour
	// submissions within the window at which the score saturates
	spamSaturation = 10
	// the reason surfaces strictly above this score
	spamReasonThreshold = 0.7
)

// SpamScore maps a recent-submission count onto a bounded [0,1] likelihood.
// Orthogonal to image content; it participates in the overall safety gate.
func SpamScore(count int) float64 {
	return min(float64(count)/spamSaturation, 1)
}

// querySpam reads the submitter's sliding-window activity count. A counter
// outage is not worth blocking anyone over: fail open with a zero score.
func (eng *Engine) querySpam(ctx context.Context, submitterID string) (float64, []string) {
	count, err := eng.Counters.GetCountWithin(ctx, "submission", submitterID, spamWindow)
	if err != nil {
		eng.logger().Warn("spam count query failed, failing open", "submitter", submitterID, "err", err)
		return 0, nil
	}

	score := SpamScore(count)
	var reasons []string
	if score > spamReasonThreshold {
		reasons = append(reasons, "rapid submission pattern")
	}
	return score, reasons
}
