package moderation

import (
	"context"
	"fmt"
	"strings"

	"github.com/lacquer-social/vernis/visual"
)

const (
	// minimum blended score for a media item to count as on-topic
	relevanceThreshold = 0.3
	// discount applied to confidences matched against the secondary vocabulary
	secondaryMatchWeight = 0.7
	// share of the secondary score blended into the final relevance score
	secondaryBlendWeight = 0.3
)

// Primary vocabulary: domain-specific manicure terms. A detected label
// matches when it is a case-insensitive substring of the term, or the term a
// substring of the label.
var primaryVocabulary = []string{
	"nail",
	"nails",
	"manicure",
	"pedicure",
	"nail art",
	"nail polish",
	"nail design",
	"nail salon",
	"acrylic nail",
	"gel nail",
	"french manicure",
	"cuticle",
}

// Secondary vocabulary: generic adjacent terms, matched with a discount.
var secondaryVocabulary = []string{
	"cosmetic",
	"beauty",
	"hand",
	"finger",
	"glitter",
	"lacquer",
	"varnish",
	"spa",
}

func matchesVocabulary(label string, vocab []string) bool {
	l := strings.ToLower(label)
	for _, term := range vocab {
		if strings.Contains(l, term) || strings.Contains(term, l) {
			return true
		}
	}
	return false
}

// RelevanceScore blends the best primary and secondary vocabulary matches
// over all detected labels. Max is kept per vocabulary, not a sum, so many
// weak matches never outrank one strong one.
func RelevanceScore(labels []visual.Label) (float64, bool) {
	var primary, secondary float64
	for _, label := range labels {
		if matchesVocabulary(label.Description, primaryVocabulary) && label.Score > primary {
			primary = label.Score
		}
		if matchesVocabulary(label.Description, secondaryVocabulary) && label.Score*secondaryMatchWeight > secondary {
			secondary = label.Score * secondaryMatchWeight
		}
	}
	score := min(1, primary+secondary*secondaryBlendWeight)
	return score, score >= relevanceThreshold
}

// analyzeRelevance runs label detection for one media item and scores it
// against the vocabularies. Relevance is advisory relative to safety: on a
// failed call it always fails open, so this check can never block a
// submission by itself.
func (eng *Engine) analyzeRelevance(ctx context.Context, url string) (float64, bool, []string, []string) {
	labels, err := eng.Vision.DetectLabels(ctx, url)
	if err != nil {
		eng.logger().Warn("label detection call failed, failing open", "url", url, "err", err)
		relevanceFailCount.Inc()
		return 0.5, true, []string{"label detection unavailable"}, nil
	}

	detected := make([]string, 0, len(labels))
	for _, label := range labels {
		detected = append(detected, label.Description)
	}

	score, relevant := RelevanceScore(labels)

	var reasons []string
	if !relevant {
		reasons = append(reasons, "Content not related to nail designs")
		diag := detected
		if len(diag) > 5 {
			diag = diag[:5]
		}
		if len(diag) > 0 {
			reasons = append(reasons, fmt.Sprintf("Detected: %s", strings.Join(diag, ", ")))
		}
	}
	return score, relevant, reasons, detected
}
