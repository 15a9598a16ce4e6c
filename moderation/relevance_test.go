package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/lacquer-social/vernis/visual"

	"github.com/stretchr/testify/assert"
)

func TestRelevanceScore(t *testing.T) {
	assert := assert.New(t)

	// primary vocabulary match contributes its confidence directly
	score, relevant := RelevanceScore([]visual.Label{
		{Description: "nail art", Score: 0.9},
	})
	assert.InDelta(0.9, score, 0.0001)
	assert.True(relevant)

	// secondary-only match: 0.9 × 0.7 × 0.3 = 0.189, under the 0.3 bar
	score, relevant = RelevanceScore([]visual.Label{
		{Description: "cosmetic", Score: 0.9},
	})
	assert.InDelta(0.189, score, 0.0001)
	assert.False(relevant)

	// no matches at all
	score, relevant = RelevanceScore([]visual.Label{
		{Description: "bicycle", Score: 0.99},
		{Description: "mountain", Score: 0.95},
	})
	assert.Equal(0.0, score)
	assert.False(relevant)

	// max per vocabulary, not a sum
	score, _ = RelevanceScore([]visual.Label{
		{Description: "manicure", Score: 0.6},
		{Description: "nail polish", Score: 0.8},
		{Description: "pedicure", Score: 0.7},
	})
	assert.InDelta(0.8, score, 0.0001)

	// blended score is clamped at 1
	score, relevant = RelevanceScore([]visual.Label{
		{Description: "nail art", Score: 1.0},
		{Description: "beauty", Score: 1.0},
	})
	assert.Equal(1.0, score)
	assert.True(relevant)

	// substring matching works in both directions
	score, relevant = RelevanceScore([]visual.Label{
		{Description: "artificial nails", Score: 0.85},
	})
	assert.InDelta(0.85, score, 0.0001)
	assert.True(relevant)
}

func TestAnalyzeRelevanceDiagnostics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, vision, _ := EngineTestFixture()
	vision.LabelResults["img-many-labels"] = []visual.Label{
		{Description: "dog", Score: 0.9},
		{Description: "cat", Score: 0.9},
		{Description: "bird", Score: 0.9},
		{Description: "fish", Score: 0.9},
		{Description: "horse", Score: 0.9},
		{Description: "goat", Score: 0.9},
		{Description: "sheep", Score: 0.9},
	}

	score, relevant, reasons, detected := eng.analyzeRelevance(ctx, "img-many-labels")
	assert.Equal(0.0, score)
	assert.False(relevant)
	assert.Len(detected, 7)
	// generic reason plus at most the first five labels for diagnostics
	assert.Len(reasons, 2)
	assert.Equal("Content not related to nail designs", reasons[0])
	assert.Equal("Detected: dog, cat, bird, fish, horse", reasons[1])
}

func TestAnalyzeRelevanceFailOpen(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, vision, _ := EngineTestFixture()
	vision.LabelErr = errors.New("deadline exceeded")

	// relevance is advisory: it can never block a submission on its own
	score, relevant, reasons, detected := eng.analyzeRelevance(ctx, "img-safe-and-relevant")
	assert.Equal(0.5, score)
	assert.True(relevant)
	assert.Equal([]string{"label detection unavailable"}, reasons)
	assert.Empty(detected)
}
