package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafetyScore(t *testing.T) {
	assert := assert.New(t)

	score, reasons := SafetyScore(0.3, 0.7, 0.1)
	assert.Equal(0.7, score)
	assert.Equal([]string{"Violence"}, reasons)

	// the reason threshold (0.6) is independent of the safety gate (0.5):
	// 0.55 sits over the gate but under the reason threshold
	score, reasons = SafetyScore(0.55, 0.0, 0.0)
	assert.Equal(0.55, score)
	assert.Empty(reasons)

	// each axis surfaces its own reason, regardless of which one is the max
	score, reasons = SafetyScore(0.8, 0.65, 0.9)
	assert.Equal(0.9, score)
	assert.Equal([]string{"Adult content", "Violence", "Racy content"}, reasons)

	// exactly at the reason threshold is not over it
	_, reasons = SafetyScore(0.6, 0.6, 0.6)
	assert.Empty(reasons)

	score, reasons = SafetyScore(0, 0, 0)
	assert.Equal(0.0, score)
	assert.Empty(reasons)
}

func TestAnalyzeSafetyFailOpen(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, vision, _ := EngineTestFixture()
	vision.SafeErr = errors.New("connection refused")

	// a thrown error is assumed transient: fail open
	score, reasons := eng.analyzeSafety(ctx, "img-safe-and-relevant")
	assert.Equal(0.0, score)
	assert.Equal([]string{"service unavailable"}, reasons)
}

func TestAnalyzeSafetyFailClosed(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, _, _ := EngineTestFixture()

	// a successful call with no annotation is untrusted: fail closed
	score, reasons := eng.analyzeSafety(ctx, "img-never-annotated")
	assert.Equal(1.0, score)
	assert.NotEmpty(reasons)
}
