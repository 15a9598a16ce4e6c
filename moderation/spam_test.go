package moderation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpamScore(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(0.0, SpamScore(0))
	assert.InDelta(0.3, SpamScore(3), 0.0001)
	assert.InDelta(0.7, SpamScore(7), 0.0001)
	assert.Equal(1.0, SpamScore(10))
	// clamped, not unbounded
	assert.Equal(1.0, SpamScore(15))
}

func TestQuerySpamReasonThreshold(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, _, _ := EngineTestFixture()

	// the reason threshold is strict: exactly 0.7 adds no reason
	for i := 0; i < 7; i++ {
		assert.NoError(eng.Counters.Increment(ctx, "submission", "user1"))
	}
	score, reasons := eng.querySpam(ctx, "user1")
	assert.InDelta(0.7, score, 0.0001)
	assert.Empty(reasons)

	assert.NoError(eng.Counters.Increment(ctx, "submission", "user1"))
	score, reasons = eng.querySpam(ctx, "user1")
	assert.InDelta(0.8, score, 0.0001)
	assert.Equal([]string{"rapid submission pattern"}, reasons)
}
