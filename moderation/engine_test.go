package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/lacquer-social/vernis/visual"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateBasics(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng, _, ledger := EngineTestFixture()

	verdict, err := eng.Evaluate(ctx, "user1", []string{"img-safe-and-relevant"}, true)
	require.NoError(err)
	assert.True(verdict.Safe)
	assert.True(verdict.Relevant)
	assert.Equal(0.2, verdict.InappropriateScore)
	assert.InDelta(0.95, verdict.MinRelevanceScore, 0.0001)
	assert.Equal(0.0, verdict.SpamScore)
	assert.Empty(verdict.Reasons)
	assert.Equal(1, verdict.Cost.ImagesProcessed)
	assert.True(verdict.Cost.EstimatedCost.Equal(decimal.RequireFromString("0.003")))

	// the ledger saw exactly one record for the evaluation
	require.Len(ledger.Entries, 1)
	assert.Equal("user1", ledger.Entries[0].SubmitterID)
	assert.Equal(1, ledger.Entries[0].ImageCount)
	assert.True(ledger.Entries[0].EstimatedCost.Equal(decimal.RequireFromString("0.003")))
}

func TestEvaluateAggregation(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng, vision, _ := EngineTestFixture()
	vision.SafeResults["img-mild"] = &visual.SafeSearchResult{
		Adult:    visual.LikelihoodUnlikely,
		Violence: visual.LikelihoodUnlikely,
		Racy:     visual.LikelihoodUnlikely,
	}
	vision.SafeResults["img-spicy"] = &visual.SafeSearchResult{
		Adult:    visual.LikelihoodLikely,
		Violence: visual.LikelihoodVeryUnlikely,
		Racy:     visual.LikelihoodPossible,
	}

	// inappropriate score is the max over items: [0.2, 0.8] -> 0.8
	verdict, err := eng.Evaluate(ctx, "user1", []string{"img-mild", "img-spicy"}, false)
	require.NoError(err)
	assert.Equal(0.8, verdict.InappropriateScore)
	assert.False(verdict.Safe)
	assert.Contains(verdict.Reasons, "Adult content")
	assert.Equal(2, verdict.Cost.ImagesProcessed)
}

func TestEvaluateRelevanceGate(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng, _, _ := EngineTestFixture()
	urls := []string{"img-safe-and-relevant", "img-safe-irrelevant"}

	// one irrelevant item fails the whole submission when the check is on
	verdict, err := eng.Evaluate(ctx, "user1", urls, true)
	require.NoError(err)
	assert.False(verdict.Safe)
	assert.False(verdict.Relevant)
	assert.Equal(0.0, verdict.MinRelevanceScore)
	assert.Contains(verdict.Reasons, "Content not related to nail designs")

	// with the check off, relevance is not analyzed and not billed
	verdict, err = eng.Evaluate(ctx, "user1", urls, false)
	require.NoError(err)
	assert.True(verdict.Safe)
	assert.True(verdict.Relevant)
	assert.Equal(1.0, verdict.MinRelevanceScore)
	assert.True(verdict.Cost.EstimatedCost.Equal(decimal.RequireFromString("0.003")))
}

func TestEvaluateSpamGate(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng, _, _ := EngineTestFixture()
	for i := 0; i < 8; i++ {
		require.NoError(eng.Counters.Increment(ctx, "submission", "flooder"))
	}

	verdict, err := eng.Evaluate(ctx, "flooder", []string{"img-safe-and-relevant"}, true)
	require.NoError(err)
	assert.False(verdict.Safe)
	assert.InDelta(0.8, verdict.SpamScore, 0.0001)
	assert.Contains(verdict.Reasons, "rapid submission pattern")

	// other submitters are unaffected
	verdict, err = eng.Evaluate(ctx, "user1", []string{"img-safe-and-relevant"}, true)
	require.NoError(err)
	assert.True(verdict.Safe)
}

func TestEvaluateDedupesReasons(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng, _, _ := EngineTestFixture()

	// two items with identical failure reasons collapse to one entry
	verdict, err := eng.Evaluate(ctx, "user1", []string{"img-unsafe", "img-unsafe"}, false)
	require.NoError(err)
	assert.False(verdict.Safe)
	assert.Equal(1.0, verdict.InappropriateScore)
	assert.Equal([]string{"Adult content", "Racy content"}, verdict.Reasons)
}

func TestEvaluateLedgerFailureIsNotFatal(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng, _, ledger := EngineTestFixture()
	ledger.Err = errors.New("ledger store down")

	// cost accounting is observability, not a gate
	verdict, err := eng.Evaluate(ctx, "user1", []string{"img-safe-and-relevant"}, true)
	require.NoError(err)
	assert.True(verdict.Safe)
}

func TestEvaluateVisionOutageFailsOpen(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng, vision, _ := EngineTestFixture()
	vision.SafeErr = errors.New("upstream 503")
	vision.LabelErr = errors.New("upstream 503")

	// a transient outage never blocks legitimate content
	verdict, err := eng.Evaluate(ctx, "user1", []string{"img-safe-and-relevant"}, true)
	require.NoError(err)
	assert.True(verdict.Safe)
	assert.Equal(0.0, verdict.InappropriateScore)
	assert.Contains(verdict.Reasons, "service unavailable")
}
