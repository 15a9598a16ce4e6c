package moderation

import (
	"testing"

	"github.com/lacquer-social/vernis/visual"

	"github.com/stretchr/testify/assert"
)

func TestLikelihoodScore(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		likelihood visual.Likelihood
		score      float64
	}{
		{visual.LikelihoodVeryUnlikely, 0.0},
		{visual.LikelihoodUnlikely, 0.2},
		{visual.LikelihoodPossible, 0.5},
		{visual.LikelihoodLikely, 0.8},
		{visual.LikelihoodVeryLikely, 1.0},
	}
	for _, f := range fixtures {
		assert.Equal(f.score, LikelihoodScore(f.likelihood))
	}

	// anything unrecognized maps to the midpoint, not open or closed
	assert.Equal(0.5, LikelihoodScore(""))
	assert.Equal(0.5, LikelihoodScore("UNKNOWN"))
	assert.Equal(0.5, LikelihoodScore("likely"))
}
