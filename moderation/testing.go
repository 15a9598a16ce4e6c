package moderation

import (
	"context"
	"sync"

	"github.com/lacquer-social/vernis/countstore"
	"github.com/lacquer-social/vernis/visual"

	"github.com/shopspring/decimal"
)

// MemLedger is a CostLedger that just remembers what it was asked to record.
type MemLedger struct {
	lk      sync.Mutex
	Entries []MemLedgerEntry
	Err     error
}

type MemLedgerEntry struct {
	SubmitterID   string
	ImageCount    int
	EstimatedCost decimal.Decimal
}

func (l *MemLedger) Record(ctx context.Context, submitterID string, imageCount int, estimatedCost decimal.Decimal) error {
	if l.Err != nil {
		return l.Err
	}
	l.lk.Lock()
	defer l.lk.Unlock()
	l.Entries = append(l.Entries, MemLedgerEntry{
		SubmitterID:   submitterID,
		ImageCount:    imageCount,
		EstimatedCost: estimatedCost,
	})
	return nil
}

// EngineTestFixture wires an Engine against in-memory stores and a mock
// vision client pre-loaded with a few well-known image URLs:
//
//	img-safe-and-relevant: clean safe-search, strong nail-art labels
//	img-safe-irrelevant:   clean safe-search, off-topic labels
//	img-unsafe:            VERY_LIKELY adult content
//
// Any other URL yields a nil safe-search annotation (the fail-closed case).
func EngineTestFixture() (*Engine, *visual.MockClient, *MemLedger) {
	vision := visual.NewMockClient()
	vision.SafeResults["img-safe-and-relevant"] = &visual.SafeSearchResult{
		Adult:    visual.LikelihoodVeryUnlikely,
		Violence: visual.LikelihoodVeryUnlikely,
		Racy:     visual.LikelihoodUnlikely,
	}
	vision.LabelResults["img-safe-and-relevant"] = []visual.Label{
		{Description: "nail art", Score: 0.95},
		{Description: "manicure", Score: 0.9},
	}
	vision.SafeResults["img-safe-irrelevant"] = &visual.SafeSearchResult{
		Adult:    visual.LikelihoodVeryUnlikely,
		Violence: visual.LikelihoodVeryUnlikely,
		Racy:     visual.LikelihoodVeryUnlikely,
	}
	vision.LabelResults["img-safe-irrelevant"] = []visual.Label{
		{Description: "dog", Score: 0.98},
		{Description: "grass", Score: 0.92},
	}
	vision.SafeResults["img-unsafe"] = &visual.SafeSearchResult{
		Adult:    visual.LikelihoodVeryLikely,
		Violence: visual.LikelihoodVeryUnlikely,
		Racy:     visual.LikelihoodLikely,
	}
	vision.LabelResults["img-unsafe"] = []visual.Label{
		{Description: "skin", Score: 0.9},
	}

	ledger := &MemLedger{}
	engine := &Engine{
		Vision:   vision,
		Counters: countstore.NewMemCountStore(),
		Ledger:   ledger,
		Config: Config{
			PerImageSafetyCost: decimal.RequireFromString("0.0015"),
			PerImageLabelCost:  decimal.RequireFromString("0.0015"),
		},
	}
	return engine, vision, ledger
}
