package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lacquer-social/vernis/countstore"
	"github.com/lacquer-social/vernis/visual"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// VisionAnalyzer is the boundary to the external vision analysis service.
// Both methods may fail; the engine absorbs failures per the documented
// fail-open/fail-closed policies instead of propagating them.
type VisionAnalyzer interface {
	SafeSearch(ctx context.Context, url string) (*visual.SafeSearchResult, error)
	DetectLabels(ctx context.Context, url string) ([]visual.Label, error)
}

// CostLedger records the estimated cost of one evaluation. Implemented by
// the ledger package; cost accounting is observability, not a gate.
type CostLedger interface {
	Record(ctx context.Context, submitterID string, imageCount int, estimatedCost decimal.Decimal) error
}

type Config struct {
	PerImageSafetyCost decimal.Decimal
	PerImageLabelCost  decimal.Decimal
}

// Engine fans safety and relevance analysis out over the media items of a
// submission, folds the per-item results into a single verdict, and records
// the estimated cost of the vision calls.
//
// All collaborators are injected; there is no package-level client state.
type Engine struct {
	Logger   *slog.Logger
	Vision   VisionAnalyzer
	Counters countstore.CountStore
	Ledger   CostLedger
	Config   Config
}

func (eng *Engine) logger() *slog.Logger {
	if eng.Logger != nil {
		return eng.Logger
	}
	return slog.Default()
}

// Evaluate runs one moderation pass over a submission's media items.
//
// The spam-count query and the per-item analyses run concurrently; ordering
// between them is irrelevant because the aggregation (max/min/AND) is
// commutative. The evaluation detaches from the caller's cancellation so a
// client disconnect mid-flight still produces an accurate cost record.
func (eng *Engine) Evaluate(ctx context.Context, submitterID string, mediaURLs []string, checkRelevance bool) (verdict *Verdict, err error) {
	// similar to an HTTP server, we want to recover any panics from analysis
	defer func() {
		if r := recover(); r != nil {
			eng.logger().Error("moderation evaluation exception", "err", r, "submitter", submitterID)
			verdict = nil
			err = fmt.Errorf("moderation evaluation failed: %v", r)
		}
	}()

	start := time.Now()
	ctx = context.WithoutCancel(ctx)

	var spamScore float64
	var spamReasons []string
	analyses := make([]MediaAnalysis, len(mediaURLs))

	var g errgroup.Group
	g.Go(func() error {
		spamScore, spamReasons = eng.querySpam(ctx, submitterID)
		return nil
	})
	for i, url := range mediaURLs {
		g.Go(func() error {
			analyses[i] = eng.analyzeMedia(ctx, url, checkRelevance)
			return nil
		})
	}
	// analysis failures are absorbed by component policies, never returned
	_ = g.Wait()

	inappropriate := 0.0
	minRelevance := 1.0
	allRelevant := true
	var reasons []string
	for _, a := range analyses {
		inappropriate = max(inappropriate, a.SafetyScore)
		minRelevance = min(minRelevance, a.RelevanceScore)
		allRelevant = allRelevant && a.IsRelevant
		reasons = append(reasons, a.Reasons...)
	}
	reasons = append(reasons, spamReasons...)
	reasons = dedupeStrings(reasons)

	perImage := eng.Config.PerImageSafetyCost
	if checkRelevance {
		perImage = perImage.Add(eng.Config.PerImageLabelCost)
	}
	estimatedCost := perImage.Mul(decimal.NewFromInt(int64(len(mediaURLs))))

	safe := inappropriate < safetyThreshold &&
		spamScore < spamReasonThreshold &&
		(!checkRelevance || allRelevant)

	if eng.Ledger != nil {
		if err := eng.Ledger.Record(ctx, submitterID, len(mediaURLs), estimatedCost); err != nil {
			eng.logger().Warn("cost record failed, continuing", "submitter", submitterID, "err", err)
			costRecordErrorCount.Inc()
		}
	}

	verdict = &Verdict{
		Safe:               safe,
		SpamScore:          spamScore,
		InappropriateScore: inappropriate,
		Relevant:           allRelevant,
		MinRelevanceScore:  minRelevance,
		Reasons:            reasons,
		Cost: CostSummary{
			ImagesProcessed:  len(mediaURLs),
			EstimatedCost:    estimatedCost,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
		},
	}

	evaluateDuration.Observe(time.Since(start).Seconds())
	mediaAnalyzedCount.Add(float64(len(mediaURLs)))
	outcome := "safe"
	if !safe {
		outcome = "unsafe"
	}
	verdictCount.WithLabelValues(outcome).Inc()

	eng.logger().Info("moderation verdict",
		"submitter", submitterID,
		"images", len(mediaURLs),
		"safe", safe,
		"inappropriateScore", inappropriate,
		"spamScore", spamScore,
		"relevant", allRelevant,
		"cost", estimatedCost,
		"durationMs", verdict.Cost.ProcessingTimeMs,
	)
	return verdict, nil
}

// analyzeMedia produces one MediaAnalysis. When relevance checking is off,
// label detection is skipped entirely (and not billed) and the item counts
// as relevant.
func (eng *Engine) analyzeMedia(ctx context.Context, url string, checkRelevance bool) MediaAnalysis {
	score, reasons := eng.analyzeSafety(ctx, url)
	analysis := MediaAnalysis{
		SafetyScore:    score,
		Reasons:        reasons,
		RelevanceScore: 1,
		IsRelevant:     true,
	}
	if checkRelevance {
		relScore, relevant, relReasons, detected := eng.analyzeRelevance(ctx, url)
		analysis.RelevanceScore = relScore
		analysis.IsRelevant = relevant
		analysis.Reasons = append(analysis.Reasons, relReasons...)
		analysis.DetectedLabels = detected
	}
	return analysis
}
