package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CostRecord is an append-only accounting row, one per moderation
// evaluation. Records are never mutated or deleted, only aggregated.
type CostRecord struct {
	ID            uint   `gorm:"primarykey"`
	SubmitterID   string `gorm:"index"`
	ImageCount    int
	EstimatedCost decimal.Decimal `gorm:"type:decimal(12,6)"`
	CreatedAt     time.Time       `gorm:"index"`
}

// Ledger tracks the monetary cost of vision analysis and raises an alert
// when the running calendar-month total crosses a configured threshold.
//
// The monthly total is recomputed with a scan on every write, without a
// transaction. Concurrent evaluations can race and under-count a crossing
// by a bounded amount; this is an accepted trade-off for a non-critical
// accounting path, not an invariant to be "fixed".
type Ledger struct {
	db             *gorm.DB
	logger         *slog.Logger
	alertThreshold decimal.Decimal
	notifier       Notifier
}

func NewLedger(db *gorm.DB, logger *slog.Logger, alertThreshold decimal.Decimal, notifier Notifier) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := db.AutoMigrate(&CostRecord{}); err != nil {
		return nil, fmt.Errorf("migrating cost records: %w", err)
	}
	return &Ledger{
		db:             db,
		logger:         logger,
		alertThreshold: alertThreshold,
		notifier:       notifier,
	}, nil
}

// Record appends one cost record and recomputes the month-to-date total.
// All timestamps are UTC so the month boundary is consistent system-wide.
func (l *Ledger) Record(ctx context.Context, submitterID string, imageCount int, estimatedCost decimal.Decimal) error {
	rec := CostRecord{
		SubmitterID:   submitterID,
		ImageCount:    imageCount,
		EstimatedCost: estimatedCost,
		CreatedAt:     time.Now().UTC(),
	}
	if err := l.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("appending cost record: %w", err)
	}
	costRecordCount.Inc()

	total, err := l.MonthlyTotal(ctx)
	if err != nil {
		return err
	}
	monthlyCostGauge.Set(total.InexactFloat64())

	// alert exactly when this record crosses the threshold, not on every
	// record above it
	if total.GreaterThan(l.alertThreshold) && total.Sub(estimatedCost).LessThanOrEqual(l.alertThreshold) {
		l.logger.Warn("monthly vision budget exceeded",
			"monthlyTotal", total,
			"threshold", l.alertThreshold,
		)
		budgetAlertCount.Inc()
		if l.notifier != nil {
			if err := l.notifier.SendBudgetAlert(ctx, total, l.alertThreshold); err != nil {
				l.logger.Warn("budget alert notification failed", "err", err)
			}
		}
	}
	return nil
}

// MonthlyTotal sums estimated costs since the first instant of the current
// UTC calendar month.
func (l *Ledger) MonthlyTotal(ctx context.Context) (decimal.Decimal, error) {
	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var total decimal.Decimal
	row := l.db.WithContext(ctx).
		Model(&CostRecord{}).
		Where("created_at >= ?", monthStart).
		Select("COALESCE(SUM(estimated_cost), 0)").
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("summing monthly cost: %w", err)
	}
	return total, nil
}

type DayUsage struct {
	Images int             `json:"images"`
	Cost   decimal.Decimal `json:"cost"`
}

type UsageStats struct {
	TotalImages         int                 `json:"totalImages"`
	TotalCost           decimal.Decimal     `json:"totalCost"`
	AverageCostPerImage decimal.Decimal     `json:"averageCostPerImage"`
	RequestCount        int                 `json:"requestCount"`
	ByDay               map[string]DayUsage `json:"byDay"`
}

// at most this many of the most recent records are scanned per stats query
const statsScanLimit = 1000

// Stats aggregates usage over an inclusive [start, end] range; a nil bound
// leaves that side unbounded. Only the most recent records (by recency, up
// to the scan limit) are considered, so under high volume this is a
// best-effort recent-window statistic, not an exact all-time total.
func (l *Ledger) Stats(ctx context.Context, start, end *time.Time) (*UsageStats, error) {
	var recs []CostRecord
	if err := l.db.WithContext(ctx).
		Order("created_at desc").
		Limit(statsScanLimit).
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("scanning cost records: %w", err)
	}

	stats := UsageStats{
		TotalCost:           decimal.Zero,
		AverageCostPerImage: decimal.Zero,
		ByDay:               make(map[string]DayUsage),
	}
	for _, rec := range recs {
		if start != nil && rec.CreatedAt.Before(*start) {
			continue
		}
		if end != nil && rec.CreatedAt.After(*end) {
			continue
		}
		stats.RequestCount++
		stats.TotalImages += rec.ImageCount
		stats.TotalCost = stats.TotalCost.Add(rec.EstimatedCost)

		day := rec.CreatedAt.UTC().Format(time.DateOnly)
		usage := stats.ByDay[day]
		usage.Images += rec.ImageCount
		usage.Cost = usage.Cost.Add(rec.EstimatedCost)
		stats.ByDay[day] = usage
	}
	if stats.TotalImages > 0 {
		stats.AverageCostPerImage = stats.TotalCost.Div(decimal.NewFromInt(int64(stats.TotalImages)))
	}
	return &stats, nil
}
