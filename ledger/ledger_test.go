package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type countingNotifier struct {
	alerts int
}

func (n *countingNotifier) SendBudgetAlert(ctx context.Context, monthlyTotal, threshold decimal.Decimal) error {
	n.alerts++
	return nil
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	return db
}

func TestLedgerMonthlyTotal(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	ldg, err := NewLedger(testDB(t), nil, decimal.RequireFromString("100"), nil)
	require.NoError(err)

	costs := []string{"0.003", "0.006", "0.0015"}
	for _, c := range costs {
		require.NoError(ldg.Record(ctx, "user1", 1, decimal.RequireFromString(c)))
	}

	total, err := ldg.MonthlyTotal(ctx)
	require.NoError(err)
	assert.True(total.Equal(decimal.RequireFromString("0.0105")), "got %s", total)
}

func TestLedgerAlertOncePerCrossing(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	notifier := &countingNotifier{}
	ldg, err := NewLedger(testDB(t), nil, decimal.RequireFromString("0.01"), notifier)
	require.NoError(err)

	cost := decimal.RequireFromString("0.004")
	// 0.004, 0.008: under; 0.012: crossing; 0.016: already over
	for i := 0; i < 2; i++ {
		require.NoError(ldg.Record(ctx, "user1", 2, cost))
	}
	assert.Equal(0, notifier.alerts)

	require.NoError(ldg.Record(ctx, "user1", 2, cost))
	assert.Equal(1, notifier.alerts)

	require.NoError(ldg.Record(ctx, "user1", 2, cost))
	assert.Equal(1, notifier.alerts)
}

func TestLedgerStats(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	db := testDB(t)
	ldg, err := NewLedger(db, nil, decimal.RequireFromString("100"), nil)
	require.NoError(err)

	day1 := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 5, 11, 9, 0, 0, 0, time.UTC)
	day3 := time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)
	rows := []CostRecord{
		{SubmitterID: "user1", ImageCount: 2, EstimatedCost: decimal.RequireFromString("0.006"), CreatedAt: day1},
		{SubmitterID: "user2", ImageCount: 1, EstimatedCost: decimal.RequireFromString("0.003"), CreatedAt: day2},
		{SubmitterID: "user1", ImageCount: 3, EstimatedCost: decimal.RequireFromString("0.009"), CreatedAt: day2},
		{SubmitterID: "user3", ImageCount: 1, EstimatedCost: decimal.RequireFromString("0.003"), CreatedAt: day3},
	}
	for i := range rows {
		require.NoError(db.Create(&rows[i]).Error)
	}

	// unbounded range covers everything
	stats, err := ldg.Stats(ctx, nil, nil)
	require.NoError(err)
	assert.Equal(4, stats.RequestCount)
	assert.Equal(7, stats.TotalImages)
	assert.True(stats.TotalCost.Equal(decimal.RequireFromString("0.021")), "got %s", stats.TotalCost)
	assert.True(stats.AverageCostPerImage.Equal(decimal.RequireFromString("0.003")), "got %s", stats.AverageCostPerImage)
	require.Len(stats.ByDay, 3)
	assert.Equal(4, stats.ByDay["2024-05-11"].Images)
	assert.True(stats.ByDay["2024-05-11"].Cost.Equal(decimal.RequireFromString("0.012")))

	// the range is inclusive on both ends
	stats, err = ldg.Stats(ctx, &day2, &day2)
	require.NoError(err)
	assert.Equal(2, stats.RequestCount)
	assert.Equal(4, stats.TotalImages)

	// half-open on one side
	stats, err = ldg.Stats(ctx, &day2, nil)
	require.NoError(err)
	assert.Equal(3, stats.RequestCount)

	// empty range yields zero values, not errors
	farFuture := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	stats, err = ldg.Stats(ctx, &farFuture, nil)
	require.NoError(err)
	assert.Equal(0, stats.RequestCount)
	assert.True(stats.TotalCost.IsZero())
	assert.True(stats.AverageCostPerImage.IsZero())
	assert.Empty(stats.ByDay)
}
