package analytics

import (
	"testing"
	"time"

	"osrs-trade-tracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(day, hour int) time.Time {
	return time.Date(2024, 3, day, hour, 0, 0, 0, time.UTC)
}

func trade(item, status string, profit int64, ts time.Time) models.Trade {
	return models.Trade{Item: item, Status: status, Profit: profit, ImportTimestamp: ts}
}

func TestBuildDailyBuckets(t *testing.T) {
	t.Run("GroupsByImportDate", func(t *testing.T) {
		trades := []models.Trade{
			trade("Coal", "FINISHED", 10, at(1, 9)),
			trade("Logs", "finished", 40, at(1, 10)),
			trade("Coal", "SELLING", 0, at(1, 11)),
			trade("Gold bar", "Finished", 40, at(1, 12)),
			trade("Iron ore", "CANCELLED", 99, at(1, 13)),
			trade("Runite bar", "selling", 0, at(2, 8)),
		}

		buckets := BuildDailyBuckets(trades, time.UTC)

		require.Len(t, buckets, 2)
		assert.Equal(t, DailyBucket{
			Date:           "2024-03-02",
			TotalTrades:    1,
			DailyProfit:    0,
			FinishedTrades: 0,
			ActiveTrades:   1,
			TopItem:        NoCompletedTrades,
			TopItemProfit:  0,
			ItemCount:      1,
		}, buckets[0])
		assert.Equal(t, DailyBucket{
			Date:           "2024-03-01",
			TotalTrades:    5,
			DailyProfit:    90,
			FinishedTrades: 3,
			ActiveTrades:   1,
			TopItem:        "Logs", // first of the two 40s
			TopItemProfit:  40,
			ItemCount:      4,
		}, buckets[1])
	})

	t.Run("NegativeOnlyDayStillHasTopItem", func(t *testing.T) {
		buckets := BuildDailyBuckets([]models.Trade{
			trade("Coal", "FINISHED", -20, at(5, 1)),
			trade("Logs", "FINISHED", -5, at(5, 2)),
		}, time.UTC)

		require.Len(t, buckets, 1)
		assert.Equal(t, "Logs", buckets[0].TopItem)
		assert.Equal(t, int64(-5), buckets[0].TopItemProfit)
		assert.Equal(t, int64(-25), buckets[0].DailyProfit)
	})

	t.Run("TimezoneShiftsDate", func(t *testing.T) {
		tokyo, err := time.LoadLocation("Asia/Tokyo")
		require.NoError(t, err)

		buckets := BuildDailyBuckets([]models.Trade{trade("Coal", "FINISHED", 1, at(1, 20))}, tokyo)

		require.Len(t, buckets, 1)
		assert.Equal(t, "2024-03-02", buckets[0].Date)
	})

	t.Run("Empty", func(t *testing.T) {
		buckets := BuildDailyBuckets(nil, nil)
		assert.NotNil(t, buckets)
		assert.Empty(t, buckets)
	})

	t.Run("StatusCountsNeverExceedTotal", func(t *testing.T) {
		statuses := []string{"FINISHED", "SELLING", "BUYING", "finished", "", "Selling"}
		var trades []models.Trade
		for i, s := range statuses {
			trades = append(trades, trade("x", s, int64(i), at(1+i%2, i)))
		}
		for _, b := range BuildDailyBuckets(trades, time.UTC) {
			assert.LessOrEqual(t, b.FinishedTrades+b.ActiveTrades, b.TotalTrades)
		}
	})
}

func TestProjectTimeline(t *testing.T) {
	t.Run("GainThenLoss", func(t *testing.T) {
		// Newest first, as produced by BuildDailyBuckets.
		buckets := []DailyBucket{
			{Date: "2024-03-02", DailyProfit: -5, FinishedTrades: 1, TotalTrades: 2, ItemCount: 2},
			{Date: "2024-03-01", DailyProfit: 10, FinishedTrades: 2, TotalTrades: 2, ItemCount: 1},
		}

		points := ProjectTimeline(buckets, 100, 1000)

		require.Len(t, points, 2)
		assert.Equal(t, "2024-03-02", points[0].Date)
		assert.Equal(t, int64(105), points[0].NetWorth)
		assert.InDelta(t, float64(-5*100)/110, points[0].Growth, 1e-9)
		assert.InDelta(t, -0.5, points[0].ROI, 1e-9)
		assert.Equal(t, 2, points[0].Flips)
		assert.Equal(t, 2, points[0].ItemCount)

		assert.Equal(t, "2024-03-01", points[1].Date)
		assert.Equal(t, int64(110), points[1].NetWorth)
		assert.InDelta(t, 10.0, points[1].Growth, 1e-9)
		assert.InDelta(t, 0.5, points[1].ROI, 1e-9)
	})

	t.Run("ZeroBasesYieldZero", func(t *testing.T) {
		points := ProjectTimeline([]DailyBucket{
			{Date: "2024-03-01", DailyProfit: 50, FinishedTrades: 0},
		}, 0, 1000)

		require.Len(t, points, 1)
		assert.Equal(t, int64(50), points[0].NetWorth)
		assert.Zero(t, points[0].ROI)
		assert.Zero(t, points[0].Growth)

		points = ProjectTimeline([]DailyBucket{
			{Date: "2024-03-01", DailyProfit: 50, FinishedTrades: 3},
		}, 10, 0)
		assert.Zero(t, points[0].ROI)
	})

	t.Run("EndingNetWorthIsStartPlusProfits", func(t *testing.T) {
		profits := []int64{7, 0, 13, -4, 22}
		var buckets []DailyBucket
		var sum int64
		for i, p := range profits {
			buckets = append(buckets, DailyBucket{Date: time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC).Format(dateLayout), DailyProfit: p})
			sum += p
		}

		points := ProjectTimeline(buckets, 1000, 1)

		assert.Equal(t, 1000+sum, points[0].NetWorth)
		for i := len(points) - 1; i > 0; i-- {
			if points[i-1].DailyProfit >= 0 {
				assert.GreaterOrEqual(t, points[i-1].NetWorth, points[i].NetWorth)
			}
		}
	})

	t.Run("InputNotReordered", func(t *testing.T) {
		buckets := []DailyBucket{{Date: "2024-03-02"}, {Date: "2024-03-01"}}
		ProjectTimeline(buckets, 0, 0)
		assert.Equal(t, "2024-03-02", buckets[0].Date)
	})
}
