package analytics

import (
	"sort"
	"time"

	"osrs-trade-tracker/internal/models"
)

// NoCompletedTrades is the top item of a day without finished flips.
const NoCompletedTrades = "No completed trades"

const dateLayout = "2006-01-02"

// DailyBucket is one calendar day of imported flips.
type DailyBucket struct {
	Date           string `json:"date"`
	TotalTrades    int    `json:"total_trades"`
	DailyProfit    int64  `json:"daily_profit"`
	FinishedTrades int    `json:"finished_trades"`
	ActiveTrades   int    `json:"active_trades"`
	TopItem        string `json:"top_item"`
	TopItemProfit  int64  `json:"top_item_profit"`
	ItemCount      int    `json:"item_count"`
}

// TimelinePoint is a daily bucket projected onto a running net worth.
type TimelinePoint struct {
	Date        string  `json:"date"`
	NetWorth    int64   `json:"net_worth"`
	DailyProfit int64   `json:"daily_profit"`
	Flips       int     `json:"flips"`
	ItemCount   int     `json:"item_count"`
	ROI         float64 `json:"roi"`
	Growth      float64 `json:"growth"`
}

// BuildDailyBuckets groups trades by the calendar date of their import
// timestamp in loc. Trades must be in insertion order so that the first of
// several equally profitable flips wins the day. Output is newest day first.
func BuildDailyBuckets(trades []models.Trade, loc *time.Location) []DailyBucket {
	if loc == nil {
		loc = time.UTC
	}

	type day struct {
		DailyBucket
		items  map[string]struct{}
		hasTop bool
	}
	days := make(map[string]*day)

	for _, tr := range trades {
		date := tr.ImportTimestamp.In(loc).Format(dateLayout)
		d, ok := days[date]
		if !ok {
			d = &day{
				DailyBucket: DailyBucket{Date: date, TopItem: NoCompletedTrades},
				items:       make(map[string]struct{}),
			}
			days[date] = d
		}

		d.TotalTrades++
		d.items[tr.Item] = struct{}{}
		switch {
		case tr.HasStatus(models.StatusFinished):
			d.FinishedTrades++
			d.DailyProfit += tr.Profit
			if !d.hasTop || tr.Profit > d.TopItemProfit {
				d.hasTop = true
				d.TopItem = tr.Item
				d.TopItemProfit = tr.Profit
			}
		case tr.HasStatus(models.StatusSelling):
			d.ActiveTrades++
		}
	}

	buckets := make([]DailyBucket, 0, len(days))
	for _, d := range days {
		d.ItemCount = len(d.items)
		buckets = append(buckets, d.DailyBucket)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Date > buckets[j].Date })
	return buckets
}

// ProjectTimeline walks the buckets from the oldest day, adding each day's
// profit to startingNetWorth. ROI is the day's profit over finished flips
// times unitInvestment; growth is the day's profit over the previous day's
// closing net worth. Both are percentages and 0 when their base is 0.
// Output is newest day first.
func ProjectTimeline(buckets []DailyBucket, startingNetWorth, unitInvestment int64) []TimelinePoint {
	asc := make([]DailyBucket, len(buckets))
	copy(asc, buckets)
	sort.Slice(asc, func(i, j int) bool { return asc[i].Date < asc[j].Date })

	points := make([]TimelinePoint, 0, len(asc))
	netWorth := startingNetWorth
	for _, b := range asc {
		previous := netWorth
		netWorth += b.DailyProfit

		var roi, growth float64
		if invested := int64(b.FinishedTrades) * unitInvestment; invested != 0 {
			roi = float64(b.DailyProfit*100) / float64(invested)
		}
		if previous != 0 {
			growth = float64(b.DailyProfit*100) / float64(previous)
		}

		points = append(points, TimelinePoint{
			Date:        b.Date,
			NetWorth:    netWorth,
			DailyProfit: b.DailyProfit,
			Flips:       b.TotalTrades,
			ItemCount:   b.ItemCount,
			ROI:         roi,
			Growth:      growth,
		})
	}

	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points
}
