package analytics

import (
	"context"

	"osrs-trade-tracker/internal/config"
	"osrs-trade-tracker/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TopLimit bounds both top-ten rankings of the dashboard.
const TopLimit = 10

// Reader is the read side of the record store used by the engine.
type Reader interface {
	All(ctx context.Context) ([]models.Trade, error)
	Count(ctx context.Context) (int64, error)
	FinishedTotals(ctx context.Context) (models.FinishedTotals, error)
	TopFlips(ctx context.Context, limit int) ([]models.Trade, error)
	TopItems(ctx context.Context, limit int) ([]models.ItemProfit, error)
}

// Dashboard is the headline summary of the store.
type Dashboard struct {
	TotalProfit    int64               `json:"total_profit"`
	CompletedFlips int64               `json:"completed_flips"`
	TotalRecords   int64               `json:"total_records"`
	TopFlips       []models.Trade      `json:"top_flips"`
	TopItems       []models.ItemProfit `json:"top_items"`
}

// Engine computes read-only aggregates over the record store. Its methods
// may run concurrently with each other and with an import.
type Engine struct {
	store  Reader
	cfg    config.Analytics
	logger *zap.Logger
}

// NewEngine creates an Engine reading from store.
func NewEngine(store Reader, cfg config.Analytics, logger *zap.Logger) *Engine {
	return &Engine{store: store, cfg: cfg, logger: logger.Named("analytics")}
}

// Dashboard runs the summary queries concurrently. Any failing query fails
// the whole summary.
func (e *Engine) Dashboard(ctx context.Context) (Dashboard, error) {
	var (
		d      Dashboard
		totals models.FinishedTotals
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		totals, err = e.store.FinishedTotals(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.TotalRecords, err = e.store.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.TopFlips, err = e.store.TopFlips(gctx, TopLimit)
		return err
	})
	g.Go(func() (err error) {
		d.TopItems, err = e.store.TopItems(gctx, TopLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		e.logger.Error("Failed to build dashboard", zap.Error(err))
		return Dashboard{}, err
	}

	d.TotalProfit = totals.Profit
	d.CompletedFlips = totals.Count
	if d.TopFlips == nil {
		d.TopFlips = []models.Trade{}
	}
	if d.TopItems == nil {
		d.TopItems = []models.ItemProfit{}
	}
	return d, nil
}

// DailyReturns rolls the store up by import day, newest first.
func (e *Engine) DailyReturns(ctx context.Context) ([]DailyBucket, error) {
	trades, err := e.store.All(ctx)
	if err != nil {
		e.logger.Error("Failed to load trades for daily returns", zap.Error(err))
		return nil, err
	}
	return BuildDailyBuckets(trades, e.cfg.Location()), nil
}

// Timeline projects the daily returns onto the configured starting net
// worth, newest day first.
func (e *Engine) Timeline(ctx context.Context) ([]TimelinePoint, error) {
	buckets, err := e.DailyReturns(ctx)
	if err != nil {
		return nil, err
	}
	points := ProjectTimeline(buckets, e.cfg.StartingNetWorth, e.cfg.UnitInvestment)
	e.logger.Debug("Projected timeline",
		zap.Int("days", len(points)),
		zap.Int64("starting_net_worth", e.cfg.StartingNetWorth))
	return points, nil
}
