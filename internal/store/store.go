package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"osrs-trade-tracker/internal/database"
	"osrs-trade-tracker/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// statusExpr normalizes the stored status before equality checks.
const statusExpr = "UPPER(TRIM(status)) = ?"

// ErrNotStored is returned when an insert wrote nothing and no record holds
// the natural key either.
var ErrNotStored = errors.New("trade not stored")

// Store is the durable table of flips. It is safe for concurrent readers;
// writes are expected from a single importer at a time.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

// New creates a Store on top of an opened, migrated database.
func New(db *gorm.DB, logger *zap.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.Named("store"),
		now:    time.Now,
	}
}

func naturalKeyConflict() clause.OnConflict {
	return clause.OnConflict{
		Columns: []clause.Column{
			{Name: "first_buy_time"},
			{Name: "last_sell_time"},
			{Name: "item"},
		},
		DoNothing: true,
	}
}

// Insert stores a trade unless its natural key is already present, in which
// case nothing is written and Inserted is false. The id and import timestamp
// are always assigned here, whatever the caller set.
func (s *Store) Insert(ctx context.Context, trade models.Trade) (models.InsertResult, error) {
	rec := trade
	rec.ID = 0
	rec.ImportTimestamp = s.now().UTC()

	res := s.db.WithContext(ctx).Clauses(naturalKeyConflict()).Create(&rec)
	if res.Error != nil {
		return models.InsertResult{}, fmt.Errorf("failed to insert trade %q: %w", trade.Item, res.Error)
	}
	if res.RowsAffected == 0 {
		var existing models.Trade
		err := s.keyQuery(ctx, trade.Key()).Select("id").First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.InsertResult{}, fmt.Errorf("trade %q was neither inserted nor found: %w", trade.Item, ErrNotStored)
		}
		if err != nil {
			return models.InsertResult{}, fmt.Errorf("failed to look up existing trade %q: %w", trade.Item, err)
		}
		s.logger.Debug("Natural key already stored, skipping",
			zap.String("item", trade.Item), zap.Uint("existing_id", existing.ID))
		return models.InsertResult{ID: existing.ID, Inserted: false}, nil
	}
	return models.InsertResult{ID: rec.ID, Inserted: true}, nil
}

func (s *Store) keyQuery(ctx context.Context, key models.NaturalKey) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.Trade{}).
		Where("first_buy_time = ? AND last_sell_time = ? AND item = ?", key.FirstBuyTime, key.LastSellTime, key.Item)
}

// Exists reports whether a trade with the given natural key is stored.
func (s *Store) Exists(ctx context.Context, key models.NaturalKey) (bool, error) {
	var count int64
	if err := s.keyQuery(ctx, key).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check trade %q: %w", key.Item, err)
	}
	return count > 0, nil
}

// List returns trades most recently imported first. A non-empty status
// filters by case-insensitive equality.
func (s *Store) List(ctx context.Context, status string) ([]models.Trade, error) {
	q := s.db.WithContext(ctx).Order("import_timestamp desc").Order("id desc")
	if status = strings.TrimSpace(status); status != "" {
		q = q.Where(statusExpr, strings.ToUpper(status))
	}

	trades := []models.Trade{}
	if err := q.Find(&trades).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to list trades: %w", database.ErrStoreUnavailable, err)
	}
	return trades, nil
}

// All returns every trade in insertion order.
func (s *Store) All(ctx context.Context) ([]models.Trade, error) {
	trades := []models.Trade{}
	if err := s.db.WithContext(ctx).Order("id asc").Find(&trades).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to load trades: %w", database.ErrStoreUnavailable, err)
	}
	return trades, nil
}

// Count returns the number of stored trades.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Trade{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("%w: failed to count trades: %w", database.ErrStoreUnavailable, err)
	}
	return count, nil
}

// FinishedTotals sums profit over FINISHED trades, any case.
func (s *Store) FinishedTotals(ctx context.Context) (models.FinishedTotals, error) {
	var totals models.FinishedTotals
	err := s.db.WithContext(ctx).Model(&models.Trade{}).
		Select("CAST(COALESCE(SUM(profit), 0) AS BIGINT) AS profit, COUNT(*) AS count").
		Where(statusExpr, models.StatusFinished).
		Scan(&totals).Error
	if err != nil {
		return models.FinishedTotals{}, fmt.Errorf("%w: failed to sum finished trades: %w", database.ErrStoreUnavailable, err)
	}
	return totals, nil
}

// TopFlips returns up to limit trades of any status by profit, highest
// first. Equal profits keep insertion order.
func (s *Store) TopFlips(ctx context.Context, limit int) ([]models.Trade, error) {
	trades := []models.Trade{}
	err := s.db.WithContext(ctx).
		Order("profit desc").Order("id asc").
		Limit(limit).
		Find(&trades).Error
	if err != nil {
		return nil, fmt.Errorf("%w: failed to rank flips: %w", database.ErrStoreUnavailable, err)
	}
	return trades, nil
}

// TopItems groups FINISHED trades by item and returns up to limit groups by
// summed profit, highest first. Equal sums keep first-seen order.
func (s *Store) TopItems(ctx context.Context, limit int) ([]models.ItemProfit, error) {
	items := []models.ItemProfit{}
	err := s.db.WithContext(ctx).Model(&models.Trade{}).
		Select("item, CAST(SUM(profit) AS BIGINT) AS total_profit, COUNT(*) AS flips").
		Where(statusExpr, models.StatusFinished).
		Group("item").
		Order("total_profit desc").Order("MIN(id) asc").
		Limit(limit).
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("%w: failed to rank items: %w", database.ErrStoreUnavailable, err)
	}
	return items, nil
}

// Ping checks that the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %w", database.ErrStoreUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", database.ErrStoreUnavailable, err)
	}
	return nil
}
