package store

import (
	"context"
	"testing"
	"time"

	"osrs-trade-tracker/internal/config"
	"osrs-trade-tracker/internal/database"
	"osrs-trade-tracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupTest creates a store over a fresh in-memory database whose clock
// advances one minute per insert.
func setupTest(t *testing.T) *Store {
	t.Helper()
	db, err := database.NewDatabase(config.Database{Driver: "sqlite", DSN: "file::memory:"})
	require.NoError(t, err)

	s := New(db, zap.NewNop())
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return s
}

func flip(first, last, item, status string, profit int64) models.Trade {
	return models.Trade{
		FirstBuyTime: first,
		LastSellTime: last,
		Item:         item,
		Status:       status,
		Profit:       profit,
	}
}

func TestStore_Insert(t *testing.T) {
	ctx := context.Background()

	t.Run("IdempotentOnNaturalKey", func(t *testing.T) {
		// Arrange
		s := setupTest(t)
		first := flip("T1", "T2", "Rune scimitar", "FINISHED", 100)
		second := flip("T1", "T2", "Rune scimitar", "SELLING", 999)

		// Act
		r1, err1 := s.Insert(ctx, first)
		r2, err2 := s.Insert(ctx, second)

		// Assert
		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.True(t, r1.Inserted)
		assert.False(t, r2.Inserted)
		assert.Equal(t, r1.ID, r2.ID)

		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		all, err := s.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(100), all[0].Profit)
		assert.Equal(t, "FINISHED", all[0].Status)
	})

	t.Run("AssignsIDAndTimestamp", func(t *testing.T) {
		s := setupTest(t)
		in := flip("A", "B", "Coal", "FINISHED", 1)
		in.ID = 77
		in.ImportTimestamp = time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)

		r, err := s.Insert(ctx, in)
		require.NoError(t, err)

		all, err := s.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, r.ID, all[0].ID)
		assert.NotEqual(t, uint(77), all[0].ID)
		assert.Equal(t, 2024, all[0].ImportTimestamp.Year())
	})

	t.Run("KeyPartsAreDistinct", func(t *testing.T) {
		s := setupTest(t)
		for _, tr := range []models.Trade{
			flip("T1", "T2", "Coal", "", 0),
			flip("T1", "T3", "Coal", "", 0),
			flip("T0", "T2", "Coal", "", 0),
			flip("T1", "T2", "Iron ore", "", 0),
		} {
			r, err := s.Insert(ctx, tr)
			require.NoError(t, err)
			assert.True(t, r.Inserted)
		}
	})
}

func TestStore_InsertSilentlyDropped(t *testing.T) {
	// Arrange
	s := setupTest(t)
	require.NoError(t, s.db.Exec(
		"CREATE TRIGGER drop_inserts BEFORE INSERT ON trades BEGIN SELECT RAISE(IGNORE); END").Error)

	// Act
	res, err := s.Insert(context.Background(), flip("T1", "T2", "Coal", "FINISHED", 10))

	// Assert
	assert.ErrorIs(t, err, ErrNotStored)
	assert.Equal(t, models.InsertResult{}, res)
}

func TestStore_Exists(t *testing.T) {
	ctx := context.Background()
	s := setupTest(t)
	_, err := s.Insert(ctx, flip("T1", "T2", "Coal", "FINISHED", 5))
	require.NoError(t, err)

	ok, err := s.Exists(ctx, models.NaturalKey{FirstBuyTime: "T1", LastSellTime: "T2", Item: "Coal"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(ctx, models.NaturalKey{FirstBuyTime: "T1", LastSellTime: "T2", Item: "coal"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_List(t *testing.T) {
	ctx := context.Background()
	s := setupTest(t)
	for _, tr := range []models.Trade{
		flip("1", "1", "Coal", "FINISHED", 10),
		flip("2", "2", "Coal", "selling", 0),
		flip("3", "3", "Logs", "Finished", 20),
		flip("4", "4", "Logs", "CANCELLED", 0),
	} {
		_, err := s.Insert(ctx, tr)
		require.NoError(t, err)
	}

	t.Run("AllMostRecentFirst", func(t *testing.T) {
		trades, err := s.List(ctx, "")
		require.NoError(t, err)
		require.Len(t, trades, 4)
		assert.Equal(t, "4", trades[0].FirstBuyTime)
		assert.Equal(t, "1", trades[3].FirstBuyTime)
	})

	t.Run("StatusFilterIgnoresCase", func(t *testing.T) {
		trades, err := s.List(ctx, "finished")
		require.NoError(t, err)
		require.Len(t, trades, 2)
		assert.Equal(t, "3", trades[0].FirstBuyTime)
		assert.Equal(t, "1", trades[1].FirstBuyTime)

		trades, err = s.List(ctx, "SELLING")
		require.NoError(t, err)
		require.Len(t, trades, 1)
		assert.Equal(t, "selling", trades[0].Status)
	})

	t.Run("NoMatchIsEmptyNotNil", func(t *testing.T) {
		trades, err := s.List(ctx, "UNKNOWN")
		require.NoError(t, err)
		assert.NotNil(t, trades)
		assert.Empty(t, trades)
	})
}

func TestStore_Aggregates(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyStore", func(t *testing.T) {
		s := setupTest(t)

		totals, err := s.FinishedTotals(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.FinishedTotals{}, totals)

		top, err := s.TopFlips(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, top)

		items, err := s.TopItems(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("Populated", func(t *testing.T) {
		s := setupTest(t)
		for _, tr := range []models.Trade{
			flip("1", "1", "Coal", "FINISHED", 10),
			flip("2", "2", "Logs", "finished", 30),
			flip("3", "3", "Coal", "Finished", 25),
			flip("4", "4", "Runite bar", "SELLING", 500),
			flip("5", "5", "Iron ore", "FINISHED", -5),
			flip("6", "6", "Gold bar", "FINISHED", 30),
		} {
			_, err := s.Insert(ctx, tr)
			require.NoError(t, err)
		}

		totals, err := s.FinishedTotals(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(90), totals.Profit)
		assert.Equal(t, int64(5), totals.Count)

		top, err := s.TopFlips(ctx, 3)
		require.NoError(t, err)
		require.Len(t, top, 3)
		assert.Equal(t, "Runite bar", top[0].Item)
		// Equal profits keep insertion order.
		assert.Equal(t, "Logs", top[1].Item)
		assert.Equal(t, "Gold bar", top[2].Item)

		items, err := s.TopItems(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, []models.ItemProfit{
			{Item: "Coal", TotalProfit: 35, Flips: 2},
			{Item: "Logs", TotalProfit: 30, Flips: 1},
			{Item: "Gold bar", TotalProfit: 30, Flips: 1},
			{Item: "Iron ore", TotalProfit: -5, Flips: 1},
		}, items)
	})
}

func TestStore_PingClosed(t *testing.T) {
	s := setupTest(t)
	require.NoError(t, s.Ping(context.Background()))

	sqlDB, err := s.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	assert.ErrorIs(t, s.Ping(context.Background()), database.ErrStoreUnavailable)
	_, err = s.Count(context.Background())
	assert.ErrorIs(t, err, database.ErrStoreUnavailable)
}
