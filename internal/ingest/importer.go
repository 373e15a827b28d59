package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"

	"osrs-trade-tracker/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the part of the record store the importer writes through.
type Store interface {
	Ping(ctx context.Context) error
	Exists(ctx context.Context, key models.NaturalKey) (bool, error)
	Insert(ctx context.Context, trade models.Trade) (models.InsertResult, error)
	Count(ctx context.Context) (int64, error)
}

// RowError is a failure confined to one row. It is counted and logged; the
// batch continues.
type RowError struct {
	Row  int // 1-based position in the batch
	Item string
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d (%s): %v", e.Row, e.Item, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

var errEmptyKey = errors.New("first buy time, last sell time and item are all empty")

// Result tallies one import batch.
type Result struct {
	BatchID       string      `json:"batch_id"`
	NewRecords    int         `json:"new_records"`
	Duplicates    int         `json:"duplicates"`
	Errors        int         `json:"errors"`
	ParseWarnings int         `json:"parse_warnings"` // per-row count of numeric cells defaulted to 0
	TotalInStore  int64       `json:"total_in_store"`
	Failures      []*RowError `json:"-"`
}

// Importer drives raw rows through normalization, duplicate detection and
// insertion. Batches must not run concurrently against the same store.
type Importer struct {
	store  Store
	logger *zap.Logger
}

// NewImporter creates an Importer writing to store.
func NewImporter(store Store, logger *zap.Logger) *Importer {
	return &Importer{store: store, logger: logger.Named("importer")}
}

// ImportCSV reads a whole CSV export and imports it. An unreadable export
// fails with ErrMalformedInput before any row is stored.
func (im *Importer) ImportCSV(ctx context.Context, r io.Reader) (Result, error) {
	rows, err := ReadRows(r)
	if err != nil {
		im.logger.Error("Failed to read export", zap.Error(err))
		return Result{}, err
	}
	return im.ImportBatch(ctx, rows)
}

// ImportBatch processes rows in order. Row failures are isolated in the
// result; only an unreachable store or a cancelled context fails the call.
// Rows with blank item or status are stored; only a row whose first buy
// time, last sell time and item are all empty is rejected as a RowError.
// Unparsable numeric cells do not fail a row; they are counted in
// ParseWarnings.
func (im *Importer) ImportBatch(ctx context.Context, rows []Row) (Result, error) {
	res := Result{BatchID: uuid.NewString()}
	l := im.logger.With(zap.String("batch_id", res.BatchID), zap.Int("rows", len(rows)))

	if err := im.store.Ping(ctx); err != nil {
		l.Error("Record store unavailable, aborting import", zap.Error(err))
		return Result{}, err
	}
	l.Info("Starting import")

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			l.Warn("Import interrupted", zap.Int("processed", i), zap.Error(err))
			return res, fmt.Errorf("import interrupted after %d rows: %w", i, err)
		}

		trade, issues := Normalize(row)
		res.ParseWarnings += len(issues)
		for _, is := range issues {
			l.Debug("Unparsable numeric cell defaulted to 0",
				zap.Int("row", i+1), zap.String("field", is.Field), zap.String("value", is.Value))
		}

		inserted, err := im.importRow(ctx, trade)
		if err != nil {
			rowErr := &RowError{Row: i + 1, Item: trade.Item, Err: err}
			res.Errors++
			res.Failures = append(res.Failures, rowErr)
			l.Warn("Failed to import row", zap.Int("row", rowErr.Row), zap.String("item", trade.Item), zap.Error(err))
			continue
		}
		if inserted {
			res.NewRecords++
		} else {
			res.Duplicates++
		}
	}

	total, err := im.store.Count(ctx)
	if err != nil {
		l.Error("Failed to count records after import", zap.Error(err))
		return Result{}, err
	}
	res.TotalInStore = total

	l.Info("Import complete",
		zap.Int("new_records", res.NewRecords),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("errors", res.Errors),
		zap.Int("parse_warnings", res.ParseWarnings),
		zap.Int64("total_in_store", res.TotalInStore),
	)
	return res, nil
}

// importRow reports whether the trade was newly stored.
func (im *Importer) importRow(ctx context.Context, trade models.Trade) (bool, error) {
	if trade.FirstBuyTime == "" && trade.LastSellTime == "" && trade.Item == "" {
		return false, errEmptyKey
	}

	exists, err := im.store.Exists(ctx, trade.Key())
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	r, err := im.store.Insert(ctx, trade)
	if err != nil {
		return false, err
	}
	return r.Inserted, nil
}
