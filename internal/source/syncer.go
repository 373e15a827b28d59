package source

import (
	"context"
	"fmt"
	"time"

	"osrs-trade-tracker/internal/ingest"

	"go.uber.org/zap"
)

// BatchImporter imports already parsed rows.
type BatchImporter interface {
	ImportBatch(ctx context.Context, rows []ingest.Row) (ingest.Result, error)
}

// Syncer re-imports the remote export on a fixed interval. Already stored
// flips are reported as duplicates, so each pass only adds what is new.
type Syncer struct {
	fetcher  ExportFetcher
	importer BatchImporter
	interval time.Duration
	logger   *zap.Logger
}

// NewSyncer creates a Syncer.
func NewSyncer(fetcher ExportFetcher, importer BatchImporter, interval time.Duration, logger *zap.Logger) *Syncer {
	return &Syncer{
		fetcher:  fetcher,
		importer: importer,
		interval: interval,
		logger:   logger.Named("syncer"),
	}
}

// SyncOnce fetches the export and imports it.
func (s *Syncer) SyncOnce(ctx context.Context) (ingest.Result, error) {
	rows, err := s.fetcher.FetchExport(ctx)
	if err != nil {
		return ingest.Result{}, fmt.Errorf("fetch export: %w", err)
	}
	return s.importer.ImportBatch(ctx, rows)
}

// Run syncs immediately and then on every tick until ctx is cancelled.
// A failed pass is logged and retried on the next tick.
func (s *Syncer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Starting sync loop", zap.Duration("interval", s.interval))
	s.sync(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping sync loop...")
			return
		case <-ticker.C:
			s.sync(ctx)
		}
	}
}

func (s *Syncer) sync(ctx context.Context) {
	res, err := s.SyncOnce(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("Sync failed", zap.Error(err))
		}
		return
	}
	s.logger.Info("Sync complete",
		zap.String("batch_id", res.BatchID),
		zap.Int("new_records", res.NewRecords),
		zap.Int("duplicates", res.Duplicates),
	)
}
