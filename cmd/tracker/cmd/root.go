package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"osrs-trade-tracker/internal/analytics"
	"osrs-trade-tracker/internal/config"
	"osrs-trade-tracker/internal/database"
	"osrs-trade-tracker/internal/logger"
	"osrs-trade-tracker/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Import flip ledgers and report profit statistics",
	Long: `Tracker imports trade-ledger exports (buy/sell flip records) into a local
store, skipping flips that were already imported, and reports on them:

  - import    load a CSV export from a file, stdin or the configured URL
  - trades    list stored flips, optionally by status
  - dashboard total profit, completed flips and top-ten rankings
  - daily     per-day rollup of imported flips
  - timeline  cumulative net worth per day
  - sync      re-import the configured export URL on an interval`,
	SilenceUsage: true,
}

var (
	configPath string
	dsn        string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./configs", "directory containing config.yml")
	rootCmd.PersistentFlags().StringVar(&dsn, "db", "", "database DSN (overrides config)")
}

// app bundles the components every command needs.
type app struct {
	cfg    config.Config
	log    *zap.Logger
	db     *gorm.DB
	store  *store.Store
	engine *analytics.Engine
}

func newApp() (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dsn != "" {
		cfg.Database.DSN = dsn
	}

	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := store.New(db, log)
	return &app{
		cfg:    cfg,
		log:    log,
		db:     db,
		store:  s,
		engine: analytics.NewEngine(s, cfg.Analytics, log),
	}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.log.Warn("Failed to close database", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
