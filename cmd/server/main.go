package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"osrs-trade-tracker/internal/analytics"
	"osrs-trade-tracker/internal/api"
	"osrs-trade-tracker/internal/config"
	"osrs-trade-tracker/internal/database"
	"osrs-trade-tracker/internal/ingest"
	"osrs-trade-tracker/internal/logger"
	"osrs-trade-tracker/internal/source"
	"osrs-trade-tracker/internal/store"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Connect to the database
	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	trades := store.New(db, log)
	engine := analytics.NewEngine(trades, cfg.Analytics, log)
	importer := ingest.NewImporter(trades, log)

	server := api.NewServer(cfg.Server.Port, api.NewAPIHandler(log, trades, engine, importer), log)
	server.Start()

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	if cfg.Source.URL != "" && cfg.Source.SyncInterval > 0 {
		syncer := source.NewSyncer(source.NewClient(&cfg.Source, log), importer, cfg.Source.SyncInterval, log)
		go syncer.Run(ctx)
	}
	<-ctx.Done()

	stopCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := server.Stop(stopCtx); err != nil {
		log.Error("Failed to stop API server", zap.Error(err))
	}
	log.Info("Server has been shut down.")
}
