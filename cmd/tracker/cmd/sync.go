package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"osrs-trade-tracker/internal/ingest"
	"osrs-trade-tracker/internal/source"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Re-import the configured export URL on an interval",
	Long: `Fetch the export at source.url, import it, and repeat every --interval
until interrupted. Only flips not already stored are added on each pass.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

var syncInterval time.Duration

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().StringVar(&importURL, "url", "", "export URL (defaults to source.url)")
	syncCmd.Flags().DurationVarP(&syncInterval, "interval", "i", 0, "time between passes (defaults to source.sync_interval)")
}

func runSync(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if importURL != "" {
		a.cfg.Source.URL = importURL
	}
	if a.cfg.Source.URL == "" {
		return source.ErrNoURL
	}
	interval := a.cfg.Source.SyncInterval
	if syncInterval > 0 {
		interval = syncInterval
	}
	if interval <= 0 {
		return fmt.Errorf("sync interval must be positive, got %s", interval)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	im := ingest.NewImporter(a.store, a.log)
	source.NewSyncer(source.NewClient(&a.cfg.Source, a.log), im, interval, a.log).Run(ctx)
	return nil
}
