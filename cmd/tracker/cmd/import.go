package cmd

import (
	"fmt"
	"io"
	"os"

	"osrs-trade-tracker/internal/ingest"
	"osrs-trade-tracker/internal/source"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var importCmd = &cobra.Command{
	Use:   "import [file|-]",
	Short: "Import a ledger export",
	Long: `Import a CSV ledger export. Flips whose first buy time, last sell time and
item are already stored are counted as duplicates and left untouched.

Examples:
  tracker import flips.csv
  cat flips.csv | tracker import -
  tracker import --url https://docs.google.com/.../export?format=csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

var importURL string

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importURL, "url", "", "fetch the export from this URL (defaults to source.url)")
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	im := ingest.NewImporter(a.store, a.log)

	var res ingest.Result
	if len(args) == 0 {
		if importURL != "" {
			a.cfg.Source.URL = importURL
		}
		rows, err := source.NewClient(&a.cfg.Source, a.log).FetchExport(ctx)
		if err != nil {
			return fmt.Errorf("fetch export: %w", err)
		}
		res, err = im.ImportBatch(ctx, rows)
		if err != nil {
			return fmt.Errorf("import: %w", err)
		}
	} else {
		var r io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("%w: %w", ingest.ErrMalformedInput, err)
			}
			defer f.Close()
			r = f
		}
		res, err = im.ImportCSV(ctx, r)
		if err != nil {
			return fmt.Errorf("import: %w", err)
		}
	}

	for _, f := range res.Failures {
		a.log.Warn("Row not imported", zap.Int("row", f.Row), zap.String("item", f.Item), zap.Error(f.Err))
	}
	return printJSON(cmd.OutOrStdout(), res)
}
