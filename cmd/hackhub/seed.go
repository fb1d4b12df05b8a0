package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hackhub/internal/seed"
	"hackhub/internal/source/sqlite"
)

var seedCmd = &cobra.Command{
	Use:   "seed [fixtures.yaml]",
	Short: "Load YAML fixtures into the SQLite store",
	Long: `Load events and articles into the SQLite database at [source] path
(or --db). Without a file the bundled sample data is used. Existing
records with the same id are replaced.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := ""
		if len(args) == 1 {
			file = args[0]
		}
		path := cfg.Source.Path
		if cmd.Flags().Changed("db") {
			path = dbFlag
		}
		return runSeed(cmd.Context(), cmd.OutOrStdout(), path, file, logger)
	},
}

func runSeed(ctx context.Context, out io.Writer, dbPath, file string, logger *zap.Logger) error {
	data := seed.Default()
	if file != "" {
		var err error
		data, err = seed.LoadFile(file)
		if err != nil {
			return err
		}
	}

	store, err := sqlite.Open(dbPath, sqlite.WithMkdirAll(), sqlite.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("open sqlite store: %w", err)
	}
	defer store.Close()

	if err := store.Import(ctx, data.Events, data.Articles); err != nil {
		return err
	}
	logger.Info("seeded store", zap.String("db", dbPath), zap.Int("events", len(data.Events)), zap.Int("articles", len(data.Articles)))
	fmt.Fprintf(out, "Imported %d events and %d articles into %s\n", len(data.Events), len(data.Articles), dbPath)
	return nil
}
