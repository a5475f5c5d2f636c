package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/cli"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/common"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/config"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/service"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Output formats.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatOFX   = "ofx"
)

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return config.Config{}, common.NewUserError("invalid configuration", err)
	}
	return cfg, nil
}

// getDatabase opens and migrates the configured database. The returned cleanup
// func closes it.
func getDatabase(ctx context.Context, cfg config.Config) (*storage.SQLiteStorage, func(), error) {
	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	cleanup := func() {
		if err := store.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}
	return store, cleanup, nil
}

func checkFormat(format string, allowed ...string) error {
	if slices.Contains(allowed, format) {
		return nil
	}
	return fmt.Errorf("invalid format %q (valid: %s)", format, strings.Join(allowed, ", "))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// ingestFlags are shared by every command that produces new transactions.
type ingestFlags struct {
	user     string
	classify bool
	save     bool
	pending  bool
}

func addIngestFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("classify", false, "Classify transactions with stored rules")
	cmd.Flags().Bool("save", false, "Store transactions in the database (implies --classify)")
	cmd.Flags().StringP("user", "u", "", "User whose rules apply in addition to global rules (default: classify.user)")
}

func readIngestFlags(cmd *cobra.Command, cfg config.Config) ingestFlags {
	classify, _ := cmd.Flags().GetBool("classify")
	save, _ := cmd.Flags().GetBool("save")
	user, _ := cmd.Flags().GetString("user")
	if user == "" {
		user = cfg.Classify.User
	}
	return ingestFlags{
		user:     user,
		classify: classify || save,
		save:     save,
	}
}

// ingest classifies and stores txns as requested by flags. The returned slice
// carries the classification results.
func ingest(ctx context.Context, cfg config.Config, flags ingestFlags, txns []model.Transaction) ([]model.Transaction, error) {
	if !flags.classify || len(txns) == 0 {
		return txns, nil
	}

	db, cleanup, err := getDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	ingestor := service.NewIngestor(db, service.Options{
		Progress:        os.Stderr,
		UserID:          flags.user,
		ReviewThreshold: cfg.Classify.ReviewThreshold,
	})

	var batch *service.Batch
	if flags.pending {
		batch, err = ingestor.ClassifyPending(ctx, txns)
	} else {
		batch, err = ingestor.Classify(ctx, txns)
	}
	if err != nil {
		return nil, err
	}

	if !flags.save {
		return batch.Transactions, nil
	}

	result, err := ingestor.Commit(ctx, batch)
	if err != nil {
		return nil, err
	}

	_, _ = fmt.Fprintln(os.Stderr, cli.FormatSuccess(fmt.Sprintf(
		"Saved %d transaction(s), skipped %d duplicate(s), %d rule(s) matched",
		result.Inserted, result.Duplicates, result.Rules)))
	return batch.Transactions, nil
}
