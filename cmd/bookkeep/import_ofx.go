package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/cli"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/ofx"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/statement"
	"github.com/spf13/cobra"
)

func importOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-ofx <files...>",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import transactions from OFX or QFX (Quicken) files downloaded from your bank.

Examples:
  # Preview a download
  bookkeep import-ofx ~/Downloads/checking_jan_2024.qfx

  # Classify and store every download in a directory
  bookkeep import-ofx ~/Downloads/*.qfx --save`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportOFX,
	}

	cmd.Flags().StringP("format", "o", formatTable, "Output format (table, json)")
	addIngestFlags(cmd)

	return cmd
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	if err := checkFormat(format, formatTable, formatJSON); err != nil {
		return err
	}

	files, err := expandFiles(args)
	if err != nil {
		return err
	}

	ctx := cli.NewInterruptHandler(os.Stderr).HandleInterrupts(cmd.Context(), "Imported transactions")
	parser := ofx.NewParser(nil)

	var all []model.Transaction
	seen := make(map[string]bool)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			slog.Error("Failed to open file", "file", path, "error", err)
			continue
		}
		transactions, err := parser.ParseFile(ctx, f)
		_ = f.Close()
		if err != nil {
			slog.Error("Failed to parse OFX file", "file", path, "error", err)
			continue
		}

		added := 0
		for _, txn := range transactions {
			if seen[txn.Hash] {
				continue
			}
			seen[txn.Hash] = true
			all = append(all, txn)
			added++
		}

		slog.Info("Processed file",
			"file", filepath.Base(path),
			"transactions_found", len(transactions),
			"added", added,
			"duplicates", len(transactions)-added)
	}

	if len(all) == 0 {
		slog.Warn("No transactions found in any file")
		return nil
	}

	all, err = ingest(ctx, cfg, readIngestFlags(cmd, cfg), all)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == formatJSON {
		return writeJSON(out, all)
	}
	if err := cli.WriteTransactions(out, all); err != nil {
		return err
	}
	return cli.WriteSummary(out, statement.Summarize(all))
}

// expandFiles resolves glob patterns. A pattern with no matches is kept when it
// names an existing file.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no files found to import")
	}
	return files, nil
}
