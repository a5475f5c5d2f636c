package main

import (
	"fmt"
	"io"
	"os"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/cli"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/paste"
	"github.com/spf13/cobra"
)

func pasteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paste [file]",
		Short: "Stage receipts pasted as text",
		Long: `Parse pasted receipt lines into staged entries. Each line starts with an
amount and a date, in either order, followed by an optional vendor:

  45.10 01/15/2024 Chevron
  2024-01-16 $12.50 Publix

Entries without a category are classified with --classify; --save stores them
as manual transactions.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runPaste,
	}

	cmd.Flags().StringP("format", "o", formatTable, "Output format (table, json)")
	cmd.Flags().StringP("category", "c", "", "Category applied to every entry")
	cmd.Flags().String("vendor", "", "Vendor used when a line has none")
	cmd.Flags().Int("year", 0, "Year for dates written as MM/DD")
	addIngestFlags(cmd)

	return cmd
}

// pasteOutput is the JSON shape of a paste. Transactions is only set when the
// entries were classified or saved.
type pasteOutput struct {
	*paste.Result
	Transactions []model.Transaction `json:"transactions,omitempty"`
}

func runPaste(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	if err := checkFormat(format, formatTable, formatJSON); err != nil {
		return err
	}

	category, _ := cmd.Flags().GetString("category")
	vendor, _ := cmd.Flags().GetString("vendor")
	year, _ := cmd.Flags().GetInt("year")

	ctx := cli.NewInterruptHandler(os.Stderr).HandleInterrupts(cmd.Context(), "Pasted entries")

	var path string
	if len(args) > 0 {
		path = args[0]
	}
	text, err := cli.ReadSource(ctx, path)
	if err != nil {
		return err
	}

	result := paste.Parse(text, paste.Options{
		DefaultCategory: category,
		DefaultVendor:   vendor,
		ReferenceYear:   year,
	})
	output := pasteOutput{Result: result}

	flags := readIngestFlags(cmd, cfg)
	flags.pending = true
	if flags.classify {
		txns, err := result.Transactions()
		if err != nil {
			return err
		}
		output.Transactions, err = ingest(ctx, cfg, flags, txns)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if format == formatJSON {
		return writeJSON(out, output)
	}
	return writePasteReport(out, output)
}

func writePasteReport(w io.Writer, output pasteOutput) error {
	if output.Transactions != nil {
		if err := cli.WriteTransactions(w, output.Transactions); err != nil {
			return err
		}
	} else if err := cli.WritePasteEntries(w, output.Entries); err != nil {
		return err
	}

	stats := output.Stats
	_, _ = fmt.Fprintln(w, cli.SubtleStyle.Render(fmt.Sprintf("%d line(s): %d parsed, %d failed",
		stats.Total, stats.Parsed, stats.Failed)))
	return cli.WriteErrors(w, output.Errors)
}
