package main

import (
	"fmt"
	"io"
	"os"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/cli"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/ofx"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/statement"
	"github.com/spf13/cobra"
)

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse bank statement text",
		Long: `Parse the extracted text of a bank statement into transactions.

The text is read from the named file, or from standard input when the file is
omitted or "-". Deposits, checks, card purchases and electronic withdrawals are
recognized by their section headings.

Examples:
  # Show the parsed statement
  bookkeep parse statement.txt

  # Classify and store the transactions
  bookkeep parse statement.txt --save --user alice

  # Convert to OFX for another tool
  pdftotext -layout statement.pdf - | bookkeep parse --format ofx > statement.ofx`,
		Args: cobra.MaximumNArgs(1),
		RunE: runParse,
	}

	cmd.Flags().StringP("format", "o", formatTable, "Output format (table, json, ofx)")
	cmd.Flags().Int("year", 0, "Statement year for MM/DD dates (default: detect from the statement period)")
	cmd.Flags().Int("closing-month", 0, "Statement closing month; later months belong to the previous year")
	cmd.Flags().String("bank-id", "", "Routing number written to OFX output")
	cmd.Flags().String("account-id", "", "Account number written to OFX output")
	addIngestFlags(cmd)

	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	if err := checkFormat(format, formatTable, formatJSON, formatOFX); err != nil {
		return err
	}

	opts := statement.Options{
		ReferenceYear: cfg.Parser.ReferenceYear,
		ClosingMonth:  cfg.Parser.ClosingMonth,
	}
	if cmd.Flags().Changed("year") {
		opts.ReferenceYear, _ = cmd.Flags().GetInt("year")
	}
	if cmd.Flags().Changed("closing-month") {
		opts.ClosingMonth, _ = cmd.Flags().GetInt("closing-month")
		if opts.ClosingMonth < 1 || opts.ClosingMonth > 12 {
			return fmt.Errorf("invalid closing month: %d", opts.ClosingMonth)
		}
	}

	ctx := cli.NewInterruptHandler(os.Stderr).HandleInterrupts(cmd.Context(), "Parsed transactions")

	var path string
	if len(args) > 0 {
		path = args[0]
	}
	text, err := cli.ReadSource(ctx, path)
	if err != nil {
		return err
	}

	result := statement.NewParser(opts, nil).Parse(text)

	result.Transactions, err = ingest(ctx, cfg, readIngestFlags(cmd, cfg), result.Transactions)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case formatJSON:
		return writeJSON(out, result)
	case formatOFX:
		if err := cli.WriteErrors(os.Stderr, result.Errors); err != nil {
			return err
		}
		bankID, _ := cmd.Flags().GetString("bank-id")
		accountID, _ := cmd.Flags().GetString("account-id")
		return ofx.NewExporter(ofx.ExportOptions{BankID: bankID, AcctID: accountID}).Export(out, result.Transactions)
	default:
		return writeStatementReport(out, result)
	}
}

func writeStatementReport(w io.Writer, result *statement.Result) error {
	if result.Period != nil {
		_, _ = fmt.Fprintln(w, cli.FormatTitle(fmt.Sprintf("Statement %s to %s", result.Period.Start, result.Period.End)))
	}
	if err := cli.WriteSectionCounts(w, result.Debug); err != nil {
		return err
	}
	if err := cli.WriteTransactions(w, result.Transactions); err != nil {
		return err
	}
	if err := cli.WriteSummary(w, result.Summary); err != nil {
		return err
	}
	if err := cli.WriteDiscrepancies(w, result.CrossCheck()); err != nil {
		return err
	}
	return cli.WriteErrors(w, result.Errors)
}
