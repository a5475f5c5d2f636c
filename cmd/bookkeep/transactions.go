package main

import (
	"fmt"
	"os"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/cli"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/normalize"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/service"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/storage"
	"github.com/spf13/cobra"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"txns"},
		Short:   "Inspect and reclassify stored transactions",
	}

	cmd.AddCommand(transactionsListCmd())
	cmd.AddCommand(transactionsClassifyCmd())

	return cmd
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("review", false, "Only transactions that need review")
	cmd.Flags().String("section", "", "Only transactions from this section (deposits, checks, card, electronic, manual)")
	cmd.Flags().StringP("category", "c", "", "Only transactions in this category")
	cmd.Flags().String("from", "", "Start date, inclusive (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "End date, inclusive (YYYY-MM-DD)")
	cmd.Flags().IntP("limit", "l", 0, "Maximum number of transactions (0 for all)")
}

func filterFromFlags(cmd *cobra.Command) (storage.TransactionFilter, error) {
	var filter storage.TransactionFilter

	if cmd.Flags().Changed("review") {
		review, _ := cmd.Flags().GetBool("review")
		filter.NeedsReview = &review
	}

	section, _ := cmd.Flags().GetString("section")
	if section != "" {
		filter.Section = model.SectionCode(section)
		if !filter.Section.Valid() {
			return filter, fmt.Errorf("invalid section: %s", section)
		}
	}

	filter.Category, _ = cmd.Flags().GetString("category")
	filter.Limit, _ = cmd.Flags().GetInt("limit")
	if filter.Limit < 0 {
		return filter, fmt.Errorf("invalid limit: %d", filter.Limit)
	}

	for _, bound := range []struct {
		target *string
		flag   string
	}{
		{flag: "from", target: &filter.From},
		{flag: "to", target: &filter.To},
	} {
		value, _ := cmd.Flags().GetString(bound.flag)
		if value == "" {
			continue
		}
		if _, err := time.Parse(normalize.ISODateLayout, value); err != nil {
			return filter, fmt.Errorf("invalid --%s date %q, expected YYYY-MM-DD", bound.flag, value)
		}
		*bound.target = value
	}

	return filter, nil
}

func transactionsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			filter, err := filterFromFlags(cmd)
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("format")
			if err := checkFormat(format, formatTable, formatJSON); err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, cleanup, err := getDatabase(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			txns, err := db.ListTransactions(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}

			out := cmd.OutOrStdout()
			if format == formatJSON {
				return writeJSON(out, txns)
			}

			if totals, _ := cmd.Flags().GetBool("totals"); totals {
				return cli.WriteCategoryTotals(out, txns)
			}
			return cli.WriteTransactions(out, txns)
		},
	}

	addFilterFlags(cmd)
	cmd.Flags().StringP("format", "o", formatTable, "Output format (table, json)")
	cmd.Flags().Bool("totals", false, "Show expense totals per category instead of transactions")
	return cmd
}

func transactionsClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Re-run rules over stored transactions",
		Long: `Classify stored transactions again with the current rules and write the
results back. Use the filter flags to limit which transactions are touched,
for example --review to only revisit transactions that still need review.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := filterFromFlags(cmd)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			user, _ := cmd.Flags().GetString("user")
			if user == "" {
				user = cfg.Classify.User
			}

			ctx := cli.NewInterruptHandler(os.Stderr).HandleInterrupts(cmd.Context(), "")

			db, cleanup, err := getDatabase(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			batch, err := service.NewIngestor(db, service.Options{
				Progress:        os.Stderr,
				UserID:          user,
				ReviewThreshold: cfg.Classify.ReviewThreshold,
			}).Reclassify(ctx, filter)
			if err != nil {
				return err
			}

			review := 0
			for i := range batch.Transactions {
				if batch.Transactions[i].NeedsReview {
					review++
				}
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
				"Classified %d transaction(s): %d matched a rule, %d need review",
				len(batch.Transactions), batch.Matched, review)))
			return nil
		},
	}

	addFilterFlags(cmd)
	cmd.Flags().StringP("user", "u", "", "User whose rules apply in addition to global rules (default: classify.user)")
	return cmd
}
