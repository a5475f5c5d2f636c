package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/classification"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/cli"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/common"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/normalize"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/pattern"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/service"
	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rules",
		Aliases: []string{"rule"},
		Short:   "Manage classification rules",
		Long: `Manage the rules that map transaction descriptions to categories.

User rules are evaluated before global rules, then by ascending priority. The
first matching rule wins.`,
	}

	// Subcommands
	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesShowCmd())
	cmd.AddCommand(rulesCreateCmd())
	cmd.AddCommand(rulesEditCmd())
	cmd.AddCommand(rulesDeleteCmd())
	cmd.AddCommand(rulesTestCmd())
	cmd.AddCommand(rulesImportCmd())
	cmd.AddCommand(rulesExportCmd())
	cmd.AddCommand(rulesSeedCmd())

	return cmd
}

func parseRuleID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid rule ID: %s", arg)
	}
	return id, nil
}

func rulesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List classification rules",
		Long: `List rules in evaluation order. With --user only the rules visible to that
user are shown, otherwise every rule is listed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, cleanup, err := getDatabase(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			user, _ := cmd.Flags().GetString("user")
			var rules []model.ClassificationRule
			if user != "" {
				rules, err = db.ListRules(ctx, user)
			} else {
				rules, err = db.ListAllRules(ctx)
			}
			if err != nil {
				return fmt.Errorf("failed to get rules: %w", err)
			}

			return cli.WriteRules(cmd.OutOrStdout(), rules)
		},
	}

	cmd.Flags().StringP("user", "u", "", "Only show rules visible to this user")
	return cmd
}

func rulesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show rule details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseRuleID(args[0])
			if err != nil {
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

			rule, err := db.GetRule(ctx, id)
			if err != nil {
				return ruleLookupError(id, err)
			}

			return cli.WriteRule(cmd.OutOrStdout(), *rule)
		},
	}
}

func ruleLookupError(id int, err error) error {
	if errors.Is(err, common.ErrNotFound) {
		return common.NewUserError(fmt.Sprintf("rule %d not found", id), err)
	}
	return fmt.Errorf("failed to get rule %d: %w", id, err)
}

func rulesCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a classification rule",
		Long: `Create a new classification rule.

Examples:
  bookkeep rules create --pattern chevron --category "Car and Truck Expenses" --direction negative
  bookkeep rules create --pattern '^SQ \*' --type regex --category Supplies --user alice`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			rule, err := ruleFromFlags(cmd)
			if err != nil {
				return err
			}
			if err := pattern.ValidateRule(rule); err != nil {
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

			if err := db.CreateRule(ctx, &rule); err != nil {
				return fmt.Errorf("failed to create rule: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created rule %d", rule.ID)))
			slog.Debug("rule created", "id", rule.ID, "pattern", rule.Pattern, "category", rule.Category)
			return nil
		},
	}

	// Required flags
	cmd.Flags().StringP("pattern", "p", "", "Pattern matched against descriptions (required)")
	cmd.Flags().StringP("category", "c", "", "Category assigned on a match (required)")

	// Optional flags
	cmd.Flags().StringP("name", "n", "", "Name for the rule")
	cmd.Flags().StringP("type", "t", string(model.PatternContains), "Pattern type (contains, exact, starts_with, ends_with, regex)")
	cmd.Flags().String("subcategory", "", "Subcategory assigned on a match")
	cmd.Flags().String("direction", string(model.DirectionAny), "Amount direction (positive, negative, any)")
	cmd.Flags().StringP("user", "u", "", "Make the rule private to this user")
	cmd.Flags().Int("priority", 0, "Priority (lower values are evaluated first)")
	cmd.Flags().Bool("high-trust", false, "Score regex matches as high confidence")
	cmd.Flags().Bool("inactive", false, "Create the rule disabled")

	if err := cmd.MarkFlagRequired("pattern"); err != nil {
		slog.Error("failed to mark flag as required", "error", err)
	}
	if err := cmd.MarkFlagRequired("category"); err != nil {
		slog.Error("failed to mark flag as required", "error", err)
	}

	return cmd
}

func ruleFromFlags(cmd *cobra.Command) (model.ClassificationRule, error) {
	name, _ := cmd.Flags().GetString("name")
	patternText, _ := cmd.Flags().GetString("pattern")
	patternType, _ := cmd.Flags().GetString("type")
	category, _ := cmd.Flags().GetString("category")
	subcategory, _ := cmd.Flags().GetString("subcategory")
	direction, _ := cmd.Flags().GetString("direction")
	user, _ := cmd.Flags().GetString("user")
	priority, _ := cmd.Flags().GetInt("priority")
	highTrust, _ := cmd.Flags().GetBool("high-trust")
	inactive, _ := cmd.Flags().GetBool("inactive")

	if patternText == "" || category == "" {
		return model.ClassificationRule{}, fmt.Errorf("pattern and category are required")
	}
	if name == "" {
		name = category
	}

	rule := model.ClassificationRule{
		Name:        name,
		Pattern:     patternText,
		PatternType: model.PatternType(patternType),
		Category:    category,
		Subcategory: subcategory,
		Direction:   model.AmountDirection(direction),
		Scope:       model.ScopeGlobal,
		Priority:    priority,
		IsActive:    !inactive,
		HighTrust:   highTrust,
	}
	if user != "" {
		rule.Scope = model.ScopeUser
		rule.OwnerID = user
	}
	rule.ApplyDefaults()
	return rule, nil
}

func rulesEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a classification rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseRuleID(args[0])
			if err != nil {
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

			rule, err := db.GetRule(ctx, id)
			if err != nil {
				return ruleLookupError(id, err)
			}

			if !applyRuleEdits(cmd, rule) {
				slog.Info("No changes specified")
				return nil
			}

			if err := pattern.ValidateRule(*rule); err != nil {
				return err
			}
			if err := db.UpdateRule(ctx, rule); err != nil {
				return fmt.Errorf("failed to update rule: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Updated rule %d", id)))
			return nil
		},
	}

	cmd.Flags().StringP("name", "n", "", "New name")
	cmd.Flags().StringP("pattern", "p", "", "New pattern")
	cmd.Flags().StringP("type", "t", "", "New pattern type")
	cmd.Flags().StringP("category", "c", "", "New category")
	cmd.Flags().String("subcategory", "", "New subcategory")
	cmd.Flags().String("direction", "", "New amount direction")
	cmd.Flags().Int("priority", 0, "New priority")
	cmd.Flags().Bool("active", true, "Set active status")
	cmd.Flags().Bool("high-trust", false, "Set high trust")

	return cmd
}

// applyRuleEdits copies changed flags onto rule and reports whether anything changed.
func applyRuleEdits(cmd *cobra.Command, rule *model.ClassificationRule) bool {
	changed := false
	setString := func(flag string, target *string) {
		if !cmd.Flags().Changed(flag) {
			return
		}
		*target, _ = cmd.Flags().GetString(flag)
		changed = true
	}

	setString("name", &rule.Name)
	setString("pattern", &rule.Pattern)
	setString("category", &rule.Category)
	setString("subcategory", &rule.Subcategory)

	if cmd.Flags().Changed("type") {
		value, _ := cmd.Flags().GetString("type")
		rule.PatternType = model.PatternType(value)
		changed = true
	}
	if cmd.Flags().Changed("direction") {
		value, _ := cmd.Flags().GetString("direction")
		rule.Direction = model.AmountDirection(value)
		changed = true
	}
	if cmd.Flags().Changed("priority") {
		rule.Priority, _ = cmd.Flags().GetInt("priority")
		changed = true
	}
	if cmd.Flags().Changed("active") {
		rule.IsActive, _ = cmd.Flags().GetBool("active")
		changed = true
	}
	if cmd.Flags().Changed("high-trust") {
		rule.HighTrust, _ = cmd.Flags().GetBool("high-trust")
		changed = true
	}
	return changed
}

func rulesDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a classification rule",
		Long: `Delete a rule. Stored transactions it classified keep their category but
no longer reference the rule.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseRuleID(args[0])
			if err != nil {
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

			rule, err := db.GetRule(ctx, id)
			if err != nil {
				return ruleLookupError(id, err)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "About to delete rule:")
			if err := cli.WriteRule(out, *rule); err != nil {
				return err
			}

			// Get confirmation unless --force flag is set
			force, _ := cmd.Flags().GetBool("force")
			if !force {
				ok, err := cli.Confirm(ctx, cmd.InOrStdin(), out, "Are you sure you want to delete this rule?")
				if err != nil {
					return err
				}
				if !ok {
					slog.Info("Deletion canceled")
					return nil
				}
			}

			if err := db.DeleteRule(ctx, id); err != nil {
				return fmt.Errorf("failed to delete rule: %w", err)
			}

			_, _ = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Deleted rule %d", id)))
			return nil
		},
	}

	cmd.Flags().BoolP("force", "f", false, "Skip confirmation prompt")
	return cmd
}

func rulesTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <description>",
		Short: "Test rules against a description",
		Long: `Show every category the rules would consider for a transaction, best first.
Match counts are not changed.

Examples:
  bookkeep rules test "CHEVRON 0042 MIAMI FL"
  bookkeep rules test "ACME PAYROLL" --kind income --user alice`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			kind, _ := cmd.Flags().GetString("kind")
			amountText, _ := cmd.Flags().GetString("amount")
			user, _ := cmd.Flags().GetString("user")

			txn := model.Transaction{
				Description: args[0],
				Kind:        model.TransactionKind(kind),
			}
			if !txn.Kind.Valid() {
				return fmt.Errorf("invalid kind: %s (valid: income, expense, transfer)", kind)
			}
			amount, err := normalize.Amount(amountText)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amountText, err)
			}
			txn.Amount = amount.Abs()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if user == "" {
				user = cfg.Classify.User
			}

			db, cleanup, err := getDatabase(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			engine, err := service.NewIngestor(db, service.Options{
				UserID:          user,
				ReviewThreshold: cfg.Classify.ReviewThreshold,
			}).Engine(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			result := engine.Classify(txn)
			classified := engine.Apply(txn, result)
			status := cli.FormatSuccess("Classified as " + classified.Category)
			if classified.NeedsReview {
				status = cli.FormatWarning("Needs review: " + classified.Category)
			}
			_, _ = fmt.Fprintln(out, status)

			return cli.WriteSuggestions(out, pattern.NewSuggester(engine).Suggest(txn))
		},
	}

	cmd.Flags().String("kind", string(model.KindExpense), "Transaction kind (income, expense, transfer)")
	cmd.Flags().String("amount", "0.00", "Transaction amount")
	cmd.Flags().StringP("user", "u", "", "User whose rules apply in addition to global rules")
	return cmd
}

func rulesImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import rules from a YAML file",
		Long: `Create every rule listed in a YAML file. The whole file is validated first;
if any rule is invalid nothing is imported.

  rules:
    - name: Fuel
      pattern: chevron
      category: Car and Truck Expenses
      direction: negative
    - pattern: '^SQ \*'
      pattern_type: regex
      category: Supplies
      scope: user
      owner_id: alice`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer func() { _ = f.Close() }()

			rules, err := decodeRules(f)
			if err != nil {
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

			for i := range rules {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := db.CreateRule(ctx, &rules[i]); err != nil {
					return fmt.Errorf("failed to create rule %q: %w", rules[i].Pattern, err)
				}
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Imported %d rule(s)", len(rules))))
			return nil
		},
	}
}

func rulesExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write every rule as YAML",
		Long:  `Write every rule in the format read by "rules import".`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, cleanup, err := getDatabase(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			rules, err := db.ListAllRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to get rules: %w", err)
			}
			return encodeRules(cmd.OutOrStdout(), rules)
		},
	}
}

func rulesSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Install the built-in global rules",
		Long: `Install the built-in global rules for common bank fees, utilities, fuel,
supplies, taxes and transfers. They are evaluated after rules created with the
default priority. Rules that are already installed are skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, cleanup, err := getDatabase(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			created, err := classification.Seed(ctx, db)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Installed %d default rule(s)", created)))
			return nil
		},
	}
}
