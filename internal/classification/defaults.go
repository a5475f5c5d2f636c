// Package classification holds the built-in rule set installed by "rules seed".
package classification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/pattern"
)

// DefaultPriority places built-in rules after anything a user creates with the
// default priority of zero.
const DefaultPriority = 100

// defaultRule is one row of the built-in table.
type defaultRule struct {
	name      string
	regex     string
	category  string
	direction model.AmountDirection
	priority  int
	highTrust bool
}

var defaultRules = []defaultRule{
	// Income
	{
		name:      "Card and mobile deposits",
		regex:     `\b(REMOTE\s+ONLINE\s+DEPOSIT|MOBILE\s+DEPOSIT|SQUARE\s+INC|STRIPE|PAYPAL\s+TRANSFER)\b`,
		category:  "Gross Receipts",
		direction: model.DirectionPositive,
	},
	{
		name:      "Interest earned",
		regex:     `\b(INTEREST\s+PAYMENT|INT\s+EARNED|INTEREST\s+EARNED)\b`,
		category:  "Interest Income",
		direction: model.DirectionPositive,
		highTrust: true,
	},
	{
		name:      "Refunds",
		regex:     `\b(REFUND|REIMB|REIMBURSEMENT|RETURN)\b`,
		category:  "Refunds",
		direction: model.DirectionPositive,
		priority:  10,
	},

	// Transfers
	{
		name:     "Account transfer",
		regex:    `\b(ONLINE\s+TRANSFER|TRANSFER\s+(TO|FROM)|XFER|ZELLE)\b`,
		category: "Transfer",
		priority: 5,
	},
	{
		name:      "Card payment",
		regex:     `\b(PAYMENT\s+TO\s+CHASE\s+CARD|CREDIT\s+CARD\s+PAY|CARD\s+PAYMENT|EPAY)\b`,
		category:  "Transfer",
		direction: model.DirectionNegative,
		priority:  5,
	},

	// Expenses
	{
		name:      "Bank fees",
		regex:     `\b(SERVICE\s+FEE|MONTHLY\s+SERVICE|OVERDRAFT|NSF|WIRE\s+FEE|FOREIGN\s+TRANSACTION\s+FEE)\b`,
		category:  "Bank Service Charges",
		direction: model.DirectionNegative,
		highTrust: true,
	},
	{
		name:      "Tax payments",
		regex:     `\b(IRS\s+USATAXPYMT|USATAXPYMT|EFTPS|DEPT\s+OF\s+REVENUE|FL\s+DEPT\s+REVENUE)\b`,
		category:  "Taxes and Licenses",
		direction: model.DirectionNegative,
		highTrust: true,
	},
	{
		name:      "Utilities",
		regex:     `\b(FPL|DUKE\s+ENERGY|COMCAST|XFINITY|AT&T|VERIZON|T-MOBILE|WATER\s+UTIL)\b`,
		category:  "Utilities",
		direction: model.DirectionNegative,
	},
	{
		name:      "Fuel",
		regex:     `\b(CHEVRON|SHELL|EXXON|MOBIL|SUNOCO|WAWA|RACETRAC|MARATHON|CITGO)\b`,
		category:  "Car and Truck Expenses",
		direction: model.DirectionNegative,
	},
	{
		name:      "Office supplies",
		regex:     `\b(OFFICE\s+DEPOT|OFFICEMAX|STAPLES)\b`,
		category:  "Office Expense",
		direction: model.DirectionNegative,
	},
	{
		name:      "Hardware and materials",
		regex:     `\b(HOME\s+DEPOT|LOWE'?S|MENARDS|ACE\s+HARDWARE)\b`,
		category:  "Supplies",
		direction: model.DirectionNegative,
	},
	{
		name:      "Software subscriptions",
		regex:     `\b(ADOBE|MICROSOFT|GOOGLE\s+\*?GSUITE|GOOGLE\s+\*?WORKSPACE|INTUIT|DROPBOX)\b`,
		category:  "Software",
		direction: model.DirectionNegative,
	},
	{
		name:      "Insurance",
		regex:     `\b(GEICO|STATE\s+FARM|PROGRESSIVE|ALLSTATE|INSURANCE\s+PREM)\b`,
		category:  "Insurance",
		direction: model.DirectionNegative,
	},
	{
		name:      "Shipping",
		regex:     `\b(USPS|UPS\s+STORE|FEDEX)\b`,
		category:  "Postage and Shipping",
		direction: model.DirectionNegative,
	},
	{
		name:      "Cash withdrawal",
		regex:     `\b(ATM\s+WITHDRAWAL|CASH\s+WITHDRAWAL)\b`,
		category:  "Owner Draw",
		direction: model.DirectionNegative,
		priority:  20,
	},
}

// DefaultRules returns the built-in global rules. Each call returns a fresh slice.
func DefaultRules() []model.ClassificationRule {
	rules := make([]model.ClassificationRule, 0, len(defaultRules))
	for _, d := range defaultRules {
		direction := d.direction
		if direction == "" {
			direction = model.DirectionAny
		}
		rules = append(rules, model.ClassificationRule{
			Name:        d.name,
			Pattern:     d.regex,
			PatternType: model.PatternRegex,
			Category:    d.category,
			Direction:   direction,
			Scope:       model.ScopeGlobal,
			Priority:    DefaultPriority + d.priority,
			IsActive:    true,
			HighTrust:   d.highTrust,
		})
	}
	return rules
}

// RuleStore is the storage Seed writes to.
type RuleStore interface {
	ListAllRules(ctx context.Context) ([]model.ClassificationRule, error)
	CreateRule(ctx context.Context, rule *model.ClassificationRule) error
}

// Seed creates every default rule that is not already stored. A stored global
// rule with the same pattern and category counts as present, so running Seed
// twice creates nothing the second time. It returns the number of rules created.
func Seed(ctx context.Context, store RuleStore) (int, error) {
	existing, err := store.ListAllRules(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list rules: %w", err)
	}

	present := make(map[string]bool, len(existing))
	for _, rule := range existing {
		if rule.Scope == model.ScopeGlobal {
			present[rule.Pattern+"\x00"+rule.Category] = true
		}
	}

	created := 0
	for _, rule := range DefaultRules() {
		if present[rule.Pattern+"\x00"+rule.Category] {
			continue
		}
		if err := pattern.ValidateRule(rule); err != nil {
			return created, fmt.Errorf("default rule %q: %w", rule.Name, err)
		}
		if err := store.CreateRule(ctx, &rule); err != nil {
			return created, fmt.Errorf("failed to create default rule %q: %w", rule.Name, err)
		}
		created++
	}

	slog.Info("Seeded default rules", "created", created, "skipped", len(defaultRules)-created)
	return created, nil
}
