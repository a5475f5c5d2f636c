package testutil

import (
	"fmt"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
	"github.com/shopspring/decimal"
)

// RuleBuilder builds classification rules for tests.
type RuleBuilder struct {
	rule model.ClassificationRule
}

// NewRule starts an active, global "contains" rule.
func NewRule(pattern, category string) *RuleBuilder {
	return &RuleBuilder{rule: model.ClassificationRule{
		Name:        category + " rule",
		Pattern:     pattern,
		PatternType: model.PatternContains,
		Category:    category,
		Direction:   model.DirectionAny,
		Scope:       model.ScopeGlobal,
		IsActive:    true,
	}}
}

// Type sets the pattern type.
func (b *RuleBuilder) Type(t model.PatternType) *RuleBuilder {
	b.rule.PatternType = t
	return b
}

// Expenses restricts the rule to expenses.
func (b *RuleBuilder) Expenses() *RuleBuilder {
	b.rule.Direction = model.DirectionNegative
	return b
}

// Income restricts the rule to income.
func (b *RuleBuilder) Income() *RuleBuilder {
	b.rule.Direction = model.DirectionPositive
	return b
}

// Priority sets the priority.
func (b *RuleBuilder) Priority(p int) *RuleBuilder {
	b.rule.Priority = p
	return b
}

// OwnedBy makes the rule user-scoped.
func (b *RuleBuilder) OwnedBy(userID string) *RuleBuilder {
	b.rule.Scope = model.ScopeUser
	b.rule.OwnerID = userID
	return b
}

// Inactive disables the rule.
func (b *RuleBuilder) Inactive() *RuleBuilder {
	b.rule.IsActive = false
	return b
}

// Build returns the rule.
func (b *RuleBuilder) Build() model.ClassificationRule {
	return b.rule
}

// Transaction returns a valid, hashed transaction for storage tests.
func Transaction(n int, description string, amount string, kind model.TransactionKind) model.Transaction {
	txn := model.Transaction{
		ID:          fmt.Sprintf("txn-%03d", n),
		Date:        fmt.Sprintf("2024-01-%02d", (n%28)+1),
		Amount:      decimal.RequireFromString(amount),
		Kind:        kind,
		Description: description,
		Section:     model.SectionCard,
		Category:    model.UncategorizedCategory,
		NeedsReview: true,
		LineIndex:   n,
	}
	txn.Hash = txn.GenerateHash()
	return txn
}
