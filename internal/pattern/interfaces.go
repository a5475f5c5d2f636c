// Package pattern assigns categories to transactions using prioritized,
// direction-aware classification rules.
package pattern

import (
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
)

// Classifier assigns a category to a transaction.
type Classifier interface {
	// Classify returns the result of the first rule that matches txn.
	Classify(txn model.Transaction) model.ClassificationResult
}

// Matcher evaluates transactions against pattern rules.
type Matcher interface {
	// Match returns every active rule that matches txn, in evaluation order.
	Match(txn model.Transaction) []Rule
}

// Suggestion represents a category suggestion with confidence and reasoning.
type Suggestion struct {
	RuleID     *int
	Category   string
	Reason     string
	Confidence float64
}

// Rule is an alias to the model.ClassificationRule type for convenience.
type Rule = model.ClassificationRule
