package pattern

import (
	"log/slog"
	"sort"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
)

// Ensure Engine implements the pattern interfaces.
var (
	_ Classifier = (*Engine)(nil)
	_ Matcher    = (*Engine)(nil)
)

// Options configures an Engine.
type Options struct {
	// ReviewThreshold is the confidence below which a classified transaction
	// still needs review. Zero means model.DefaultReviewThreshold.
	ReviewThreshold float64
}

// Engine classifies transactions against an immutable snapshot of rules.
// It never mutates the rules it was given and is safe for concurrent use.
type Engine struct {
	rules           []compiledRule
	reviewThreshold float64
}

// NewEngine snapshots rules in evaluation order: user-owned rules before global
// rules, then ascending priority, then the order they were given in.
func NewEngine(rules []Rule, opts Options) *Engine {
	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		c := compileRule(rule)
		if c.invalid {
			slog.Warn("rule has an invalid regex and will never match",
				"rule_id", rule.ID,
				"pattern", rule.Pattern)
		}
		compiled = append(compiled, c)
	}

	sort.SliceStable(compiled, func(i, j int) bool {
		ti, tj := scopeTier(compiled[i].rule.Scope), scopeTier(compiled[j].rule.Scope)
		if ti != tj {
			return ti < tj
		}
		return compiled[i].rule.Priority < compiled[j].rule.Priority
	})

	threshold := opts.ReviewThreshold
	if threshold <= 0 {
		threshold = model.DefaultReviewThreshold
	}

	return &Engine{
		rules:           compiled,
		reviewThreshold: threshold,
	}
}

func scopeTier(scope model.RuleScope) int {
	switch scope {
	case model.ScopeUser:
		return 0
	case model.ScopeGlobal:
		return 1
	}
	return 2
}

// Rules returns the snapshot in evaluation order.
func (e *Engine) Rules() []Rule {
	rules := make([]Rule, len(e.rules))
	for i, c := range e.rules {
		rules[i] = c.rule
	}
	return rules
}

// Classify returns the result of the first rule that matches txn. No match is
// a valid outcome: Uncategorized with zero confidence.
func (e *Engine) Classify(txn model.Transaction) model.ClassificationResult {
	for i := range e.rules {
		c := &e.rules[i]
		if !c.matches(txn) {
			continue
		}
		id := c.rule.ID
		return model.ClassificationResult{
			RuleID:      &id,
			Category:    c.rule.Category,
			Subcategory: c.rule.Subcategory,
			Confidence:  ConfidenceFor(c.rule),
		}
	}
	return model.ClassificationResult{Category: model.UncategorizedCategory}
}

// Match returns every rule that matches txn, in evaluation order.
func (e *Engine) Match(txn model.Transaction) []Rule {
	var matches []Rule
	for i := range e.rules {
		if e.rules[i].matches(txn) {
			matches = append(matches, e.rules[i].rule)
		}
	}
	return matches
}

// Apply returns a copy of txn carrying the classification result.
func (e *Engine) Apply(txn model.Transaction, result model.ClassificationResult) model.Transaction {
	txn.Category = result.Category
	txn.Subcategory = result.Subcategory
	txn.Confidence = result.Confidence
	txn.RuleID = result.RuleID
	txn.NeedsReview = !result.Matched() || result.Confidence < e.reviewThreshold
	return txn
}

// ClassifyAll classifies every transaction and reports which rule matched which
// transaction. The input slice is not modified.
func (e *Engine) ClassifyAll(txns []model.Transaction) ([]model.Transaction, []model.MatchEvent) {
	classified := make([]model.Transaction, len(txns))
	var events []model.MatchEvent

	for i, txn := range txns {
		result := e.Classify(txn)
		classified[i] = e.Apply(txn, result)
		if result.Matched() {
			events = append(events, model.MatchEvent{
				TransactionID: txn.ID,
				RuleID:        *result.RuleID,
			})
		}
	}

	slog.Debug("classified transactions",
		"total", len(txns),
		"matched", len(events),
		"rules", len(e.rules))

	return classified, events
}

// Tally folds match events into per-rule count deltas.
func Tally(events []model.MatchEvent) map[int]int {
	deltas := make(map[int]int)
	for _, event := range events {
		deltas[event.RuleID]++
	}
	return deltas
}
