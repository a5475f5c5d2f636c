package pattern

import (
	"fmt"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
)

// Suggester lists every category the rules would consider for a transaction,
// not just the winner. It backs rule previews and never touches match counts.
type Suggester struct {
	matcher Matcher
}

// NewSuggester creates a new category suggester.
func NewSuggester(matcher Matcher) *Suggester {
	return &Suggester{matcher: matcher}
}

// Suggest returns one suggestion per distinct category, in evaluation order.
// The first suggestion is the one Classify would pick.
func (s *Suggester) Suggest(txn model.Transaction) []Suggestion {
	rules := s.matcher.Match(txn)

	suggestions := make([]Suggestion, 0, len(rules))
	seen := make(map[string]bool)

	for _, rule := range rules {
		key := rule.Category + "/" + rule.Subcategory
		if seen[key] {
			continue
		}
		seen[key] = true

		id := rule.ID
		suggestions = append(suggestions, Suggestion{
			RuleID:     &id,
			Category:   rule.Category,
			Confidence: ConfidenceFor(rule),
			Reason:     generateReason(txn, rule),
		})
	}

	return suggestions
}

// generateReason creates a human-readable explanation for why a category was suggested.
func generateReason(txn model.Transaction, rule Rule) string {
	var reason string
	switch rule.PatternType {
	case model.PatternContains:
		reason = fmt.Sprintf("%q contains %q", txn.Description, rule.Pattern)
	case model.PatternExact:
		reason = fmt.Sprintf("%q equals %q", txn.Description, rule.Pattern)
	case model.PatternStartsWith:
		reason = fmt.Sprintf("%q starts with %q", txn.Description, rule.Pattern)
	case model.PatternEndsWith:
		reason = fmt.Sprintf("%q ends with %q", txn.Description, rule.Pattern)
	case model.PatternRegex:
		reason = fmt.Sprintf("%q matches /%s/", txn.Description, rule.Pattern)
	}

	switch rule.Direction {
	case model.DirectionPositive:
		reason += " (income only)"
	case model.DirectionNegative:
		reason += " (expenses only)"
	case model.DirectionAny:
	}

	if rule.Scope == model.ScopeUser {
		reason += fmt.Sprintf(", rule owned by %s", rule.OwnerID)
	}

	return reason
}
