package pattern

import (
	"regexp"
	"strings"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
)

// Confidence scale, ordered by pattern specificity: regex and contains are the
// least specific, then starts/ends-with, then exact. A high-trust regex is a
// regex its author vouched for and outranks them all.
const (
	ConfidenceContains       = 0.80
	ConfidenceAffix          = 0.85
	ConfidenceExact          = 0.90
	ConfidenceRegex          = 0.80
	ConfidenceHighTrustRegex = 0.95
)

// ConfidenceFor returns the confidence assigned when rule classifies a transaction.
func ConfidenceFor(rule Rule) float64 {
	switch rule.PatternType {
	case model.PatternContains:
		return ConfidenceContains
	case model.PatternStartsWith, model.PatternEndsWith:
		return ConfidenceAffix
	case model.PatternExact:
		return ConfidenceExact
	case model.PatternRegex:
		if rule.HighTrust {
			return ConfidenceHighTrustRegex
		}
		return ConfidenceRegex
	}
	return 0
}

// compiledRule is a rule with its pattern prepared for matching.
type compiledRule struct {
	regex   *regexp.Regexp // nil for non-regex rules and invalid patterns
	pattern string         // lower-cased pattern for plain-text types
	rule    Rule
	invalid bool
}

func compileRule(rule Rule) compiledRule {
	c := compiledRule{
		rule:    rule,
		pattern: strings.ToLower(strings.TrimSpace(rule.Pattern)),
	}
	if rule.PatternType == model.PatternRegex {
		re, err := compilePattern(rule.Pattern)
		if err != nil {
			c.invalid = true
		} else {
			c.regex = re
		}
	}
	return c
}

// compilePattern compiles a rule regex case-insensitively.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + pattern)
}

// matches applies the active, direction and pattern checks in that order.
func (c *compiledRule) matches(txn model.Transaction) bool {
	if !c.rule.IsActive || c.invalid {
		return false
	}
	if !c.rule.Direction.Allows(txn.Kind) {
		return false
	}
	return c.matchesDescription(txn.Description)
}

func (c *compiledRule) matchesDescription(description string) bool {
	if c.pattern == "" {
		return false
	}
	text := strings.ToLower(strings.TrimSpace(description))

	switch c.rule.PatternType {
	case model.PatternContains:
		return strings.Contains(text, c.pattern)
	case model.PatternExact:
		return text == c.pattern
	case model.PatternStartsWith:
		return strings.HasPrefix(text, c.pattern)
	case model.PatternEndsWith:
		return strings.HasSuffix(text, c.pattern)
	case model.PatternRegex:
		return c.regex != nil && c.regex.MatchString(description)
	}
	return false
}
