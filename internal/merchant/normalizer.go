// Package merchant reduces raw card and ACH payee fragments to short canonical names.
package merchant

import (
	"regexp"
	"strings"
)

// MaxLength bounds the length of a canonical payee.
const MaxLength = 50

// MaxTokens is how many words survive when no vendor rule applies.
const MaxTokens = 3

// Fallback payees used when nothing meaningful is left of a fragment.
const (
	FallbackCard    = "Card Purchase"
	FallbackGeneric = "Unknown Payee"
)

// Rule canonicalizes fragments that its matcher accepts.
type Rule struct {
	Match     func(fragment string) bool
	Normalize func(fragment string) string
	Name      string
}

var (
	longIDPattern   = regexp.MustCompile(`\b\d{7,}\b`)
	stateCodeSuffix = regexp.MustCompile(`\s+([A-Z]{2})$`)
	spacePattern    = regexp.MustCompile(`\s+`)
	lowesPattern    = regexp.MustCompile(`(?i)\blowe'?s\s*#\s*(\d+)`)
	sunshinePattern = regexp.MustCompile(`(?i)\bsunshine\s*#?\s*(\d+)`)
	homeDepotRegex  = regexp.MustCompile(`(?i)\b(?:the\s+)?home\s*depot\s*#\s*(\d+)`)
	amazonPattern   = regexp.MustCompile(`(?i)\b(?:amzn|amazon)\b`)
)

var usStates = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true, "CT": true,
	"DE": true, "DC": true, "FL": true, "GA": true, "HI": true, "ID": true, "IL": true,
	"IN": true, "IA": true, "KS": true, "KY": true, "LA": true, "ME": true, "MD": true,
	"MA": true, "MI": true, "MN": true, "MS": true, "MO": true, "MT": true, "NE": true,
	"NV": true, "NH": true, "NJ": true, "NM": true, "NY": true, "NC": true, "ND": true,
	"OH": true, "OK": true, "OR": true, "PA": true, "RI": true, "SC": true, "SD": true,
	"TN": true, "TX": true, "UT": true, "VT": true, "VA": true, "WA": true, "WV": true,
	"WI": true, "WY": true, "PR": true,
}

// DefaultRules returns the known vendor special cases in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: "chevron-sunshine",
			Match: func(s string) bool {
				lower := strings.ToLower(s)
				return strings.Contains(lower, "chevron") && strings.Contains(lower, "sunshine")
			},
			Normalize: func(string) string { return "Chevron/Sunshine" },
		},
		{
			Name:  "lowes",
			Match: lowesPattern.MatchString,
			Normalize: func(s string) string {
				return "Lowe's #" + lowesPattern.FindStringSubmatch(s)[1]
			},
		},
		{
			Name:  "sunshine",
			Match: sunshinePattern.MatchString,
			Normalize: func(s string) string {
				return "Sunshine #" + sunshinePattern.FindStringSubmatch(s)[1]
			},
		},
		{
			Name:  "home-depot",
			Match: homeDepotRegex.MatchString,
			Normalize: func(s string) string {
				return "The Home Depot #" + homeDepotRegex.FindStringSubmatch(s)[1]
			},
		},
		{
			Name:      "amazon",
			Match:     amazonPattern.MatchString,
			Normalize: func(string) string { return "Amazon" },
		},
	}
}

// Normalizer applies cleanup, vendor rules, truncation and a fallback in that order.
type Normalizer struct {
	rules []Rule
}

// New creates a normalizer with the given vendor rules. With no rules the
// DefaultRules table is used.
func New(rules ...Rule) *Normalizer {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Normalizer{rules: rules}
}

// Normalize returns the canonical payee for fragment. fallback is returned when the
// fragment reduces to nothing useful.
func (n *Normalizer) Normalize(fragment, fallback string) string {
	cleaned := Clean(fragment)

	for _, rule := range n.rules {
		if rule.Match(cleaned) {
			return orFallback(truncate(strings.TrimSpace(rule.Normalize(cleaned))), fallback)
		}
	}

	tokens := strings.Fields(cleaned)
	if len(tokens) > MaxTokens {
		tokens = tokens[:MaxTokens]
	}
	return orFallback(truncate(strings.TrimSpace(strings.Join(tokens, " "))), fallback)
}

func orFallback(name, fallback string) string {
	if len([]rune(name)) <= 1 {
		return fallback
	}
	return name
}

// Clean strips long numeric identifiers and a trailing "City ST" suffix and
// collapses whitespace.
func Clean(fragment string) string {
	s := longIDPattern.ReplaceAllString(fragment, " ")
	s = strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))

	if m := stateCodeSuffix.FindStringSubmatch(s); m != nil && usStates[m[1]] {
		s = strings.TrimSpace(s[:len(s)-len(m[0])])
		// The word before the state is the city, as long as something else remains.
		if idx := strings.LastIndex(s, " "); idx > 0 {
			s = strings.TrimSpace(s[:idx])
		}
	}
	return s
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= MaxLength {
		return s
	}
	return strings.TrimSpace(string(r[:MaxLength]))
}
