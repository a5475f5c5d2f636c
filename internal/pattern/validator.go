package pattern

import (
	"errors"
	"fmt"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
)

// ErrInvalidRule is returned for rules that must not be stored.
var ErrInvalidRule = errors.New("invalid rule")

// ValidateRule checks a rule before it is created or updated. Regex rules must
// compile, so an invalid pattern is caught here rather than during classification.
func ValidateRule(rule Rule) error {
	if err := rule.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}
	if rule.PatternType == model.PatternRegex {
		if _, err := compilePattern(rule.Pattern); err != nil {
			return fmt.Errorf("%w: pattern %q does not compile: %w", ErrInvalidRule, rule.Pattern, err)
		}
	}
	if rule.Priority < 0 {
		return fmt.Errorf("%w: priority must not be negative", ErrInvalidRule)
	}
	return nil
}
