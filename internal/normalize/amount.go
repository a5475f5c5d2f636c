// Package normalize turns raw amount and date tokens into canonical values.
package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Token errors.
var (
	ErrMissingAmount       = errors.New("missing amount")
	ErrMissingDate         = errors.New("missing date")
	ErrInvalidCalendarDate = errors.New("invalid calendar date")
)

var currencyReplacer = strings.NewReplacer(
	"$", "",
	"€", "",
	"£", "",
	"USD", "",
	",", "",
	" ", "",
	"\t", "",
)

// AmountLiteral cleans an amount token and returns its literal form.
// Currency symbols, thousands separators and whitespace are removed; a leading
// minus sign is kept and accounting parentheses become a minus sign.
func AmountLiteral(token string) (string, error) {
	s := strings.TrimSpace(token)
	negative := false

	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = currencyReplacer.Replace(s)
	// "-$1.00" and "$-1.00" both end up with the sign first after the replacer.
	if strings.HasPrefix(s, "-") {
		if negative {
			return "", fmt.Errorf("%w: %q has two signs", ErrMissingAmount, token)
		}
		negative = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}

	if s == "" {
		return "", fmt.Errorf("%w: %q", ErrMissingAmount, token)
	}

	digits, dots := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return "", fmt.Errorf("%w: %q contains %q", ErrMissingAmount, token, r)
		}
	}
	if digits == 0 {
		return "", fmt.Errorf("%w: %q has no digits", ErrMissingAmount, token)
	}
	if dots > 1 {
		return "", fmt.Errorf("%w: %q has more than one decimal point", ErrMissingAmount, token)
	}

	if negative {
		return "-" + s, nil
	}
	return s, nil
}

// Amount parses an amount token into a decimal, preserving its sign.
func Amount(token string) (decimal.Decimal, error) {
	literal, err := AmountLiteral(token)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(literal)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q: %v", ErrMissingAmount, token, err)
	}
	return d, nil
}

// FormatAmount renders an amount with two decimal places.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
