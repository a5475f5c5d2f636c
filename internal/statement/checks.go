package statement

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
)

var (
	// "1001 ^ 01/05 $500.00" or "1001 * Rent 01/05 $500.00"
	checkNumberFirst = regexp.MustCompile(`^\s*(\d{1,6})\s*[\^*]?\s+(?:(.*?)\s+)?(\d{1,2}/\d{1,2})\s*` + amountTail)
	// "01/05 Check #1001 $500.00" or "01/05 1001 $500.00"
	checkDateFirst = regexp.MustCompile(`(?i)^\s*(\d{1,2}/\d{1,2})\s*(?:Check\s*(?:No\.?|#)?\s*)?(\d{1,6})\s*[\^*]?\s+` + amountTail)

	digitLed       = regexp.MustCompile(`^\s*\d`)
	dateAnywhere   = regexp.MustCompile(`\b\d{1,2}/\d{1,2}\b`)
	amountAnywhere = regexp.MustCompile(`\$?[\d,]*\d\.\d{2}\b`)
)

// CheckExtractor parses the checks paid section. The payee of a check is not in
// the statement text, so it stays empty.
type CheckExtractor struct {
	dates dateResolver
}

// Extract implements Extractor.
func (e *CheckExtractor) Extract(lines []model.RawLine) ([]model.Transaction, []*LineError) {
	return extractLines(lines, isCheckCandidate, e.parseLine)
}

// isCheckCandidate accepts digit-led lines that carry a date or an amount, which
// skips page furniture such as "2 of 4".
func isCheckCandidate(text string) bool {
	if !digitLed.MatchString(text) {
		return false
	}
	return dateAnywhere.MatchString(text) || amountAnywhere.MatchString(text)
}

func (e *CheckExtractor) parseLine(line model.RawLine) (model.Transaction, error) {
	var number, dateToken, amountToken, memo string

	if m := checkDateFirst.FindStringSubmatch(line.Text); m != nil {
		dateToken, number, amountToken = m[1], m[2], m[3]
	} else if m := checkNumberFirst.FindStringSubmatch(line.Text); m != nil {
		number, memo, dateToken, amountToken = m[1], m[2], m[3], m[4]
	} else {
		return model.Transaction{}, checkFailure(line.Text)
	}

	date, err := e.dates.resolve(dateToken)
	if err != nil {
		return model.Transaction{}, err
	}
	amount, err := parseAmount(amountToken)
	if err != nil {
		return model.Transaction{}, err
	}

	description := "Check #" + number
	if memo = collapse(strings.Trim(memo, "^*")); memo != "" {
		description += " " + memo
	}

	txn := newTransaction(line, date, amount, model.KindExpense, description)
	txn.CheckNumber = number
	return txn, nil
}

func checkFailure(text string) error {
	hasDate := dateAnywhere.MatchString(text)
	hasAmount := amountAnywhere.MatchString(text)
	switch {
	case hasAmount && !hasDate:
		return fmt.Errorf("%w: check line %q", ErrMissingDate, collapse(text))
	case hasDate && !hasAmount:
		return fmt.Errorf("%w: check line %q", ErrMissingAmount, collapse(text))
	case !hasDate && !hasAmount:
		return fmt.Errorf("%w: check line %q", ErrTooFewFields, collapse(text))
	default:
		return fmt.Errorf("%w: check line %q", ErrUnrecognizedFormat, collapse(text))
	}
}
