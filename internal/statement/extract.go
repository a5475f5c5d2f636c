package statement

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/normalize"
	"github.com/shopspring/decimal"
)

// MaxAmount is the largest magnitude accepted from statement text. Anything
// larger is almost always stray numeric text.
var MaxAmount = decimal.NewFromInt(1_000_000)

// amountTail captures an amount at the end of a line, e.g. "$3,640.00" or "-$12.00".
const amountTail = `(-?\s*\$?\s*-?[\d,]*\d\.\d{2})\s*$`

var (
	dateLedPattern    = regexp.MustCompile(`^\s*\d{1,2}/\d{1,2}`)
	amountTailPattern = regexp.MustCompile(amountTail)
	spaceRun          = regexp.MustCompile(`\s+`)
)

// Extractor turns the lines of one section into transactions and line errors.
type Extractor interface {
	Extract(lines []model.RawLine) ([]model.Transaction, []*LineError)
}

// dateResolver turns MM/DD statement dates into ISO dates. A month after the
// closing month belongs to the previous year, e.g. a December line on a
// statement that closes in January.
type dateResolver struct {
	referenceYear int
	closingMonth  int
}

func (r dateResolver) resolve(token string) (string, error) {
	month, day, year, err := normalize.DateParts(token)
	if err != nil {
		return "", err
	}
	if year == 0 {
		year = r.referenceYear
		if r.closingMonth > 0 && month > r.closingMonth {
			year--
		}
	}
	if year <= 0 {
		return "", fmt.Errorf("%w: %q has no year", ErrMissingDate, token)
	}
	return normalize.BuildDate(year, month, day)
}

// parseAmount returns the magnitude of a statement amount rounded to cents.
func parseAmount(token string) (decimal.Decimal, error) {
	amount, err := normalize.Amount(strings.ReplaceAll(token, " ", ""))
	if err != nil {
		return decimal.Zero, err
	}
	amount = amount.Abs()
	if amount.GreaterThan(MaxAmount) {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrAmountOutOfBounds, amount.StringFixed(2))
	}
	return amount.Round(2), nil
}

func isDateLed(text string) bool {
	return dateLedPattern.MatchString(text)
}

func hasTrailingAmount(text string) bool {
	return amountTailPattern.MatchString(text)
}

// collapse trims text and squeezes internal whitespace.
func collapse(text string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(text, " "))
}

// singleLineFunc parses one candidate line.
type singleLineFunc func(line model.RawLine) (model.Transaction, error)

// extractLines runs parse over every line accepted by isCandidate.
func extractLines(lines []model.RawLine, isCandidate func(string) bool, parse singleLineFunc) ([]model.Transaction, []*LineError) {
	var (
		transactions []model.Transaction
		lineErrors   []*LineError
	)
	for _, line := range lines {
		if !isCandidate(line.Text) {
			continue
		}
		txn, err := parse(line)
		if err != nil {
			lineErrors = append(lineErrors, newLineError(line, err))
			continue
		}
		transactions = append(transactions, txn)
	}
	return transactions, lineErrors
}

// dateLedFailure explains why a date-led line did not fit a grammar.
func dateLedFailure(text string) error {
	if !hasTrailingAmount(text) {
		return fmt.Errorf("%w: %q", ErrMissingAmount, collapse(text))
	}
	return fmt.Errorf("%w: %q", ErrUnrecognizedFormat, collapse(text))
}

func newTransaction(line model.RawLine, date string, amount decimal.Decimal, kind model.TransactionKind, description string) model.Transaction {
	return model.Transaction{
		Date:        date,
		Amount:      amount,
		Kind:        kind,
		Description: description,
		Section:     line.Section,
		LineIndex:   line.Index,
		Category:    model.UncategorizedCategory,
		NeedsReview: true,
	}
}
