// Package paste parses hand-pasted receipt lines of the form
// "amount date [vendor...]" or "date amount [vendor...]".
package paste

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/normalize"
	"github.com/google/uuid"
)

// Paste errors.
var (
	ErrEmptyInput         = errors.New("nothing to parse: input is empty")
	ErrTooFewFields       = errors.New("at least two fields required")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
	ErrUnrecognizedFormat = errors.New("unrecognized format: first field is neither an amount nor a date")
)

// ManualDescription is used for entries that carry no vendor.
const ManualDescription = "Manual Entry"

// AssignedConfidence is the confidence of a category the user typed in.
const AssignedConfidence = 1.0

// Options supplies the defaults applied to every entry.
type Options struct {
	DefaultCategory string
	DefaultVendor   string
	// ReferenceYear completes dates written without a year. Zero rejects them.
	ReferenceYear int
}

// LineError reports a pasted line that could not be parsed. LineNumber is the
// 1-based physical line, or 0 for errors about the input as a whole.
type LineError struct {
	Err        error  `json:"-"`
	Line       string `json:"line,omitempty"`
	Message    string `json:"message"`
	LineNumber int    `json:"line_number"`
}

func (e *LineError) Error() string {
	if e.LineNumber == 0 {
		return e.Message
	}
	return fmt.Sprintf("line %d: %s", e.LineNumber, e.Message)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Stats counts the non-blank lines of a paste.
type Stats struct {
	Total  int `json:"total"`
	Parsed int `json:"parsed"`
	Failed int `json:"failed"`
}

// Result is the outcome of a paste.
type Result struct {
	Entries []model.BulkPasteEntry `json:"entries"`
	Errors  []*LineError           `json:"errors"`
	Stats   Stats                  `json:"stats"`
}

// Parse parses pasted text one line at a time. Blank lines are skipped and not
// counted; every other line yields an entry or an error.
func Parse(text string, opts Options) *Result {
	result := &Result{
		Entries: []model.BulkPasteEntry{},
		Errors:  []*LineError{},
	}

	if strings.TrimSpace(text) == "" {
		result.Errors = append(result.Errors, &LineError{Err: ErrEmptyInput, Message: ErrEmptyInput.Error()})
		return result
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	for i, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		result.Stats.Total++
		lineNumber := i + 1

		entry, err := parseLine(line, opts)
		if err != nil {
			result.Stats.Failed++
			result.Errors = append(result.Errors, &LineError{
				Err:        err,
				Line:       line,
				Message:    err.Error(),
				LineNumber: lineNumber,
			})
			continue
		}

		entry.LineNumber = lineNumber
		result.Stats.Parsed++
		result.Entries = append(result.Entries, entry)
	}

	slog.Debug("parsed pasted entries",
		"total", result.Stats.Total,
		"parsed", result.Stats.Parsed,
		"failed", result.Stats.Failed)

	return result
}

func parseLine(line string, opts Options) (model.BulkPasteEntry, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return model.BulkPasteEntry{}, ErrTooFewFields
	}

	var amountToken, dateToken string
	switch {
	case isAmount(fields[0]):
		amountToken, dateToken = fields[0], fields[1]
	case normalize.LooksLikeDate(fields[0]):
		dateToken, amountToken = fields[0], fields[1]
	default:
		return model.BulkPasteEntry{}, ErrUnrecognizedFormat
	}

	amount, err := normalize.AmountLiteral(amountToken)
	if err != nil {
		return model.BulkPasteEntry{}, fmt.Errorf("%w %q: %w", ErrInvalidAmount, amountToken, err)
	}
	date, err := normalize.Date(dateToken, opts.ReferenceYear)
	if err != nil {
		return model.BulkPasteEntry{}, fmt.Errorf("%w %q: %w", ErrInvalidDate, dateToken, err)
	}

	vendor := strings.Join(fields[2:], " ")
	if vendor == "" {
		vendor = opts.DefaultVendor
	}

	return model.BulkPasteEntry{
		Amount:   amount,
		Date:     date,
		Vendor:   vendor,
		Category: opts.DefaultCategory,
		Raw:      line,
	}, nil
}

func isAmount(token string) bool {
	_, err := normalize.Amount(token)
	return err == nil
}

// Transactions converts the parsed entries into manual transactions. A negative
// amount is a refund and becomes income; everything else is an expense.
func (r *Result) Transactions() ([]model.Transaction, error) {
	txns := make([]model.Transaction, 0, len(r.Entries))
	for _, entry := range r.Entries {
		amount, err := normalize.Amount(entry.Amount)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", entry.LineNumber, err)
		}

		kind := model.KindExpense
		if amount.IsNegative() {
			kind = model.KindIncome
		}

		description := entry.Vendor
		if description == "" {
			description = ManualDescription
		}
		category := entry.Category
		confidence := AssignedConfidence
		if category == "" {
			category = model.UncategorizedCategory
			confidence = 0
		}

		txn := model.Transaction{
			ID:          uuid.NewString(),
			Date:        entry.Date,
			Amount:      amount.Abs().Round(2),
			Kind:        kind,
			Description: description,
			Payee:       entry.Vendor,
			Category:    category,
			Section:     model.SectionManual,
			LineIndex:   entry.LineNumber - 1,
			Confidence:  confidence,
			NeedsReview: entry.Category == "",
		}
		txn.Hash = txn.GenerateHash()
		txns = append(txns, txn)
	}
	return txns, nil
}
