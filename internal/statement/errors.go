package statement

import (
	"errors"
	"fmt"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/normalize"
)

// Line-level parse errors. None of them stop a parse.
var (
	ErrMissingAmount       = normalize.ErrMissingAmount
	ErrMissingDate         = normalize.ErrMissingDate
	ErrInvalidCalendarDate = normalize.ErrInvalidCalendarDate
	ErrTooFewFields        = errors.New("too few fields")
	ErrUnrecognizedFormat  = errors.New("unrecognized format")
	// ErrAmountOutOfBounds is a kind of ErrUnrecognizedFormat.
	ErrAmountOutOfBounds = fmt.Errorf("%w: amount out of bounds", ErrUnrecognizedFormat)
)

// Reason is the machine-readable failure code of a LineError.
type Reason string

// Reason constants.
const (
	ReasonMissingAmount       Reason = "missing_amount"
	ReasonMissingDate         Reason = "missing_date"
	ReasonTooFewFields        Reason = "too_few_fields"
	ReasonUnrecognizedFormat  Reason = "unrecognized_format"
	ReasonAmountOutOfBounds   Reason = "amount_out_of_bounds"
	ReasonInvalidCalendarDate Reason = "invalid_calendar_date"
)

// ReasonOf maps an error to its Reason. Unknown errors are UnrecognizedFormat.
func ReasonOf(err error) Reason {
	switch {
	case errors.Is(err, ErrAmountOutOfBounds):
		return ReasonAmountOutOfBounds
	case errors.Is(err, ErrMissingAmount):
		return ReasonMissingAmount
	case errors.Is(err, ErrInvalidCalendarDate):
		return ReasonInvalidCalendarDate
	case errors.Is(err, ErrMissingDate):
		return ReasonMissingDate
	case errors.Is(err, ErrTooFewFields):
		return ReasonTooFewFields
	default:
		return ReasonUnrecognizedFormat
	}
}

// LineError describes a statement line that could not become a transaction.
type LineError struct {
	Err       error             `json:"-"`
	Line      string            `json:"line"`
	Message   string            `json:"message"`
	Reason    Reason            `json:"reason"`
	Section   model.SectionCode `json:"section"`
	LineIndex int               `json:"line_index"`
}

func newLineError(line model.RawLine, err error) *LineError {
	return &LineError{
		Err:       err,
		Line:      line.Text,
		Message:   err.Error(),
		Reason:    ReasonOf(err),
		Section:   line.Section,
		LineIndex: line.Index,
	}
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d (%s): %s", e.LineIndex+1, e.Section, e.Message)
}

func (e *LineError) Unwrap() error {
	return e.Err
}
