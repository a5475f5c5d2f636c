package statement

import (
	"fmt"
	"regexp"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
)

// depositLinePattern matches "01/08Remote Online Deposit 1$3,640.00".
var depositLinePattern = regexp.MustCompile(`^\s*(\d{1,2}/\d{1,2})\s*(.*?)` + amountTail)

// DepositExtractor parses the deposits and additions section.
type DepositExtractor struct {
	dates dateResolver
}

// Extract implements Extractor.
func (e *DepositExtractor) Extract(lines []model.RawLine) ([]model.Transaction, []*LineError) {
	return extractLines(lines, isDateLed, e.parseLine)
}

func (e *DepositExtractor) parseLine(line model.RawLine) (model.Transaction, error) {
	m := depositLinePattern.FindStringSubmatch(line.Text)
	if m == nil {
		return model.Transaction{}, dateLedFailure(line.Text)
	}

	label := collapse(m[2])
	if label == "" {
		return model.Transaction{}, fmt.Errorf("%w: deposit has no description", ErrTooFewFields)
	}

	date, err := e.dates.resolve(m[1])
	if err != nil {
		return model.Transaction{}, err
	}
	amount, err := parseAmount(m[3])
	if err != nil {
		return model.Transaction{}, err
	}

	txn := newTransaction(line, date, amount, model.KindIncome, label)
	txn.Payee = label
	return txn, nil
}
