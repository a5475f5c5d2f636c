package statement

import (
	"regexp"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
)

// cardLinePattern matches lines such as
// "01/02Card Purchase 12/29 Chevron 0202648 Plantation FL Card 1819$38.80".
var cardLinePattern = regexp.MustCompile(
	`(?i)^\s*(\d{1,2}/\d{1,2})\s*` +
		`(Recurring\s+Card\s+Purchase|Card\s+Purchase(?:\s+With\s+Pin)?|ATM\s+Withdrawal)\s*` +
		`(?:(\d{1,2}/\d{1,2})\s+)?` +
		`(.*?)\s*Card\s*(\d{4})\s*` + amountTail)

// CardExtractor parses the ATM and debit card withdrawals section. The merchant
// fragment is left in Description for the merchant normalizer.
type CardExtractor struct {
	dates dateResolver
}

// Extract implements Extractor.
func (e *CardExtractor) Extract(lines []model.RawLine) ([]model.Transaction, []*LineError) {
	return extractLines(lines, isDateLed, e.parseLine)
}

func (e *CardExtractor) parseLine(line model.RawLine) (model.Transaction, error) {
	m := cardLinePattern.FindStringSubmatch(line.Text)
	if m == nil {
		return model.Transaction{}, dateLedFailure(line.Text)
	}

	date, err := e.dates.resolve(m[1])
	if err != nil {
		return model.Transaction{}, err
	}
	amount, err := parseAmount(m[6])
	if err != nil {
		return model.Transaction{}, err
	}

	description := collapse(m[4])
	if description == "" {
		description = collapse(m[2])
	}

	txn := newTransaction(line, date, amount, model.KindExpense, description)
	txn.CardLast4 = m[5]
	return txn, nil
}
