package statement

import (
	"fmt"
	"regexp"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
)

// ElectronicLookahead is how many lines after an "Orig CO Name:" header are
// searched for the entry's amount.
const ElectronicLookahead = 3

var (
	origHeaderPattern = regexp.MustCompile(`(?i)^\s*(\d{1,2}/\d{1,2})\s*Orig\s*CO\s*Name\s*:\s*(.*)$`)
	// Fields that follow the company name on an ACH header line.
	origFieldPattern  = regexp.MustCompile(`(?i)\s*(?:Orig\s*ID\s*:|Desc\s*Date\s*:|CO\s*Entry|Sec\s*:|Trace\s*#|Ind\s*ID\s*:|Ind\s*Name\s*:|Trn\s*:)`)
	coNamePattern     = regexp.MustCompile(`(?i)CO\s*Name\s*:`)
	// A "$" amount may be glued to the text before it ("Tc$210.45"); a bare
	// amount must stand alone.
	lookaheadAmount   = regexp.MustCompile(`(?:(?:^|\s)(-?\$?\d[\d,]*\.\d{2})|(-?\$\d[\d,]*\.\d{2}))(?:\s|$)`)
	electronicSimple  = regexp.MustCompile(`^\s*(\d{1,2}/\d{1,2})\s*(.*?)` + amountTail)
	transferPattern   = regexp.MustCompile(`(?i)\b(?:online\s+transfer|transfer\s+(?:to|from))\b`)
)

type electronicState int

const (
	stateScanning electronicState = iota
	stateAwaitingAmount
)

// pendingEntry is an ACH header waiting for its amount.
type pendingEntry struct {
	line      model.RawLine
	date      string
	company   string
	remaining int
}

// ElectronicExtractor parses the electronic withdrawals section. ACH entries put
// the amount on a later line, so the extractor is a two-state machine: scanning
// for entries, or awaiting the amount of an "Orig CO Name:" header for at most
// ElectronicLookahead lines.
type ElectronicExtractor struct {
	dates dateResolver
}

// Extract implements Extractor.
func (e *ElectronicExtractor) Extract(lines []model.RawLine) ([]model.Transaction, []*LineError) {
	var (
		transactions []model.Transaction
		lineErrors   []*LineError
		pending      *pendingEntry
		state        = stateScanning
	)

	abandon := func() {
		lineErrors = append(lineErrors, newLineError(pending.line,
			fmt.Errorf("%w: no amount within %d lines of %q", ErrMissingAmount, ElectronicLookahead, pending.company)))
		pending = nil
		state = stateScanning
	}

	for _, line := range lines {
		if m := origHeaderPattern.FindStringSubmatch(line.Text); m != nil {
			if state == stateAwaitingAmount {
				abandon()
			}
			entry, err := e.startEntry(line, m[1], m[2])
			if err != nil {
				lineErrors = append(lineErrors, newLineError(line, err))
				continue
			}
			pending = entry
			state = stateAwaitingAmount
			continue
		}

		if state == stateAwaitingAmount && !isDateLed(line.Text) {
			if token, ok := amountToken(line.Text); ok {
				txn, err := e.completeEntry(pending, token)
				if err != nil {
					lineErrors = append(lineErrors, newLineError(pending.line, err))
				} else {
					transactions = append(transactions, txn)
				}
				pending = nil
				state = stateScanning
				continue
			}
			pending.remaining--
			if pending.remaining == 0 {
				abandon()
			}
			continue
		}
		if state == stateAwaitingAmount {
			// A new entry began before the amount showed up.
			abandon()
		}

		if !isDateLed(line.Text) {
			continue
		}
		txn, err := e.parseSimple(line)
		if err != nil {
			lineErrors = append(lineErrors, newLineError(line, err))
			continue
		}
		transactions = append(transactions, txn)
	}

	if state == stateAwaitingAmount {
		abandon()
	}

	return transactions, lineErrors
}

func (e *ElectronicExtractor) startEntry(line model.RawLine, dateToken, rest string) (*pendingEntry, error) {
	date, err := e.dates.resolve(dateToken)
	if err != nil {
		return nil, err
	}

	company := rest
	if loc := origFieldPattern.FindStringIndex(rest); loc != nil {
		company = rest[:loc[0]]
	}
	company = collapse(company)
	if company == "" {
		return nil, fmt.Errorf("%w: empty originator name", ErrTooFewFields)
	}

	return &pendingEntry{
		line:      line,
		date:      date,
		company:   company,
		remaining: ElectronicLookahead,
	}, nil
}

// amountToken finds the first amount-shaped token on a continuation line.
// "CO Name" lines never carry the entry amount.
func amountToken(text string) (string, bool) {
	if coNamePattern.MatchString(text) {
		return "", false
	}
	m := lookaheadAmount.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	if m[1] != "" {
		return m[1], true
	}
	return m[2], true
}

func (e *ElectronicExtractor) completeEntry(entry *pendingEntry, token string) (model.Transaction, error) {
	amount, err := parseAmount(token)
	if err != nil {
		return model.Transaction{}, err
	}
	return newTransaction(entry.line, entry.date, amount, model.KindExpense, entry.company), nil
}

// parseSimple handles single-line entries such as online payments and transfers.
func (e *ElectronicExtractor) parseSimple(line model.RawLine) (model.Transaction, error) {
	m := electronicSimple.FindStringSubmatch(line.Text)
	if m == nil {
		return model.Transaction{}, dateLedFailure(line.Text)
	}

	description := collapse(m[2])
	if description == "" {
		return model.Transaction{}, fmt.Errorf("%w: electronic entry has no description", ErrTooFewFields)
	}
	date, err := e.dates.resolve(m[1])
	if err != nil {
		return model.Transaction{}, err
	}
	amount, err := parseAmount(m[3])
	if err != nil {
		return model.Transaction{}, err
	}

	kind := model.KindExpense
	if transferPattern.MatchString(description) {
		kind = model.KindTransfer
	}
	return newTransaction(line, date, amount, kind, description), nil
}
