package ofx

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/normalize"
	"github.com/aclindsa/ofxgo"
	"github.com/google/uuid"
)

// maxNameLength is the OFX 1.x limit on the NAME element.
const maxNameLength = 32

// ErrNoTransactions is returned when there is nothing to export.
var ErrNoTransactions = errors.New("no transactions to export")

// ExportOptions describes the account the exported statement belongs to.
type ExportOptions struct {
	Start    time.Time // zero means the earliest transaction date
	End      time.Time // zero means the latest transaction date
	Now      func() time.Time
	BankID   string
	AcctID   string
	Currency string
}

func (o ExportOptions) withDefaults() ExportOptions {
	if o.BankID == "" {
		o.BankID = "000000000"
	}
	if o.AcctID == "" {
		o.AcctID = "0000"
	}
	if o.Currency == "" {
		o.Currency = "USD"
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Exporter writes transactions as an OFX 1.02 bank statement.
type Exporter struct {
	opts ExportOptions
}

// NewExporter creates an exporter for one account.
func NewExporter(opts ExportOptions) *Exporter {
	return &Exporter{opts: opts.withDefaults()}
}

// Export writes txns to w. Expenses are written with negative amounts.
func (e *Exporter) Export(w io.Writer, txns []model.Transaction) error {
	if len(txns) == 0 {
		return ErrNoTransactions
	}

	currency, err := ofxgo.NewCurrSymbol(e.opts.Currency)
	if err != nil {
		return fmt.Errorf("invalid currency %q: %w", e.opts.Currency, err)
	}

	list, err := e.transactionList(txns)
	if err != nil {
		return err
	}

	stmt := ofxgo.StatementResponse{
		TrnUID: ofxgo.UID(uuid.NewString()),
		Status: ofxgo.Status{Code: 0, Severity: "INFO"},
		CurDef: *currency,
		BankAcctFrom: ofxgo.BankAcct{
			BankID:   ofxgo.String(e.opts.BankID),
			AcctID:   ofxgo.String(e.opts.AcctID),
			AcctType: ofxgo.AcctTypeChecking,
		},
		BankTranList: list,
		DtAsOf:       list.DtEnd,
	}

	resp := ofxgo.Response{
		Version: ofxgo.OfxVersion102,
		Signon: ofxgo.SignonResponse{
			Status:   ofxgo.Status{Code: 0, Severity: "INFO"},
			DtServer: ofxgo.Date{Time: e.opts.Now().UTC()},
			Language: "ENG",
		},
		Bank: []ofxgo.Message{&stmt},
	}

	buf, err := resp.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal OFX: %w", err)
	}

	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write OFX: %w", err)
	}
	return nil
}

func (e *Exporter) transactionList(txns []model.Transaction) (*ofxgo.TransactionList, error) {
	list := &ofxgo.TransactionList{}
	var first, last time.Time

	for i := range txns {
		txn := &txns[i]
		posted, err := time.Parse(normalize.ISODateLayout, txn.Date)
		if err != nil {
			return nil, fmt.Errorf("transaction %s has invalid date %q: %w", txn.ID, txn.Date, err)
		}
		if first.IsZero() || posted.Before(first) {
			first = posted
		}
		if posted.After(last) {
			last = posted
		}

		var amount ofxgo.Amount
		if _, ok := amount.SetString(txn.SignedAmount().StringFixed(2)); !ok {
			return nil, fmt.Errorf("transaction %s has invalid amount %s", txn.ID, txn.Amount)
		}

		ofxTx := ofxgo.Transaction{
			DtPosted: ofxgo.Date{Time: posted},
			TrnAmt:   amount,
			FiTID:    ofxgo.String(fitID(txn)),
			Name:     ofxgo.String(truncateName(displayName(txn))),
			Memo:     ofxgo.String(txn.Description),
		}
		setTrnType(&ofxTx, txn)
		if txn.CheckNumber != "" {
			ofxTx.CheckNum = ofxgo.String(txn.CheckNumber)
		}
		list.Transactions = append(list.Transactions, ofxTx)
	}

	list.DtStart = ofxgo.Date{Time: first}
	list.DtEnd = ofxgo.Date{Time: last}
	if !e.opts.Start.IsZero() {
		list.DtStart = ofxgo.Date{Time: e.opts.Start}
	}
	if !e.opts.End.IsZero() {
		list.DtEnd = ofxgo.Date{Time: e.opts.End}
	}
	return list, nil
}

func setTrnType(ofxTx *ofxgo.Transaction, txn *model.Transaction) {
	switch {
	case txn.Kind == model.KindTransfer:
		ofxTx.TrnType = ofxgo.TrnTypeXfer
	case txn.Section == model.SectionChecks:
		ofxTx.TrnType = ofxgo.TrnTypeCheck
	case txn.Section == model.SectionDeposits:
		ofxTx.TrnType = ofxgo.TrnTypeDep
	case txn.Section == model.SectionCard:
		ofxTx.TrnType = ofxgo.TrnTypePOS
	case txn.Kind == model.KindIncome:
		ofxTx.TrnType = ofxgo.TrnTypeCredit
	default:
		ofxTx.TrnType = ofxgo.TrnTypeDebit
	}
}

// fitID is stable across exports of the same transaction so importers can dedupe.
func fitID(txn *model.Transaction) string {
	if len(txn.Hash) >= 32 {
		return txn.Hash[:32]
	}
	return txn.ID
}

func displayName(txn *model.Transaction) string {
	if txn.Payee != "" {
		return txn.Payee
	}
	return txn.Description
}

func truncateName(name string) string {
	runes := []rune(name)
	if len(runes) > maxNameLength {
		return string(runes[:maxNameLength])
	}
	return name
}
