// Package ofx reads and writes OFX/QFX statement files.
package ofx

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/merchant"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/normalize"
	"github.com/aclindsa/ofxgo"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Parser converts OFX/QFX downloads into transactions.
type Parser struct {
	merchants *merchant.Normalizer
}

// NewParser creates a new OFX parser. A nil normalizer uses the default vendor rules.
func NewParser(merchants *merchant.Normalizer) *Parser {
	if merchants == nil {
		merchants = merchant.New()
	}
	return &Parser{merchants: merchants}
}

// preprocessOFX fixes common formatting issues in OFX files.
func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be upper case.
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// Some SGML exports drop the closing bracket of a bare tag.
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

// ParseFile parses an OFX/QFX file and returns its transactions in file order.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]model.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var (
		transactions     []model.Transaction
		bankStmts, cards int
	)

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		bankStmts++
		for _, ofxTx := range stmt.BankTranList.Transactions {
			transactions = append(transactions, p.convertTransaction(ofxTx, model.SectionElectronic, len(transactions)))
		}
	}

	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		cards++
		last4 := lastFour(string(stmt.CCAcctFrom.AcctID))
		for _, ofxTx := range stmt.BankTranList.Transactions {
			txn := p.convertTransaction(ofxTx, model.SectionCard, len(transactions))
			txn.CardLast4 = last4
			transactions = append(transactions, txn)
		}
	}

	slog.Info("Parsed OFX file",
		"total_transactions", len(transactions),
		"bank_statements", bankStmts,
		"cc_statements", cards)

	return transactions, nil
}

// convertTransaction maps an OFX transaction onto the model. OFX amounts are
// signed; the model keeps the magnitude and moves the sign into Kind.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction, section model.SectionCode, index int) model.Transaction {
	amount, err := decimal.NewFromString(ofxTx.TrnAmt.FloatString(2))
	if err != nil {
		amount = decimal.Zero
	}

	kind := model.KindIncome
	switch {
	case ofxTx.TrnType == ofxgo.TrnTypeXfer:
		kind = model.KindTransfer
	case amount.IsNegative():
		kind = model.KindExpense
	}

	description := strings.TrimSpace(string(ofxTx.Name))
	if description == "" || isGenericDescription(description) {
		if memo := strings.TrimSpace(string(ofxTx.Memo)); memo != "" {
			description = memo
		}
	}

	txn := model.Transaction{
		ID:          uuid.NewString(),
		Date:        ofxTx.DtPosted.Format(normalize.ISODateLayout),
		Amount:      amount.Abs(),
		Kind:        kind,
		Description: description,
		Section:     section,
		CheckNumber: string(ofxTx.CheckNum),
		Category:    model.UncategorizedCategory,
		NeedsReview: true,
		LineIndex:   index,
	}
	if txn.CheckNumber != "" {
		txn.Section = model.SectionChecks
	}

	payee := description
	if ofxTx.Payee != nil && ofxTx.Payee.Name != "" {
		payee = string(ofxTx.Payee.Name)
	}
	txn.Payee = p.merchants.Normalize(payee, merchant.FallbackGeneric)
	txn.Hash = hashFor(ofxTx, &txn)
	return txn
}

// hashFor keys a transaction on the bank's FITID so overlapping downloads
// dedupe regardless of position. Without a FITID the content hash is used.
func hashFor(ofxTx ofxgo.Transaction, txn *model.Transaction) string {
	fitID := strings.TrimSpace(string(ofxTx.FiTID))
	if fitID == "" {
		return txn.GenerateHash()
	}
	data := fmt.Sprintf("ofx:%s:%s:%s:%s", txn.Section, fitID, txn.Date, txn.SignedAmount().StringFixed(2))
	sum := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", sum)
}

// isGenericDescription checks if a transaction name is too generic.
func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}

func lastFour(accountID string) string {
	if len(accountID) <= 4 {
		return accountID
	}
	return accountID[len(accountID)-4:]
}
