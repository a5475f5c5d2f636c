package ofx

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportFixture() []model.Transaction {
	txns := []model.Transaction{
		{
			ID:          "t1",
			Date:        "2024-01-03",
			Amount:      decimal.RequireFromString("1500.00"),
			Kind:        model.KindIncome,
			Description: "DEPOSIT",
			Section:     model.SectionDeposits,
		},
		{
			ID:          "t2",
			Date:        "2024-01-05",
			Amount:      decimal.RequireFromString("300.00"),
			Kind:        model.KindExpense,
			Description: "CHECK 1042",
			Section:     model.SectionChecks,
			CheckNumber: "1042",
		},
		{
			ID:          "t3",
			Date:        "2024-01-09",
			Amount:      decimal.RequireFromString("45.10"),
			Kind:        model.KindExpense,
			Description: "CHEVRON 0042 MIAMI FL",
			Payee:       "Chevron",
			Section:     model.SectionCard,
		},
	}
	for i := range txns {
		txns[i].LineIndex = i
		txns[i].Hash = txns[i].GenerateHash()
	}
	return txns
}

func TestExportRoundTrip(t *testing.T) {
	exporter := NewExporter(ExportOptions{
		BankID: "123456789",
		AcctID: "9876",
		Now:    func() time.Time { return time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC) },
	})

	var buf bytes.Buffer
	require.NoError(t, exporter.Export(&buf, exportFixture()))
	assert.Contains(t, buf.String(), "OFXHEADER:100")

	resp, err := ofxgo.ParseResponse(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, resp.Bank, 1)

	stmt, ok := resp.Bank[0].(*ofxgo.StatementResponse)
	require.True(t, ok)
	assert.Equal(t, "9876", string(stmt.BankAcctFrom.AcctID))
	require.NotNil(t, stmt.BankTranList)
	require.Len(t, stmt.BankTranList.Transactions, 3)

	amounts := make([]string, 0, 3)
	for _, txn := range stmt.BankTranList.Transactions {
		amounts = append(amounts, txn.TrnAmt.FloatString(2))
	}
	assert.Equal(t, []string{"1500.00", "-300.00", "-45.10"}, amounts)

	check := stmt.BankTranList.Transactions[1]
	assert.Equal(t, ofxgo.TrnTypeCheck, check.TrnType)
	assert.Equal(t, "1042", string(check.CheckNum))

	card := stmt.BankTranList.Transactions[2]
	assert.Equal(t, "Chevron", string(card.Name))
	assert.Equal(t, "CHEVRON 0042 MIAMI FL", string(card.Memo))

	assert.Equal(t, "2024-01-03", stmt.BankTranList.DtStart.UTC().Format("2006-01-02"))
	assert.Equal(t, "2024-01-09", stmt.BankTranList.DtEnd.UTC().Format("2006-01-02"))
}

func TestExportThenImport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewExporter(ExportOptions{}).Export(&buf, exportFixture()))

	imported, err := NewParser(nil).ParseFile(context.Background(), strings.NewReader(buf.String()))
	require.NoError(t, err)
	require.Len(t, imported, 3)

	assert.Equal(t, model.KindIncome, imported[0].Kind)
	assert.Equal(t, "2024-01-03", imported[0].Date)
	assert.Equal(t, model.KindExpense, imported[1].Kind)
	assert.Equal(t, model.SectionChecks, imported[1].Section)
	assert.Equal(t, "45.10", imported[2].Amount.StringFixed(2))
}

func TestExportErrors(t *testing.T) {
	exporter := NewExporter(ExportOptions{})

	err := exporter.Export(&bytes.Buffer{}, nil)
	assert.ErrorIs(t, err, ErrNoTransactions)

	bad := exportFixture()
	bad[0].Date = "01/03/2024"
	err = exporter.Export(&bytes.Buffer{}, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date")
}

func TestTruncateName(t *testing.T) {
	assert.Equal(t, "Chevron", truncateName("Chevron"))
	long := strings.Repeat("x", 40)
	assert.Len(t, truncateName(long), maxNameLength)
}

func TestFitIDIsStable(t *testing.T) {
	txns := exportFixture()
	first := fitID(&txns[0])
	txns[0].ID = "other"
	assert.Equal(t, first, fitID(&txns[0]))
	assert.Len(t, first, 32)
}
