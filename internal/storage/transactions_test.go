package storage_test

import (
	"context"
	"testing"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/common"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/storage"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveTransactionsSkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)

	batch := []model.Transaction{
		testutil.Transaction(1, "CHEVRON 0042", "45.10", model.KindExpense),
		testutil.Transaction(2, "PUBLIX #1234", "82.33", model.KindExpense),
	}

	inserted, err := db.Storage.SaveTransactions(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	// Same content under a fresh ID is still a duplicate by hash.
	again := testutil.Transaction(1, "CHEVRON 0042", "45.10", model.KindExpense)
	again.ID = "txn-other"
	third := testutil.Transaction(3, "DEPOSIT", "1500.00", model.KindIncome)

	inserted, err = db.Storage.SaveTransactions(ctx, []model.Transaction{again, third})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	all, err := db.Storage.ListTransactions(ctx, storage.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestInsertTransactionsReturnsInsertedRows(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)

	first := testutil.Transaction(1, "CHEVRON 0042", "45.10", model.KindExpense)
	_, err := db.Storage.SaveTransactions(ctx, []model.Transaction{first})
	require.NoError(t, err)

	second := testutil.Transaction(2, "PUBLIX #1234", "82.33", model.KindExpense)
	inserted, err := db.Storage.InsertTransactions(ctx, []model.Transaction{first, second})
	require.NoError(t, err)
	require.Len(t, inserted, 1)
	assert.Equal(t, second.ID, inserted[0].ID)
}

func TestSaveTransactionsRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t, testutil.NewRule("chevron", "Car and Truck Expenses").Build())
	ruleID := db.Rules[0].ID

	txn := testutil.Transaction(4, "CHEVRON 0042 MIAMI FL", "45.10", model.KindExpense)
	txn.Payee = "Chevron"
	txn.Category = "Car and Truck Expenses"
	txn.Subcategory = "Fuel"
	txn.Confidence = 0.8
	txn.NeedsReview = false
	txn.RuleID = &ruleID
	txn.CardLast4 = "1234"

	_, err := db.Storage.SaveTransactions(ctx, []model.Transaction{txn})
	require.NoError(t, err)

	got, err := db.Storage.GetTransactionByID(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, txn.Hash, got.Hash)
	assert.Equal(t, txn.Date, got.Date)
	assert.True(t, decimal.RequireFromString("45.10").Equal(got.Amount))
	assert.Equal(t, model.KindExpense, got.Kind)
	assert.Equal(t, "Chevron", got.Payee)
	assert.Equal(t, "Fuel", got.Subcategory)
	assert.InDelta(t, 0.8, got.Confidence, 0.0001)
	assert.False(t, got.NeedsReview)
	require.NotNil(t, got.RuleID)
	assert.Equal(t, ruleID, *got.RuleID)
	assert.Equal(t, "1234", got.CardLast4)
}

func TestSaveTransactionsValidation(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)

	valid := testutil.Transaction(1, "CHEVRON", "10.00", model.KindExpense)

	tests := []struct {
		mutate func(*model.Transaction)
		name   string
	}{
		{name: "missing id", mutate: func(txn *model.Transaction) { txn.ID = "" }},
		{name: "missing hash", mutate: func(txn *model.Transaction) { txn.Hash = "" }},
		{name: "blank description", mutate: func(txn *model.Transaction) { txn.Description = "  " }},
		{name: "negative amount", mutate: func(txn *model.Transaction) { txn.Amount = decimal.NewFromInt(-5) }},
		{name: "unknown kind", mutate: func(txn *model.Transaction) { txn.Kind = "refund" }},
		{name: "unknown section", mutate: func(txn *model.Transaction) { txn.Section = "X" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := valid
			tt.mutate(&txn)
			_, err := db.Storage.SaveTransactions(ctx, []model.Transaction{txn})
			assert.ErrorIs(t, err, storage.ErrInvalidTransaction)
		})
	}

	_, err := db.Storage.SaveTransactions(ctx, nil)
	assert.ErrorIs(t, err, storage.ErrNilParameter)
	_, err = db.Storage.SaveTransactions(ctx, []model.Transaction{})
	assert.ErrorIs(t, err, storage.ErrEmptySlice)
}

func TestListTransactionsFilters(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)

	fuel := testutil.Transaction(10, "CHEVRON", "45.10", model.KindExpense)
	fuel.Category = "Car and Truck Expenses"
	fuel.NeedsReview = false

	deposit := testutil.Transaction(2, "DEPOSIT", "1500.00", model.KindIncome)
	deposit.Section = model.SectionDeposits

	check := testutil.Transaction(20, "CHECK 1042", "300.00", model.KindExpense)
	check.Section = model.SectionChecks
	check.CheckNumber = "1042"

	_, err := db.Storage.SaveTransactions(ctx, []model.Transaction{fuel, deposit, check})
	require.NoError(t, err)

	review := true
	reviewed := false

	tests := []struct {
		name   string
		filter storage.TransactionFilter
		want   []string
	}{
		{name: "all ordered by date", filter: storage.TransactionFilter{}, want: []string{"txn-002", "txn-010", "txn-020"}},
		{name: "needs review", filter: storage.TransactionFilter{NeedsReview: &review}, want: []string{"txn-002", "txn-020"}},
		{name: "reviewed", filter: storage.TransactionFilter{NeedsReview: &reviewed}, want: []string{"txn-010"}},
		{name: "section", filter: storage.TransactionFilter{Section: model.SectionChecks}, want: []string{"txn-020"}},
		{name: "category", filter: storage.TransactionFilter{Category: "Car and Truck Expenses"}, want: []string{"txn-010"}},
		{name: "date range", filter: storage.TransactionFilter{From: "2024-01-05", To: "2024-01-15"}, want: []string{"txn-010"}},
		{name: "limit", filter: storage.TransactionFilter{Limit: 2}, want: []string{"txn-002", "txn-010"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.Storage.ListTransactions(ctx, tt.filter)
			require.NoError(t, err)
			ids := make([]string, len(got))
			for i, txn := range got {
				ids[i] = txn.ID
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestUpdateClassifications(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t, testutil.NewRule("chevron", "Car and Truck Expenses").Build())
	ruleID := db.Rules[0].ID

	txn := testutil.Transaction(1, "CHEVRON", "45.10", model.KindExpense)
	_, err := db.Storage.SaveTransactions(ctx, []model.Transaction{txn})
	require.NoError(t, err)

	txn.Category = "Car and Truck Expenses"
	txn.Confidence = 0.8
	txn.NeedsReview = false
	txn.RuleID = &ruleID
	require.NoError(t, db.Storage.UpdateClassifications(ctx, []model.Transaction{txn}))

	got, err := db.Storage.GetTransactionByID(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, "Car and Truck Expenses", got.Category)
	assert.False(t, got.NeedsReview)
	require.NotNil(t, got.RuleID)

	// Deleting the rule keeps the category but drops the reference.
	require.NoError(t, db.Storage.DeleteRule(ctx, ruleID))
	got, err = db.Storage.GetTransactionByID(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, "Car and Truck Expenses", got.Category)
	assert.Nil(t, got.RuleID)

	missing := testutil.Transaction(2, "PUBLIX", "1.00", model.KindExpense)
	err = db.Storage.UpdateClassifications(ctx, []model.Transaction{missing})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetTransactionByIDNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)

	_, err := db.Storage.GetTransactionByID(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = db.Storage.GetTransactionByID(context.Background(), "")
	assert.ErrorIs(t, err, storage.ErrEmptyString)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	require.NoError(t, db.Storage.Migrate(context.Background()))
}
