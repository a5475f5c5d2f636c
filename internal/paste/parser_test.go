package paste

import (
	"testing"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		opts       Options
		wantAmount string
		wantDate   string
		wantVendor string
	}{
		{
			name:       "amount then date",
			text:       "3122.53 1/31/25",
			wantAmount: "3122.53",
			wantDate:   "2025-01-31",
		},
		{
			name:       "negative amount keeps its sign",
			text:       "-95.35 9/6/25",
			wantAmount: "-95.35",
			wantDate:   "2025-09-06",
		},
		{
			name:       "vendor from remaining fields",
			text:       "100.00 1/5/25 Home Depot",
			wantAmount: "100.00",
			wantDate:   "2025-01-05",
			wantVendor: "Home Depot",
		},
		{
			name:       "default vendor",
			text:       "100.00 1/5/25",
			opts:       Options{DefaultVendor: "Default Store"},
			wantAmount: "100.00",
			wantDate:   "2025-01-05",
			wantVendor: "Default Store",
		},
		{
			name:       "date then amount",
			text:       "2025-03-14\t$42.10\tSunshine  #115",
			wantAmount: "42.10",
			wantDate:   "2025-03-14",
			wantVendor: "Sunshine #115",
		},
		{
			name:       "short date uses reference year",
			text:       "12.00 3/2 Publix",
			opts:       Options{ReferenceYear: 2025},
			wantAmount: "12.00",
			wantDate:   "2025-03-02",
			wantVendor: "Publix",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse(tt.text, tt.opts)

			require.Empty(t, result.Errors)
			require.Len(t, result.Entries, 1)
			entry := result.Entries[0]
			assert.Equal(t, tt.wantAmount, entry.Amount)
			assert.Equal(t, tt.wantDate, entry.Date)
			assert.Equal(t, tt.wantVendor, entry.Vendor)
			assert.Equal(t, 1, entry.LineNumber)
			assert.Equal(t, Stats{Total: 1, Parsed: 1}, result.Stats)
		})
	}
}

func TestParseEmptyInput(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\n\t\n"} {
		result := Parse(text, Options{})

		assert.Equal(t, Stats{}, result.Stats)
		assert.Empty(t, result.Entries)
		require.Len(t, result.Errors, 1)
		assert.ErrorIs(t, result.Errors[0], ErrEmptyInput)
		assert.Equal(t, 0, result.Errors[0].LineNumber)
	}
}

func TestParseLineErrors(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		wantErr     error
		wantMessage string
	}{
		{name: "single field", line: "100.00", wantErr: ErrTooFewFields, wantMessage: "at least two fields required"},
		{name: "bad date after amount", line: "100.00 13/45/25", wantErr: ErrInvalidDate, wantMessage: "date"},
		{name: "bad amount after date", line: "1/5/25 lunch", wantErr: ErrInvalidAmount, wantMessage: "amount"},
		{name: "no year and no reference year", line: "100.00 1/5", wantErr: ErrInvalidDate, wantMessage: "date"},
		{name: "neither amount nor date first", line: "Lunch 12.00 1/5/25", wantErr: ErrUnrecognizedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse(tt.line, Options{})

			assert.Empty(t, result.Entries)
			require.Len(t, result.Errors, 1)
			assert.ErrorIs(t, result.Errors[0], tt.wantErr)
			assert.Contains(t, result.Errors[0].Message, tt.wantMessage)
			assert.Equal(t, 1, result.Errors[0].LineNumber)
			assert.Equal(t, Stats{Total: 1, Failed: 1}, result.Stats)
		})
	}
}

func TestParseMixedInput(t *testing.T) {
	text := "3122.53 1/31/25 Client A\n" +
		"\n" +
		"oops\n" +
		"   \n" +
		"-95.35 9/6/25\n" +
		"1/5/25 abc Vendor\n"

	result := Parse(text, Options{DefaultCategory: "Supplies", DefaultVendor: "Misc"})

	assert.Equal(t, Stats{Total: 4, Parsed: 2, Failed: 2}, result.Stats)
	assert.Equal(t, result.Stats.Total, result.Stats.Parsed+result.Stats.Failed)

	require.Len(t, result.Entries, 2)
	assert.Equal(t, 1, result.Entries[0].LineNumber)
	assert.Equal(t, "Client A", result.Entries[0].Vendor)
	assert.Equal(t, 5, result.Entries[1].LineNumber)
	assert.Equal(t, "Misc", result.Entries[1].Vendor)
	for _, entry := range result.Entries {
		assert.Equal(t, "Supplies", entry.Category)
	}

	require.Len(t, result.Errors, 2)
	assert.Equal(t, 3, result.Errors[0].LineNumber)
	assert.Equal(t, 6, result.Errors[1].LineNumber)
}

func TestResultTransactions(t *testing.T) {
	result := Parse("100.00 1/5/25 Home Depot\n-95.35 9/6/25\n", Options{DefaultCategory: "Supplies"})
	require.Empty(t, result.Errors)

	txns, err := result.Transactions()
	require.NoError(t, err)
	require.Len(t, txns, 2)

	purchase := txns[0]
	assert.Equal(t, model.KindExpense, purchase.Kind)
	assert.Equal(t, "100.00", purchase.Amount.StringFixed(2))
	assert.Equal(t, "Home Depot", purchase.Description)
	assert.Equal(t, "Home Depot", purchase.Payee)
	assert.Equal(t, "Supplies", purchase.Category)
	assert.Equal(t, model.SectionManual, purchase.Section)
	assert.False(t, purchase.NeedsReview)
	assert.Equal(t, AssignedConfidence, purchase.Confidence)
	assert.NotEmpty(t, purchase.ID)
	assert.Equal(t, purchase.GenerateHash(), purchase.Hash)

	refund := txns[1]
	assert.Equal(t, model.KindIncome, refund.Kind)
	assert.Equal(t, "95.35", refund.Amount.StringFixed(2))
	assert.Equal(t, ManualDescription, refund.Description)
	assert.Equal(t, "2025-09-06", refund.Date)
}

func TestResultTransactionsWithoutCategory(t *testing.T) {
	txns, err := Parse("12.00 1/5/25 Publix", Options{}).Transactions()
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, model.UncategorizedCategory, txns[0].Category)
	assert.True(t, txns[0].NeedsReview)
	assert.Zero(t, txns[0].Confidence)
}

func TestResultTransactionsAssignedCategoryClearsReview(t *testing.T) {
	txns, err := Parse("45.10 01/15/2024 Chevron", Options{DefaultCategory: "Fuel"}).Transactions()
	require.NoError(t, err)
	require.Len(t, txns, 1)

	txn := txns[0]
	assert.Equal(t, "Fuel", txn.Category)
	assert.False(t, txn.NeedsReview)
	assert.GreaterOrEqual(t, txn.Confidence, 0.5)
}
