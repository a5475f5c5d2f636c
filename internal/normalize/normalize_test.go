package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmount(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		want    string
		wantErr bool
	}{
		{name: "currency and thousands", token: "$1,234.56", want: "1234.56"},
		{name: "negative with currency", token: "-$145.24", want: "-145.24"},
		{name: "currency then sign", token: "$-145.24", want: "-145.24"},
		{name: "whole number", token: "500", want: "500"},
		{name: "trailing zeros kept", token: "30.00", want: "30"},
		{name: "surrounding whitespace", token: "  12.5 ", want: "12.5"},
		{name: "accounting parentheses", token: "(12.00)", want: "-12"},
		{name: "euro symbol", token: "€9.99", want: "9.99"},
		{name: "no digits", token: "$", wantErr: true},
		{name: "empty", token: "", wantErr: true},
		{name: "two decimal points", token: "1.2.3", wantErr: true},
		{name: "letters", token: "12a.00", wantErr: true},
		{name: "date is not an amount", token: "1/31/25", wantErr: true},
		{name: "iso date is not an amount", token: "2025-01-31", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Amount(tt.token)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMissingAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestAmountLiteral(t *testing.T) {
	got, err := AmountLiteral("30.00")
	require.NoError(t, err)
	assert.Equal(t, "30.00", got)

	got, err = AmountLiteral("-95.35")
	require.NoError(t, err)
	assert.Equal(t, "-95.35", got)

	got, err = AmountLiteral("$3,122.53")
	require.NoError(t, err)
	assert.Equal(t, "3122.53", got)
}

func TestAmount_RoundTrip(t *testing.T) {
	tokens := []string{"$1,234.56", "-$145.24", "500", "30.00", "0.01", "999999.99"}
	for _, token := range tokens {
		first, err := Amount(token)
		require.NoError(t, err, token)

		second, err := Amount(FormatAmount(first))
		require.NoError(t, err, token)
		assert.True(t, first.Equal(second), "%s: %s != %s", token, first, second)
	}
}

func TestDate(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		want    string
		refYear int
		wantErr error
	}{
		{name: "short year below pivot", token: "1/5/49", want: "2049-01-05"},
		{name: "short year above pivot", token: "1/5/99", want: "1999-01-05"},
		{name: "short year at pivot", token: "1/5/50", want: "1950-01-05"},
		{name: "padded short year", token: "01/31/25", want: "2025-01-31"},
		{name: "four digit year", token: "9/6/2025", want: "2025-09-06"},
		{name: "iso", token: "2024-02-29", want: "2024-02-29"},
		{name: "month and day uses reference", token: "01/08", refYear: 2024, want: "2024-01-08"},
		{name: "reference ignored when year present", token: "12/31/23", refYear: 2024, want: "2023-12-31"},
		{name: "month thirteen", token: "13/01/24", wantErr: ErrInvalidCalendarDate},
		{name: "day thirty two", token: "1/32/24", wantErr: ErrInvalidCalendarDate},
		{name: "february thirty", token: "2/30/24", wantErr: ErrInvalidCalendarDate},
		{name: "leap day in non leap year", token: "2/29/23", wantErr: ErrInvalidCalendarDate},
		{name: "no reference year", token: "01/08", wantErr: ErrMissingDate},
		{name: "garbage", token: "Jan 8", wantErr: ErrMissingDate},
		{name: "amount is not a date", token: "3122.53", wantErr: ErrMissingDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Date(tt.token, tt.refYear)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsValidCalendarDate(t *testing.T) {
	assert.True(t, IsValidCalendarDate(1, 31))
	assert.True(t, IsValidCalendarDate(2, 29))
	assert.True(t, IsValidCalendarDate(12, 1))
	assert.False(t, IsValidCalendarDate(0, 10))
	assert.False(t, IsValidCalendarDate(13, 10))
	assert.False(t, IsValidCalendarDate(4, 31))
	assert.False(t, IsValidCalendarDate(6, 0))
}

func TestExpandYear(t *testing.T) {
	assert.Equal(t, 2000, ExpandYear(0))
	assert.Equal(t, 2049, ExpandYear(CenturyPivot-1))
	assert.Equal(t, 1950, ExpandYear(CenturyPivot))
	assert.Equal(t, 2024, ExpandYear(2024))
}
