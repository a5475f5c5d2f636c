package model

import (
	"crypto/sha256"
	"fmt"

	"github.com/shopspring/decimal"
)

// TransactionKind is the direction of money movement for a transaction.
type TransactionKind string

// Transaction kind constants.
const (
	KindIncome   TransactionKind = "income"
	KindExpense  TransactionKind = "expense"
	KindTransfer TransactionKind = "transfer"
)

// Valid reports whether k is one of the known kinds.
func (k TransactionKind) Valid() bool {
	switch k {
	case KindIncome, KindExpense, KindTransfer:
		return true
	}
	return false
}

// SectionCode records which part of the source a transaction came from.
type SectionCode string

// Section code constants.
const (
	SectionDeposits      SectionCode = "deposits"
	SectionChecks        SectionCode = "checks"
	SectionCard          SectionCode = "card"
	SectionElectronic    SectionCode = "electronic"
	SectionManual        SectionCode = "manual"
	SectionUncategorized SectionCode = "uncategorized"
)

// Valid reports whether s is one of the known section codes.
func (s SectionCode) Valid() bool {
	switch s {
	case SectionDeposits, SectionChecks, SectionCard, SectionElectronic,
		SectionManual, SectionUncategorized:
		return true
	}
	return false
}

// UncategorizedCategory is assigned when no classification rule matches.
const UncategorizedCategory = "Uncategorized"

// DefaultReviewThreshold is the confidence below which a transaction needs review.
const DefaultReviewThreshold = 0.5

// RawLine is a single line of extracted statement text tagged with its section.
type RawLine struct {
	Text    string
	Section SectionCode
	Index   int // zero-based line index in the source document
}

// Transaction is a single parsed financial transaction.
type Transaction struct {
	Amount      decimal.Decimal `json:"amount"` // magnitude only; sign is carried by Kind
	RuleID      *int            `json:"rule_id,omitempty"`
	ID          string          `json:"id"`
	Date        string          `json:"date"` // YYYY-MM-DD
	Description string          `json:"description"`
	Payee       string          `json:"payee"`
	Category    string          `json:"category,omitempty"`
	Subcategory string          `json:"subcategory,omitempty"`
	CheckNumber string          `json:"check_number,omitempty"`
	CardLast4   string          `json:"card_last4,omitempty"`
	Hash        string          `json:"hash"`
	Kind        TransactionKind `json:"kind"`
	Section     SectionCode     `json:"section"`
	LineIndex   int             `json:"line_index"`
	Confidence  float64         `json:"confidence"`
	NeedsReview bool            `json:"needs_review"`
}

// SignedAmount returns the amount with the sign implied by Kind.
// Expenses are negative; income and transfers keep the stored magnitude.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Kind == KindExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// GenerateHash creates a unique hash for duplicate detection. Section and line
// index keep identical purchases on the same day distinct within one source.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%s:%s:%s:%s:%d",
		t.Date,
		t.Amount.StringFixed(2),
		t.Kind,
		t.Description,
		t.CheckNumber,
		t.Section,
		t.LineIndex)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
