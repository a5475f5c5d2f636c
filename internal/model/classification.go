package model

// ClassificationResult is the outcome of classifying one transaction.
type ClassificationResult struct {
	RuleID      *int // nil when no rule matched
	Category    string
	Subcategory string
	Confidence  float64
}

// Matched reports whether a rule produced this result.
func (r ClassificationResult) Matched() bool {
	return r.RuleID != nil
}

// MatchEvent records that a rule classified a transaction during a pass.
type MatchEvent struct {
	TransactionID string
	RuleID        int
}
