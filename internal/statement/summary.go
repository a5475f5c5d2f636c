package statement

import (
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
	"github.com/shopspring/decimal"
)

// Summary aggregates a transaction list.
type Summary struct {
	Counts        map[model.TransactionKind]int `json:"counts"`
	TotalIncome   decimal.Decimal               `json:"total_income"`
	TotalExpenses decimal.Decimal               `json:"total_expenses"`
	TotalTransfer decimal.Decimal               `json:"total_transfers"`
	Net           decimal.Decimal               `json:"net"`
	Total         int                           `json:"total"`
}

// Summarize derives a Summary from txns alone.
func Summarize(txns []model.Transaction) Summary {
	s := Summary{
		Counts:        make(map[model.TransactionKind]int),
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
		TotalTransfer: decimal.Zero,
	}
	for _, txn := range txns {
		s.Counts[txn.Kind]++
		switch txn.Kind {
		case model.KindIncome:
			s.TotalIncome = s.TotalIncome.Add(txn.Amount)
		case model.KindExpense:
			s.TotalExpenses = s.TotalExpenses.Add(txn.Amount)
		case model.KindTransfer:
			s.TotalTransfer = s.TotalTransfer.Add(txn.Amount)
		}
	}
	s.Total = len(txns)
	s.Net = s.TotalIncome.Sub(s.TotalExpenses)
	return s
}

// Discrepancy is a section whose parsed amounts disagree with its printed total.
type Discrepancy struct {
	Section  model.SectionCode `json:"section"`
	Footer   decimal.Decimal   `json:"footer"`
	Computed decimal.Decimal   `json:"computed"`
}

// Difference is the printed total minus the parsed sum.
func (d Discrepancy) Difference() decimal.Decimal {
	return d.Footer.Sub(d.Computed)
}

// CrossCheck compares the sum of each section's transactions with the footer total
// printed for it. Sections without a footer total are not checked.
func (r *Result) CrossCheck() []Discrepancy {
	sums := make(map[model.SectionCode]decimal.Decimal)
	for _, txn := range r.Transactions {
		sums[txn.Section] = sums[txn.Section].Add(txn.Amount)
	}

	var discrepancies []Discrepancy
	for _, code := range r.Debug.SectionsFound {
		footer, ok := r.Debug.FooterTotals[code]
		if !ok {
			continue
		}
		computed := sums[code]
		if !footer.Equal(computed) {
			discrepancies = append(discrepancies, Discrepancy{
				Section:  code,
				Footer:   footer,
				Computed: computed,
			})
		}
	}
	return discrepancies
}
