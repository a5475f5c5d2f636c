package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/normalize"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/pattern"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/statement"
	"github.com/shopspring/decimal"
)

const maxDescriptionWidth = 40

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// WriteTransactions writes a transaction table. Expenses show a leading minus.
func WriteTransactions(w io.Writer, txns []model.Transaction) error {
	if len(txns) == 0 {
		_, err := fmt.Fprintln(w, SubtleStyle.Render("No transactions."))
		return err
	}

	t := newTable(w)
	_, _ = fmt.Fprintln(t, "DATE\tSECTION\tAMOUNT\tPAYEE\tDESCRIPTION\tCATEGORY\tREVIEW")
	_, _ = fmt.Fprintln(t, "────\t───────\t──────\t─────\t───────────\t────────\t──────")
	for i := range txns {
		txn := &txns[i]
		review := ""
		if txn.NeedsReview {
			review = ReviewIcon
		}
		_, _ = fmt.Fprintf(t, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			txn.Date,
			txn.Section,
			normalize.FormatAmount(txn.SignedAmount()),
			txn.Payee,
			truncate(txn.Description, maxDescriptionWidth),
			categoryLabel(txn),
			review)
	}
	return t.Flush()
}

// WriteSummary writes kind counts and totals in a box.
func WriteSummary(w io.Writer, summary statement.Summary) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Transactions: %d (income %d, expense %d, transfer %d)\n",
		summary.Total,
		summary.Counts[model.KindIncome],
		summary.Counts[model.KindExpense],
		summary.Counts[model.KindTransfer])
	fmt.Fprintf(&b, "Income:    %s\n", SuccessStyle.Render(normalize.FormatAmount(summary.TotalIncome)))
	fmt.Fprintf(&b, "Expenses:  %s\n", ErrorStyle.Render(normalize.FormatAmount(summary.TotalExpenses)))
	if !summary.TotalTransfer.IsZero() {
		fmt.Fprintf(&b, "Transfers: %s\n", normalize.FormatAmount(summary.TotalTransfer))
	}
	fmt.Fprintf(&b, "Net:       %s", normalize.FormatAmount(summary.Net))

	_, err := fmt.Fprintln(w, RenderBox("Summary", b.String()))
	return err
}

// WriteErrors lists line errors under a heading. Nothing is written when errs is empty.
func WriteErrors[E error](w io.Writer, errs []E) error {
	if len(errs) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, FormatWarning(fmt.Sprintf("%d line(s) could not be parsed:", len(errs)))); err != nil {
		return err
	}
	for _, e := range errs {
		if _, err := fmt.Fprintf(w, "  %s\n", e.Error()); err != nil {
			return err
		}
	}
	return nil
}

// WriteDiscrepancies reports sections whose parsed total differs from the printed one.
func WriteDiscrepancies(w io.Writer, discrepancies []statement.Discrepancy) error {
	for _, d := range discrepancies {
		msg := fmt.Sprintf("%s: statement total %s, parsed %s (difference %s)",
			d.Section,
			normalize.FormatAmount(d.Footer),
			normalize.FormatAmount(d.Computed),
			normalize.FormatAmount(d.Difference()))
		if _, err := fmt.Fprintln(w, FormatWarning(msg)); err != nil {
			return err
		}
	}
	return nil
}

// WriteSectionCounts writes how many lines each detected section produced.
func WriteSectionCounts(w io.Writer, debug statement.Debug) error {
	if len(debug.SectionsFound) == 0 {
		_, err := fmt.Fprintln(w, FormatWarning("No statement sections found."))
		return err
	}
	parts := make([]string, 0, len(debug.SectionsFound))
	for _, code := range debug.SectionsFound {
		parts = append(parts, fmt.Sprintf("%s=%d", code, debug.Counts[code]))
	}
	_, err := fmt.Fprintln(w, SubtleStyle.Render("Sections: "+strings.Join(parts, " ")))
	return err
}

// WritePasteEntries writes staged paste rows.
func WritePasteEntries(w io.Writer, entries []model.BulkPasteEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, SubtleStyle.Render("No entries."))
		return err
	}

	t := newTable(w)
	_, _ = fmt.Fprintln(t, "LINE\tDATE\tAMOUNT\tVENDOR\tCATEGORY")
	_, _ = fmt.Fprintln(t, "────\t────\t──────\t──────\t────────")
	for _, entry := range entries {
		_, _ = fmt.Fprintf(t, "%d\t%s\t%s\t%s\t%s\n",
			entry.LineNumber, entry.Date, entry.Amount, entry.Vendor, entry.Category)
	}
	return t.Flush()
}

// WriteRules writes a rule table in the order given.
func WriteRules(w io.Writer, rules []model.ClassificationRule) error {
	if len(rules) == 0 {
		_, err := fmt.Fprintln(w, SubtleStyle.Render("No rules."))
		return err
	}

	t := newTable(w)
	_, _ = fmt.Fprintln(t, "ID\tPATTERN\tTYPE\tDIRECTION\tCATEGORY\tSCOPE\tPRIORITY\tACTIVE\tMATCHES")
	_, _ = fmt.Fprintln(t, "──\t───────\t────\t─────────\t────────\t─────\t────────\t──────\t───────")
	for i := range rules {
		rule := &rules[i]
		_, _ = fmt.Fprintf(t, "%d\t%s\t%s\t%s\t%s\t%s\t%d\t%t\t%d\n",
			rule.ID,
			formatPattern(rule),
			rule.PatternType,
			rule.Direction,
			categoryPath(rule.Category, rule.Subcategory),
			scopeLabel(rule),
			rule.Priority,
			rule.IsActive,
			rule.MatchCount)
	}
	return t.Flush()
}

// WriteRule writes every field of one rule.
func WriteRule(w io.Writer, rule model.ClassificationRule) error {
	t := newTable(w)
	rows := [][2]string{
		{"ID", fmt.Sprint(rule.ID)},
		{"Name", rule.Name},
		{"Pattern", formatPattern(&rule)},
		{"Pattern type", string(rule.PatternType)},
		{"Category", categoryPath(rule.Category, rule.Subcategory)},
		{"Direction", string(rule.Direction)},
		{"Scope", scopeLabel(&rule)},
		{"Priority", fmt.Sprint(rule.Priority)},
		{"Active", fmt.Sprint(rule.IsActive)},
		{"High trust", fmt.Sprint(rule.HighTrust)},
		{"Confidence", fmt.Sprintf("%.0f%%", pattern.ConfidenceFor(rule)*100)},
		{"Matches", fmt.Sprint(rule.MatchCount)},
	}
	if !rule.CreatedAt.IsZero() {
		rows = append(rows,
			[2]string{"Created", rule.CreatedAt.Format("2006-01-02 15:04:05")},
			[2]string{"Updated", rule.UpdatedAt.Format("2006-01-02 15:04:05")})
	}
	for _, row := range rows {
		_, _ = fmt.Fprintf(t, "%s:\t%s\n", row[0], row[1])
	}
	return t.Flush()
}

// WriteSuggestions writes ranked category suggestions for one transaction.
func WriteSuggestions(w io.Writer, suggestions []pattern.Suggestion) error {
	if len(suggestions) == 0 {
		_, err := fmt.Fprintln(w, FormatWarning("No rule matches."))
		return err
	}

	t := newTable(w)
	_, _ = fmt.Fprintln(t, "RULE\tCATEGORY\tCONFIDENCE\tREASON")
	for _, s := range suggestions {
		ruleID := "-"
		if s.RuleID != nil {
			ruleID = fmt.Sprint(*s.RuleID)
		}
		_, _ = fmt.Fprintf(t, "%s\t%s\t%.0f%%\t%s\n", ruleID, s.Category, s.Confidence*100, s.Reason)
	}
	return t.Flush()
}

// WriteCategoryTotals writes expense totals per category, largest first.
func WriteCategoryTotals(w io.Writer, txns []model.Transaction) error {
	sums := make(map[string]decimal.Decimal)
	counts := make(map[string]int)
	for i := range txns {
		txn := &txns[i]
		if txn.Kind != model.KindExpense {
			continue
		}
		label := categoryLabel(txn)
		sums[label] = sums[label].Add(txn.Amount)
		counts[label]++
	}

	labels := make([]string, 0, len(sums))
	for label := range sums {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if cmp := sums[labels[i]].Cmp(sums[labels[j]]); cmp != 0 {
			return cmp > 0
		}
		return labels[i] < labels[j]
	})

	t := newTable(w)
	_, _ = fmt.Fprintln(t, "CATEGORY\tCOUNT\tTOTAL")
	for _, label := range labels {
		_, _ = fmt.Fprintf(t, "%s\t%d\t%s\n", label, counts[label], normalize.FormatAmount(sums[label]))
	}
	return t.Flush()
}

func categoryLabel(txn *model.Transaction) string {
	if txn.Category == "" {
		return model.UncategorizedCategory
	}
	return categoryPath(txn.Category, txn.Subcategory)
}

func categoryPath(category, subcategory string) string {
	if subcategory == "" {
		return category
	}
	return category + " / " + subcategory
}

func formatPattern(rule *model.ClassificationRule) string {
	if rule.PatternType == model.PatternRegex {
		return "/" + rule.Pattern + "/"
	}
	return rule.Pattern
}

func scopeLabel(rule *model.ClassificationRule) string {
	if rule.Scope == model.ScopeUser {
		return "user:" + rule.OwnerID
	}
	return string(rule.Scope)
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}
