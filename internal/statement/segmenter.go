// Package statement turns extracted bank statement text into transactions.
package statement

import (
	"regexp"
	"strings"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/normalize"
	"github.com/shopspring/decimal"
)

// Section is a contiguous run of statement lines under one header.
type Section struct {
	FooterTotal decimal.NullDecimal
	Header      string
	Code        model.SectionCode
	Lines       []model.RawLine
	StartLine   int
}

// Text returns the section body joined back into a single span.
func (s Section) Text() string {
	parts := make([]string, len(s.Lines))
	for i, line := range s.Lines {
		parts[i] = line.Text
	}
	return strings.Join(parts, "\n")
}

type sectionDef struct {
	header *regexp.Regexp
	footer *regexp.Regexp
	code   model.SectionCode
}

// SectionHeaders maps the recognized header phrases to their section codes.
var SectionHeaders = []struct {
	Phrase string
	Code   model.SectionCode
}{
	{Phrase: "DEPOSITS AND ADDITIONS", Code: model.SectionDeposits},
	{Phrase: "CHECKS PAID", Code: model.SectionChecks},
	{Phrase: "ATM & DEBIT CARD WITHDRAWALS", Code: model.SectionCard},
	{Phrase: "ELECTRONIC WITHDRAWALS", Code: model.SectionElectronic},
}

var sectionDefs = buildSectionDefs()

func buildSectionDefs() []sectionDef {
	defs := make([]sectionDef, 0, len(SectionHeaders))
	for _, h := range SectionHeaders {
		phrase := phrasePattern(h.Phrase)
		defs = append(defs, sectionDef{
			code: h.Code,
			// A header owns its line; summary rows carry counts and amounts after the phrase.
			header: regexp.MustCompile(`(?i)^\s*` + phrase + `(?:\s*\(continued\))?[^\d]*$`),
			footer: regexp.MustCompile(`(?i)^\s*Total\s*` + phrase + `\s*(-?\s*\$?\s*[\d,]+\.\d{2})?`),
		})
	}
	return defs
}

// phrasePattern tolerates any whitespace, including none, between the words of phrase.
func phrasePattern(phrase string) string {
	words := strings.Fields(phrase)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(words, `\s*`)
}

// splitLines normalizes line endings and splits text into lines.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

// Segment splits statement text into typed sections in document order. Each span
// runs from its header to the next header of any kind or to its "Total" footer.
// Sections whose header never appears are simply absent. Blank lines are dropped.
func Segment(text string) []Section {
	var (
		sections []Section
		current  *Section
	)

	closeCurrent := func() {
		if current != nil {
			sections = append(sections, *current)
			current = nil
		}
	}

	for idx, line := range splitLines(text) {
		if def, total, ok := matchFooter(line); ok {
			if current != nil && current.Code == def.code && total != "" {
				if amount, err := normalize.Amount(total); err == nil {
					current.FooterTotal = decimal.NullDecimal{Decimal: amount.Abs(), Valid: true}
				}
			}
			closeCurrent()
			continue
		}

		if def, ok := matchHeader(line); ok {
			closeCurrent()
			current = &Section{
				Code:      def.code,
				Header:    strings.TrimSpace(line),
				StartLine: idx,
			}
			continue
		}

		if current != nil && strings.TrimSpace(line) != "" {
			current.Lines = append(current.Lines, model.RawLine{
				Text:    line,
				Section: current.Code,
				Index:   idx,
			})
		}
	}
	closeCurrent()

	return sections
}

func matchHeader(line string) (sectionDef, bool) {
	for _, def := range sectionDefs {
		if def.header.MatchString(line) {
			return def, true
		}
	}
	return sectionDef{}, false
}

func matchFooter(line string) (sectionDef, string, bool) {
	for _, def := range sectionDefs {
		if m := def.footer.FindStringSubmatch(line); m != nil {
			return def, strings.ReplaceAll(m[1], " ", ""), true
		}
	}
	return sectionDef{}, "", false
}
