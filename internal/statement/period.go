package statement

import (
	"regexp"
	"strings"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/normalize"
)

// Period is the statement date range printed in the header.
type Period struct {
	Start string `json:"start"` // YYYY-MM-DD
	End   string `json:"end"`
}

var (
	// "January 1, 2024 through January 31, 2024"
	namedPeriodPattern = regexp.MustCompile(
		`(?i)\b([a-z]{3,9}\.?\s+\d{1,2},\s*\d{4})\s*(?:through|thru|to|-)\s*([a-z]{3,9}\.?\s+\d{1,2},\s*\d{4})`)
	// "01/01/24 through 01/31/24"
	numericPeriodPattern = regexp.MustCompile(
		`(?i)\b(\d{1,2}/\d{1,2}/\d{2,4})\s*(?:through|thru|to|-)\s*(\d{1,2}/\d{1,2}/\d{2,4})\b`)
	commaSpacing = regexp.MustCompile(`\s*,\s*`)
)

var namedDateLayouts = []string{"January 2, 2006", "Jan 2, 2006"}

// DetectPeriod finds the statement period in text. It reports false when no
// well-formed range is present.
func DetectPeriod(text string) (Period, bool) {
	for _, m := range namedPeriodPattern.FindAllStringSubmatch(text, -1) {
		start, okStart := parseNamedDate(m[1])
		end, okEnd := parseNamedDate(m[2])
		if okStart && okEnd && !end.Before(start) {
			return Period{Start: start.Format(normalize.ISODateLayout), End: end.Format(normalize.ISODateLayout)}, true
		}
	}

	for _, m := range numericPeriodPattern.FindAllStringSubmatch(text, -1) {
		start, errStart := normalize.Date(m[1], 0)
		end, errEnd := normalize.Date(m[2], 0)
		if errStart == nil && errEnd == nil && start <= end {
			return Period{Start: start, End: end}, true
		}
	}

	return Period{}, false
}

// ReferenceYear is the year the statement closes in.
func (p Period) ReferenceYear() int {
	end, err := time.Parse(normalize.ISODateLayout, p.End)
	if err != nil {
		return 0
	}
	return end.Year()
}

// ClosingMonth is the month the statement closes in.
func (p Period) ClosingMonth() int {
	end, err := time.Parse(normalize.ISODateLayout, p.End)
	if err != nil {
		return 0
	}
	return int(end.Month())
}

func parseNamedDate(token string) (time.Time, bool) {
	token = strings.ReplaceAll(token, ".", "")
	token = strings.Join(strings.Fields(token), " ")
	token = commaSpacing.ReplaceAllString(token, ", ")
	for _, layout := range namedDateLayouts {
		if t, err := time.Parse(layout, token); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
