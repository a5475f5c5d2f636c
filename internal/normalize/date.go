package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CenturyPivot splits two-digit years: values below it are 2000s, the rest 1900s.
const CenturyPivot = 50

// ISODateLayout is the layout of every normalized date.
const ISODateLayout = "2006-01-02"

var (
	slashDatePattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})(?:/(\d{2}|\d{4}))?$`)
	isoDatePattern   = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
)

var daysInMonth = [13]int{0, 31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// IsValidCalendarDate reports whether month and day can form a date in some year.
func IsValidCalendarDate(month, day int) bool {
	if month < 1 || month > 12 {
		return false
	}
	return day >= 1 && day <= daysInMonth[month]
}

// ExpandYear converts a two-digit year to four digits using CenturyPivot.
// Years that already have four digits are returned unchanged.
func ExpandYear(year int) int {
	if year >= 100 {
		return year
	}
	if year < CenturyPivot {
		return 2000 + year
	}
	return 1900 + year
}

// DateParts extracts month, day and year from a date token. Year is zero when the
// token only carries MM/DD.
func DateParts(token string) (month, day, year int, err error) {
	s := strings.TrimSpace(token)

	if m := isoDatePattern.FindStringSubmatch(s); m != nil {
		year, _ = strconv.Atoi(m[1])
		month, _ = strconv.Atoi(m[2])
		day, _ = strconv.Atoi(m[3])
		return month, day, year, nil
	}

	m := slashDatePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrMissingDate, token)
	}
	month, _ = strconv.Atoi(m[1])
	day, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		year, _ = strconv.Atoi(m[3])
		year = ExpandYear(year)
	}
	return month, day, year, nil
}

// BuildDate validates the parts and formats them as an ISO date.
func BuildDate(year, month, day int) (string, error) {
	if !IsValidCalendarDate(month, day) {
		return "", fmt.Errorf("%w: month %d day %d", ErrInvalidCalendarDate, month, day)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return "", fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidCalendarDate, year, month, day)
	}
	return t.Format(ISODateLayout), nil
}

// Date normalizes a date token to YYYY-MM-DD. Tokens without a year use
// referenceYear as-is; detecting a year rollover is the caller's job.
func Date(token string, referenceYear int) (string, error) {
	month, day, year, err := DateParts(token)
	if err != nil {
		return "", err
	}
	if year == 0 {
		if referenceYear <= 0 {
			return "", fmt.Errorf("%w: %q has no year and no reference year was given", ErrMissingDate, token)
		}
		year = referenceYear
	}
	return BuildDate(year, month, day)
}

// LooksLikeDate reports whether token has a date shape, without validating it.
func LooksLikeDate(token string) bool {
	_, _, _, err := DateParts(token)
	return err == nil
}
