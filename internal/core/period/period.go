// Package period normalizes planning dates and models frozen months.
package period

import (
	"fmt"
	"strings"
	"time"
)

// MonthsPerYear is the length of every planning fold.
const MonthsPerYear = 12

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01",
}

// MonthStart returns the first day of t's month at 00:00 UTC.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Month returns the first day of the given year/month.
func Month(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// MonthsOfYear returns January..December of year.
func MonthsOfYear(year int) []time.Time {
	months := make([]time.Time, 0, MonthsPerYear)
	for m := time.January; m <= time.December; m++ {
		months = append(months, Month(year, m))
	}
	return months
}

// Next returns the first day of the following month (December rolls over).
func Next(t time.Time) time.Time {
	return MonthStart(t).AddDate(0, 1, 0)
}

// Prev returns the first day of the previous month.
func Prev(t time.Time) time.Time {
	return MonthStart(t).AddDate(0, -1, 0)
}

// YearBounds returns [Jan 1 of year, Jan 1 of year+1).
func YearBounds(year int) (time.Time, time.Time) {
	from := Month(year, time.January)
	return from, from.AddDate(1, 0, 0)
}

// ParseDate accepts ISO dates, RFC3339 timestamps and YYYY-MM and
// normalizes the result to the first of the month.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return MonthStart(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
}

// Key formats a month as YYYY-MM.
func Key(t time.Time) string {
	return t.Format("2006-01")
}

// MonthName returns the English month name for 1..12.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return time.Month(month).String()
}

// YearRange bounds the years accepted by the API and by unfiltered queries.
type YearRange struct {
	Min int
	Max int
}

// Contains reports whether year lies inside the range (inclusive).
func (r YearRange) Contains(year int) bool {
	return year >= r.Min && year <= r.Max
}

// Bounds returns the half-open date interval covered by the range.
func (r YearRange) Bounds() (time.Time, time.Time) {
	from, _ := YearBounds(r.Min)
	_, to := YearBounds(r.Max)
	return from, to
}
