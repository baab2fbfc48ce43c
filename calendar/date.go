/*
Package calendar provides civil dates and the public-holiday calendar used
to classify worked time.

PURPOSE:
  Shift classification needs to know, for every worked instant, whether the
  calendar day is a Sunday or a public holiday. This package owns that
  question: a wall-clock Date type, the Source contract for holiday data,
  and the Provider that caches one holiday Set per year.

KEY CONCEPTS:
  - Date:     A calendar day with no time zone (YYYY-MM-DD)
  - Source:   Anything that can list the holidays of a year
  - Set:      An immutable set of holiday dates for one year
  - Provider: Year-keyed cache in front of a Source

SOURCES:
  - Colombia():   Computed national calendar (Ley 51 de 1983)
  - NewNager():   Remote public-holiday API
  - Fallback():   First source that succeeds
  - Union():      Merged dates of several sources
  - Static():     Fixed list, mostly for tests

SEE ALSO:
  - provider.go: Caching and the degrade-gracefully policy
  - payroll/classifier.go: The consumer of holiday sets
*/
package calendar

import (
	"fmt"
	"time"
)

// DateLayout is the text form of a Date.
const DateLayout = "2006-01-02"

// =============================================================================
// DATE - Civil calendar day
// =============================================================================

// Date is a calendar day without a time zone. Instants derived from a Date
// are expressed in UTC so wall-clock arithmetic never meets a DST gap.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a Date, normalizing out-of-range days and months the way
// time.Date does (e.g. Feb 30 becomes Mar 1 or 2).
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

// Time returns midnight of the day, UTC.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// At returns the wall-clock instant hour:minute on this day, UTC.
func (d Date) At(hour, minute int) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, time.UTC)
}

func (d Date) AddDays(n int) Date { return DateOf(d.Time().AddDate(0, 0, n)) }
func (d Date) Weekday() time.Weekday { return d.Time().Weekday() }
func (d Date) IsSunday() bool { return d.Weekday() == time.Sunday }
func (d Date) IsZero() bool { return d == Date{} }
func (d Date) Before(other Date) bool { return d.Time().Before(other.Time()) }
func (d Date) After(other Date) bool { return d.Time().After(other.Time()) }
func (d Date) String() string { return d.Time().Format(DateLayout) }

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
