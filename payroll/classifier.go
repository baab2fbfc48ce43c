/*
classifier.go - Shift classification

PURPOSE:
  Splits one shift into hours per pay category and prices them.

ALGORITHM:
  Every worked instant is described by three conditions:
    overtime         cumulative worked time so far exceeds 7.66 h
    holiday/Sunday   the calendar day is a Sunday or a public holiday
    night            the wall-clock hour is >= 21 or < 6

  The conditions only change at a few instants: midnight, 06:00, 21:00,
  the break bounds, and the moment worked time reaches the threshold.
  The shift is cut at those breakpoints and each piece is integrated
  exactly (whole seconds), instead of stepping minute by minute. Pieces
  inside the break count toward nothing, including the threshold.

  Category per piece comes from CategoryFor (the 2x2x2 decision table).
  Payment = hours x rate, except ordinary hours, which are never paid here.

TIMES:
  Shift times are wall clock on the shift date. The end moves to the next
  day when the shift crosses midnight; so does any break time earlier than
  the shift start. Instants are computed in UTC.
*/
package payroll

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/calendar"
)

var secondsPerHour = decimal.NewFromInt(3600)

// shiftSpan is a validated shift resolved to absolute instants.
type shiftSpan struct {
	start, end time.Time

	hasBreak             bool
	breakStart, breakEnd time.Time
}

func (s shiftSpan) inBreak(t time.Time) bool {
	return s.hasBreak && !t.Before(s.breakStart) && t.Before(s.breakEnd)
}

// Classify converts one shift into hours and payments per category.
// A nil holidays calendar means no holidays.
func Classify(ctx context.Context, shift ShiftInput, rates RateTable, holidays HolidayCalendar) (ClassifiedShift, error) {
	span, err := resolveShift(shift)
	if err != nil {
		return ClassifiedShift{}, err
	}
	if holidays == nil {
		holidays = NoHolidays{}
	}
	classified := classifySpan(ctx, span, rates, holidays)
	classified.Date = shift.Date
	return classified, nil
}

func classifySpan(ctx context.Context, span shiftSpan, rates RateTable, holidays HolidayCalendar) ClassifiedShift {
	lookup := &holidayLookup{ctx: ctx, holidays: holidays, sets: make(map[int]calendar.Set, 1)}

	var seconds [categoryCount]int64
	var worked int64
	points := breakpoints(span)
	for i := 0; i+1 < len(points); i++ {
		from, to := points[i], points[i+1]
		if span.inBreak(from) {
			continue
		}

		holidayOrSunday := lookup.isHolidayOrSunday(calendar.DateOf(from))
		night := isNight(from)
		piece := int64(to.Sub(from) / time.Second)

		var regular int64
		if worked < OvertimeThresholdSeconds {
			regular = min(piece, OvertimeThresholdSeconds-worked)
		}
		seconds[CategoryFor(false, holidayOrSunday, night)] += regular
		seconds[CategoryFor(true, holidayOrSunday, night)] += piece - regular
		worked += piece
	}

	var hours Breakdown
	for _, c := range Categories {
		hours[c] = decimal.NewFromInt(seconds[c]).Div(secondsPerHour)
	}
	payments := rates.Price(hours)

	return ClassifiedShift{
		HoursByCategory:     hours,
		PaymentByCategory:   payments,
		TotalWorkedHours:    hours.Total(),
		TotalPayment:        payments.Total(),
		HolidayDataDegraded: lookup.degraded,
	}
}

func isNight(t time.Time) bool {
	h := t.Hour()
	return h >= NightStartHour || h < NightEndHour
}

// breakpoints returns the sorted, distinct instants at which any
// classification condition (except the threshold) may change.
func breakpoints(span shiftSpan) []time.Time {
	points := []time.Time{span.start, span.end}
	inside := func(t time.Time) bool { return t.After(span.start) && t.Before(span.end) }

	if span.hasBreak {
		for _, t := range []time.Time{span.breakStart, span.breakEnd} {
			if inside(t) {
				points = append(points, t)
			}
		}
	}
	for day := calendar.DateOf(span.start); !day.Time().After(span.end); day = day.AddDays(1) {
		for _, hour := range []int{0, NightEndHour, NightStartHour} {
			if t := day.At(hour, 0); inside(t) {
				points = append(points, t)
			}
		}
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Before(points[j]) })
	out := points[:1]
	for _, t := range points[1:] {
		if !t.Equal(out[len(out)-1]) {
			out = append(out, t)
		}
	}
	return out
}

// holidayLookup memoizes the holiday set per year for one classification.
type holidayLookup struct {
	ctx      context.Context
	holidays HolidayCalendar
	sets     map[int]calendar.Set
	degraded bool
}

func (l *holidayLookup) isHolidayOrSunday(d calendar.Date) bool {
	if d.IsSunday() {
		return true
	}
	set, ok := l.sets[d.Year]
	if !ok {
		set = l.holidays.HolidaysFor(l.ctx, d.Year)
		l.sets[d.Year] = set
		l.degraded = l.degraded || set.Degraded()
	}
	return set.Contains(d)
}

// =============================================================================
// VALIDATION
// =============================================================================

func resolveShift(s ShiftInput) (shiftSpan, error) {
	if s.Date.IsZero() {
		return shiftSpan{}, &ValidationError{Field: "date", Err: ErrMissingDate}
	}
	startClock, err := ParseClock(s.Start)
	if err != nil {
		return shiftSpan{}, &ValidationError{Field: "start", Value: s.Start, Err: err}
	}
	endClock, err := ParseClock(s.End)
	if err != nil {
		return shiftSpan{}, &ValidationError{Field: "end", Value: s.End, Err: err}
	}

	at := func(c Clock) time.Time { return s.Date.At(c.Hour(), c.Minute()) }

	span := shiftSpan{start: at(startClock), end: at(endClock)}
	if s.CrossesMidnight {
		span.end = span.end.AddDate(0, 0, 1)
	}
	if !span.end.After(span.start) {
		return shiftSpan{}, &ValidationError{Field: "end", Value: s.End, Err: ErrNonIncreasingShift}
	}

	if !s.HasBreak {
		return span, nil
	}

	breakStart, err := ParseClock(s.BreakStart)
	if err != nil {
		return shiftSpan{}, &ValidationError{Field: "break_start", Value: s.BreakStart, Err: err}
	}
	breakEnd, err := ParseClock(s.BreakEnd)
	if err != nil {
		return shiftSpan{}, &ValidationError{Field: "break_end", Value: s.BreakEnd, Err: err}
	}

	anchor := func(c Clock) time.Time {
		t := at(c)
		if s.CrossesMidnight && c < startClock {
			t = t.AddDate(0, 0, 1)
		}
		return t
	}
	span.hasBreak = true
	span.breakStart = anchor(breakStart)
	span.breakEnd = anchor(breakEnd)
	if !span.breakEnd.After(span.breakStart) {
		return shiftSpan{}, &ValidationError{Field: "break_end", Value: s.BreakEnd, Err: ErrInvalidBreak}
	}
	return span, nil
}
