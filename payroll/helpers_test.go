package payroll_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var (
	monday  = calendar.NewDate(2024, time.June, 10)
	tuesday = calendar.NewDate(2024, time.June, 11)
	sunday  = calendar.NewDate(2024, time.June, 9)
)

func shift(date calendar.Date, start, end string) payroll.ShiftInput {
	return payroll.ShiftInput{Date: date, Start: start, End: end}
}

func overnight(date calendar.Date, start, end string) payroll.ShiftInput {
	s := shift(date, start, end)
	s.CrossesMidnight = true
	return s
}

func withBreak(s payroll.ShiftInput, from, to string) payroll.ShiftInput {
	s.HasBreak = true
	s.BreakStart = from
	s.BreakEnd = to
	return s
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// assertHours checks every category against expected; missing categories
// must be zero.
func assertHours(t *testing.T, expected map[payroll.Category]string, got payroll.Breakdown) {
	t.Helper()
	for _, c := range payroll.Categories {
		want := decimal.Zero
		if s, ok := expected[c]; ok {
			want = dec(s)
		}
		assertApprox(t, want, got.Get(c), c.String())
	}
}

func assertApprox(t *testing.T, want, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.InDelta(t, want.InexactFloat64(), got.InexactFloat64(), 1e-6, msgAndArgs...)
}

// failingCalendar always reports a degraded (empty) set.
func failingCalendar() *calendar.Provider {
	return calendar.NewProvider(calendar.SourceFunc(func(context.Context, int) ([]calendar.Date, error) {
		return nil, errors.New("holiday service down")
	}))
}

func staticCalendar(dates ...calendar.Date) *calendar.Provider {
	return calendar.NewProvider(calendar.Static(dates...))
}
