package payroll

import (
	"fmt"
	"strings"
	"time"

	"github.com/warp/payroll-engine/calendar"
)

// =============================================================================
// QUINCENA - Semi-monthly pay periods
// =============================================================================

// QuincenaFor returns the semi-monthly pay period containing d: the 1st to
// the 15th, or the 16th to the last day of the month.
func QuincenaFor(d calendar.Date) (start, end calendar.Date) {
	if d.Day <= 15 {
		return calendar.NewDate(d.Year, d.Month, 1), calendar.NewDate(d.Year, d.Month, 15)
	}
	return calendar.NewDate(d.Year, d.Month, 16), lastDayOfMonth(d.Year, d.Month)
}

func lastDayOfMonth(year int, month time.Month) calendar.Date {
	return calendar.DateOf(time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC))
}

// FillBounds sets missing period bounds to the quincena of the first shift.
// It reports whether anything was filled. Periods without shifts are left
// alone.
func (p *PayPeriod) FillBounds() bool {
	if len(p.Shifts) == 0 || p.Shifts[0].Date.IsZero() {
		return false
	}
	if !p.PeriodStart.IsZero() && !p.PeriodEnd.IsZero() {
		return false
	}
	start, end := QuincenaFor(p.Shifts[0].Date)
	if p.PeriodStart.IsZero() {
		p.PeriodStart = start
	}
	if p.PeriodEnd.IsZero() {
		p.PeriodEnd = end
	}
	return true
}

// Contains reports whether d falls within [PeriodStart, PeriodEnd].
func (p PayPeriod) Contains(d calendar.Date) bool {
	return !d.Before(p.PeriodStart) && !d.After(p.PeriodEnd)
}

// Validate checks the period-level fields and that every dated shift falls
// within the period. Shift times are left to Classify. Call FillBounds
// first when bounds may be missing.
func (p PayPeriod) Validate() error {
	switch {
	case strings.TrimSpace(p.EmployeeID) == "":
		return fmt.Errorf("%w: employee_id is required", ErrInvalidPeriod)
	case p.PeriodStart.IsZero() || p.PeriodEnd.IsZero():
		return fmt.Errorf("%w: period_start and period_end are required", ErrInvalidPeriod)
	case p.PeriodEnd.Before(p.PeriodStart):
		return fmt.Errorf("%w: period_end must not be before period_start", ErrInvalidPeriod)
	case p.BaseSalary.IsNegative():
		return fmt.Errorf("%w: base_salary must not be negative", ErrInvalidPeriod)
	}
	for i, it := range p.OtherIncome {
		if it.Amount.IsNegative() {
			return fmt.Errorf("%w: other_income[%d]: amount must not be negative", ErrInvalidPeriod, i)
		}
	}
	for i, it := range p.OtherDeductions {
		if it.Amount.IsNegative() {
			return fmt.Errorf("%w: other_deductions[%d]: amount must not be negative", ErrInvalidPeriod, i)
		}
	}
	for i, s := range p.Shifts {
		if !s.Date.IsZero() && !p.Contains(s.Date) {
			return fmt.Errorf("%w: shifts[%d]: date %s is outside %s to %s",
				ErrInvalidPeriod, i, s.Date, p.PeriodStart, p.PeriodEnd)
		}
	}
	return nil
}
