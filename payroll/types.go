package payroll

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/calendar"
)

// HolidayCalendar supplies the holiday set of a year. *calendar.Provider
// implements it.
type HolidayCalendar interface {
	HolidaysFor(ctx context.Context, year int) calendar.Set
}

// NoHolidays is a HolidayCalendar with no holidays at all. Sundays are
// still Sundays.
type NoHolidays struct{}

func (NoHolidays) HolidaysFor(context.Context, int) calendar.Set { return calendar.NewSet() }

// =============================================================================
// SHIFT
// =============================================================================

// ShiftInput is one clocked shift as entered by the worker.
type ShiftInput struct {
	Date            calendar.Date `json:"date"`
	Start           string        `json:"start_time"` // HH:mm
	End             string        `json:"end_time"`   // HH:mm
	CrossesMidnight bool          `json:"crosses_midnight"`
	HasBreak        bool          `json:"has_break"`
	BreakStart      string        `json:"break_start,omitempty"`
	BreakEnd        string        `json:"break_end,omitempty"`
}

// ClassifiedShift is the hours and payments of one shift per category.
// HoursByCategory always sums to TotalWorkedHours; break time is in
// neither.
type ClassifiedShift struct {
	Date                calendar.Date   `json:"date"`
	HoursByCategory     Breakdown       `json:"hours_by_category"`
	PaymentByCategory   Breakdown       `json:"payment_by_category"`
	TotalWorkedHours    decimal.Decimal `json:"total_worked_hours"`
	TotalPayment        decimal.Decimal `json:"total_payment"`
	HolidayDataDegraded bool            `json:"holiday_data_degraded,omitempty"`
}

// =============================================================================
// PERIOD
// =============================================================================

// LineItem is a manual income or deduction.
type LineItem struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// SumLineItems adds up the amounts of items.
func SumLineItems(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Amount)
	}
	return total
}

// PayPeriod is everything needed to compute one bi-weekly payroll.
type PayPeriod struct {
	EmployeeID              string          `json:"employee_id"`
	PeriodStart             calendar.Date   `json:"period_start"`
	PeriodEnd               calendar.Date   `json:"period_end"`
	Shifts                  []ShiftInput    `json:"shifts"`
	BaseSalary              decimal.Decimal `json:"base_salary"` // for the period
	ApplyTransportAllowance bool            `json:"apply_transport_allowance"`
	OtherIncome             []LineItem      `json:"other_income,omitempty"`
	OtherDeductions         []LineItem      `json:"other_deductions,omitempty"`
}

// Result is the payroll statement of a period.
type Result struct {
	EmployeeID  string            `json:"employee_id"`
	PeriodStart calendar.Date     `json:"period_start"`
	PeriodEnd   calendar.Date     `json:"period_end"`
	Shifts      []ClassifiedShift `json:"shifts"`

	HoursByCategory       Breakdown       `json:"hours_by_category"`
	PaymentByCategory     Breakdown       `json:"payment_by_category"`
	TotalSurchargePayment decimal.Decimal `json:"total_surcharge_payment"`
	TotalWorkedHours      decimal.Decimal `json:"total_worked_hours"`

	BaseSalary                 decimal.Decimal `json:"base_salary"`
	TransportAllowanceEligible bool            `json:"transport_allowance_eligible"`
	TransportAllowanceApplied  decimal.Decimal `json:"transport_allowance_applied"`
	TotalOtherIncome           decimal.Decimal `json:"total_other_income"`
	GrossPay                   decimal.Decimal `json:"gross_pay"`

	ContributionBase     decimal.Decimal `json:"contribution_base"` // IBC
	HealthDeduction      decimal.Decimal `json:"health_deduction"`
	PensionDeduction     decimal.Decimal `json:"pension_deduction"`
	TotalOtherDeductions decimal.Decimal `json:"total_other_deductions"`
	NetPay               decimal.Decimal `json:"net_pay"`

	HolidayDataDegraded bool `json:"holiday_data_degraded,omitempty"`
}

// TotalDeductions is health + pension + other deductions.
func (r Result) TotalDeductions() decimal.Decimal {
	return r.HealthDeduction.Add(r.PensionDeduction).Add(r.TotalOtherDeductions)
}
