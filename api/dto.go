/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Requests decode
  straight into the payroll input types (decimals accept JSON numbers or
  strings). Responses are presentation: every decimal is rounded to two
  places and rendered as a JSON number.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Shifts:    ClassifiedShiftDTO, CategoryLineDTO
  Payroll:   ResultDTO, BatchRequest, BatchItemDTO
  Periods:   PeriodDTO
  Holidays:  HolidayYearDTO, CustomHolidayDTO, CreateHolidayRequest
  Rates:     RatesDTO

SEE ALSO:
  - handlers.go: Uses these types
  - payroll/types.go: Domain types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

// presentationPlaces is the rounding applied to every amount in responses.
const presentationPlaces = 2

func money(d decimal.Decimal) float64 {
	return d.Round(presentationPlaces).InexactFloat64()
}

func roundedMap(b payroll.Breakdown) map[string]float64 {
	rounded := b.Round(presentationPlaces)
	m := make(map[string]float64, len(payroll.Categories))
	for _, c := range payroll.Categories {
		m[c.String()] = rounded.Get(c).InexactFloat64()
	}
	return m
}

// =============================================================================
// SHIFTS
// =============================================================================

// CategoryLineDTO is one non-empty category of a breakdown, for statements.
type CategoryLineDTO struct {
	Category string  `json:"category"`
	Code     string  `json:"code"`
	Label    string  `json:"label"`
	Hours    float64 `json:"hours"`
	Rate     float64 `json:"rate"`
	Payment  float64 `json:"payment"`
}

func categoryLines(hours, payments payroll.Breakdown, rates payroll.RateTable) []CategoryLineDTO {
	lines := []CategoryLineDTO{}
	for _, c := range payroll.Categories {
		if hours.Get(c).IsZero() {
			continue
		}
		lines = append(lines, CategoryLineDTO{
			Category: c.String(),
			Code:     c.Code(),
			Label:    c.Label(),
			Hours:    money(hours.Get(c)),
			Rate:     money(rates.Rate(c)),
			Payment:  money(payments.Get(c)),
		})
	}
	return lines
}

// ClassifiedShiftDTO is a classified shift in API responses.
type ClassifiedShiftDTO struct {
	Date                string             `json:"date"`
	HoursByCategory     map[string]float64 `json:"hours_by_category"`
	PaymentByCategory   map[string]float64 `json:"payment_by_category"`
	Lines               []CategoryLineDTO  `json:"lines"`
	TotalWorkedHours    float64            `json:"total_worked_hours"`
	TotalPayment        float64            `json:"total_payment"`
	HolidayDataDegraded bool               `json:"holiday_data_degraded"`
}

func toClassifiedShiftDTO(s payroll.ClassifiedShift, rates payroll.RateTable) ClassifiedShiftDTO {
	return ClassifiedShiftDTO{
		Date:                s.Date.String(),
		HoursByCategory:     roundedMap(s.HoursByCategory),
		PaymentByCategory:   roundedMap(s.PaymentByCategory),
		Lines:               categoryLines(s.HoursByCategory, s.PaymentByCategory, rates),
		TotalWorkedHours:    money(s.TotalWorkedHours),
		TotalPayment:        money(s.TotalPayment),
		HolidayDataDegraded: s.HolidayDataDegraded,
	}
}

// =============================================================================
// PAYROLL
// =============================================================================

// ResultDTO is a payroll statement in API responses.
type ResultDTO struct {
	EmployeeID  string               `json:"employee_id"`
	PeriodStart string               `json:"period_start"`
	PeriodEnd   string               `json:"period_end"`
	Shifts      []ClassifiedShiftDTO `json:"shifts"`

	HoursByCategory       map[string]float64 `json:"hours_by_category"`
	PaymentByCategory     map[string]float64 `json:"payment_by_category"`
	Lines                 []CategoryLineDTO  `json:"lines"`
	TotalWorkedHours      float64            `json:"total_worked_hours"`
	TotalSurchargePayment float64            `json:"total_surcharge_payment"`

	BaseSalary                 float64 `json:"base_salary"`
	TransportAllowanceEligible bool    `json:"transport_allowance_eligible"`
	TransportAllowanceApplied  float64 `json:"transport_allowance_applied"`
	TotalOtherIncome           float64 `json:"total_other_income"`
	GrossPay                   float64 `json:"gross_pay"`

	ContributionBase     float64 `json:"contribution_base"`
	HealthDeduction      float64 `json:"health_deduction"`
	PensionDeduction     float64 `json:"pension_deduction"`
	TotalOtherDeductions float64 `json:"total_other_deductions"`
	TotalDeductions      float64 `json:"total_deductions"`
	NetPay               float64 `json:"net_pay"`

	HolidayDataDegraded bool       `json:"holiday_data_degraded"`
	CalculatedAt        *time.Time `json:"calculated_at,omitempty"`
}

func toResultDTO(r payroll.Result, rates payroll.RateTable) ResultDTO {
	shifts := make([]ClassifiedShiftDTO, len(r.Shifts))
	for i, s := range r.Shifts {
		shifts[i] = toClassifiedShiftDTO(s, rates)
	}
	return ResultDTO{
		EmployeeID:                 r.EmployeeID,
		PeriodStart:                r.PeriodStart.String(),
		PeriodEnd:                  r.PeriodEnd.String(),
		Shifts:                     shifts,
		HoursByCategory:            roundedMap(r.HoursByCategory),
		PaymentByCategory:          roundedMap(r.PaymentByCategory),
		Lines:                      categoryLines(r.HoursByCategory, r.PaymentByCategory, rates),
		TotalWorkedHours:           money(r.TotalWorkedHours),
		TotalSurchargePayment:      money(r.TotalSurchargePayment),
		BaseSalary:                 money(r.BaseSalary),
		TransportAllowanceEligible: r.TransportAllowanceEligible,
		TransportAllowanceApplied:  money(r.TransportAllowanceApplied),
		TotalOtherIncome:           money(r.TotalOtherIncome),
		GrossPay:                   money(r.GrossPay),
		ContributionBase:           money(r.ContributionBase),
		HealthDeduction:            money(r.HealthDeduction),
		PensionDeduction:           money(r.PensionDeduction),
		TotalOtherDeductions:       money(r.TotalOtherDeductions),
		TotalDeductions:            money(r.TotalDeductions()),
		NetPay:                     money(r.NetPay),
		HolidayDataDegraded:        r.HolidayDataDegraded,
	}
}

// BatchRequest is the body of POST /api/payroll/batch.
type BatchRequest struct {
	Periods []payroll.PayPeriod `json:"periods"`
}

// BatchItemDTO is the outcome of one period of a batch. Exactly one of
// Result and Error is set.
type BatchItemDTO struct {
	Index  int            `json:"index"`
	Result *ResultDTO     `json:"result,omitempty"`
	Error  *ErrorResponse `json:"error,omitempty"`
}

// =============================================================================
// PERIODS
// =============================================================================

// PeriodDTO is a stored period in API responses.
type PeriodDTO struct {
	ID string `json:"id"`
	payroll.PayPeriod
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toPeriodDTO(rec sqlite.PeriodRecord) PeriodDTO {
	p := rec.Period
	if p.Shifts == nil {
		p.Shifts = []payroll.ShiftInput{}
	}
	return PeriodDTO{ID: rec.ID, PayPeriod: p, CreatedAt: rec.CreatedAt, UpdatedAt: rec.UpdatedAt}
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// HolidayYearDTO is the effective holiday set of a year.
type HolidayYearDTO struct {
	Year     int              `json:"year"`
	Degraded bool             `json:"degraded"`
	Holidays []HolidayDateDTO `json:"holidays"`
}

// HolidayDateDTO is one date of the effective holiday set.
type HolidayDateDTO struct {
	Date string `json:"date"`
	Name string `json:"name,omitempty"`
}

// CustomHolidayDTO is a stored custom holiday.
type CustomHolidayDTO struct {
	Date      string    `json:"date"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateHolidayRequest is the body of POST /api/holidays.
type CreateHolidayRequest struct {
	Date calendar.Date `json:"date"`
	Name string        `json:"name"`
}

// =============================================================================
// RATES
// =============================================================================

// RatesDTO exposes the configured rate table and legal constants.
type RatesDTO struct {
	Rates                   []CategoryRateDTO `json:"rates"`
	OvertimeThresholdHours  float64           `json:"overtime_threshold_hours"`
	NightStartHour          int               `json:"night_start_hour"`
	NightEndHour            int               `json:"night_end_hour"`
	MinimumWage             float64           `json:"minimum_wage"`
	TransportAllowance      float64           `json:"transport_allowance"`
	HealthRate              float64           `json:"health_rate"`
	PensionRate             float64           `json:"pension_rate"`
	ContributionBaseMinimum float64           `json:"contribution_base_minimum"`
}

// CategoryRateDTO is the hourly rate of one category.
type CategoryRateDTO struct {
	Category  string  `json:"category"`
	Code      string  `json:"code"`
	Label     string  `json:"label"`
	Rate      float64 `json:"rate"`
	Surcharge bool    `json:"surcharge"`
	Overtime  bool    `json:"overtime"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Error codes.
const (
	CodeInvalidBody   = "invalid_body"
	CodeInvalidShift  = "invalid_shift"
	CodeInvalidPeriod = "invalid_period"
	CodeInvalidInput  = "invalid_input"
	CodeNotFound      = "not_found"
	CodeRateLimited   = "rate_limited"
	CodeBodyTooLarge  = "body_too_large"
	CodeInternal      = "internal_error"
)
