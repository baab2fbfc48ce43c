package payroll

import (
	"context"

	"github.com/shopspring/decimal"
)

var (
	two  = decimal.NewFromInt(2)
	half = decimal.RequireFromString("0.5")
)

// Aggregate classifies every shift of a period and derives the payroll
// statement. The first invalid shift aborts the whole period with an
// *AggregationError; no partial result is returned.
func Aggregate(ctx context.Context, period PayPeriod, rates RateTable, legal LegalConstants, holidays HolidayCalendar) (Result, error) {
	result := Result{
		EmployeeID:  period.EmployeeID,
		PeriodStart: period.PeriodStart,
		PeriodEnd:   period.PeriodEnd,
		Shifts:      make([]ClassifiedShift, 0, len(period.Shifts)),
		BaseSalary:  period.BaseSalary,
	}

	for i, shift := range period.Shifts {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		classified, err := Classify(ctx, shift, rates, holidays)
		if err != nil {
			return Result{}, &AggregationError{Index: i, Date: shift.Date, Err: err}
		}
		result.Shifts = append(result.Shifts, classified)
		result.HoursByCategory = result.HoursByCategory.Add(classified.HoursByCategory)
		result.PaymentByCategory = result.PaymentByCategory.Add(classified.PaymentByCategory)
		result.TotalWorkedHours = result.TotalWorkedHours.Add(classified.TotalWorkedHours)
		result.HolidayDataDegraded = result.HolidayDataDegraded || classified.HolidayDataDegraded
	}
	result.TotalSurchargePayment = result.PaymentByCategory.SurchargeTotal()

	grossBeforeExtras := period.BaseSalary.Add(result.TotalSurchargePayment)

	// Transport allowance: only for workers earning up to two minimum wages
	// a month. The period is half a month.
	monthlyEstimate := period.BaseSalary.Mul(two)
	result.TransportAllowanceEligible = monthlyEstimate.LessThanOrEqual(legal.MinimumWage.Mul(two))
	result.TransportAllowanceApplied = decimal.Zero
	if result.TransportAllowanceEligible && period.ApplyTransportAllowance {
		result.TransportAllowanceApplied = legal.TransportAllowance.Mul(half)
	}

	result.TotalOtherIncome = SumLineItems(period.OtherIncome)
	result.GrossPay = grossBeforeExtras.Add(result.TransportAllowanceApplied).Add(result.TotalOtherIncome)

	// IBC excludes the transport allowance and never drops below half a
	// minimum wage.
	result.ContributionBase = ContributionBase(grossBeforeExtras.Add(result.TotalOtherIncome), legal)
	result.HealthDeduction = result.ContributionBase.Mul(legal.HealthRate)
	result.PensionDeduction = result.ContributionBase.Mul(legal.PensionRate)

	result.TotalOtherDeductions = SumLineItems(period.OtherDeductions)
	result.NetPay = result.GrossPay.
		Sub(result.HealthDeduction).
		Sub(result.PensionDeduction).
		Sub(result.TotalOtherDeductions)

	return result, nil
}

// ContributionBase applies the bi-weekly IBC floor (half a minimum wage)
// to a computed base.
func ContributionBase(computed decimal.Decimal, legal LegalConstants) decimal.Decimal {
	return decimal.Max(computed, legal.MinimumWage.Mul(half))
}
