package payroll_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/payroll"
)

func aggregate(t *testing.T, p payroll.PayPeriod) payroll.Result {
	t.Helper()
	r, err := payroll.Aggregate(context.Background(), p, payroll.DefaultRateTable(), payroll.DefaultLegalConstants(), payroll.NoHolidays{})
	require.NoError(t, err)
	return r
}

func period(base string, shifts ...payroll.ShiftInput) payroll.PayPeriod {
	return payroll.PayPeriod{
		EmployeeID:  "E1",
		PeriodStart: calendar.NewDate(2024, time.June, 1),
		PeriodEnd:   calendar.NewDate(2024, time.June, 15),
		Shifts:      shifts,
		BaseSalary:  dec(base),
	}
}

// =============================================================================
// END-TO-END
// =============================================================================

func TestAggregate_SingleMondayShift(t *testing.T) {
	r := aggregate(t, period("711750", shift(monday, "08:00", "18:00")))

	assertHours(t, map[payroll.Category]string{
		payroll.OrdinaryDay: "7.66",
		payroll.OvertimeDay: "2.34",
	}, r.HoursByCategory)
	assertApprox(t, dec("18103.1994"), r.TotalSurchargePayment)
	assertApprox(t, dec("10"), r.TotalWorkedHours)

	assert.True(t, r.TransportAllowanceEligible)
	assert.True(t, r.TransportAllowanceApplied.IsZero())
	assertApprox(t, dec("729853.1994"), r.GrossPay)
	assertApprox(t, dec("729853.1994"), r.ContributionBase)

	four := dec("0.04")
	assertApprox(t, r.ContributionBase.Mul(four), r.HealthDeduction)
	assertApprox(t, r.ContributionBase.Mul(four), r.PensionDeduction)
	assertApprox(t, dec("671464.943448"), r.NetPay)
	assertApprox(t, r.GrossPay.Sub(r.HealthDeduction).Sub(r.PensionDeduction), r.NetPay)

	assert.Equal(t, "E1", r.EmployeeID)
	require.Len(t, r.Shifts, 1)
	assert.Equal(t, monday, r.Shifts[0].Date)
}

func TestAggregate_SumsAcrossShifts(t *testing.T) {
	shifts := []payroll.ShiftInput{
		shift(monday, "08:00", "16:00"),
		overnight(tuesday, "22:00", "05:00"),
		shift(sunday, "08:00", "12:00"),
	}
	r := aggregate(t, period("711750", shifts...))

	assertHours(t, map[payroll.Category]string{
		payroll.OrdinaryDay:               "7.66",
		payroll.OvertimeDay:               "0.34",
		payroll.NightSurcharge:            "7",
		payroll.HolidaySundayDaySurcharge: "4",
	}, r.HoursByCategory)
	assertApprox(t, dec("19"), r.TotalWorkedHours)

	expectedSurcharge := dec("2630.3794").Add(dec("15162")).Add(dec("18568"))
	assertApprox(t, expectedSurcharge, r.TotalSurchargePayment)
	assertApprox(t, r.PaymentByCategory.Total(), r.TotalSurchargePayment)

	var perShift decimal.Decimal
	for _, s := range r.Shifts {
		perShift = perShift.Add(s.TotalPayment)
	}
	assertApprox(t, perShift, r.TotalSurchargePayment)
}

func TestAggregate_EmptyPeriod(t *testing.T) {
	r := aggregate(t, period("800000"))

	assert.Empty(t, r.Shifts)
	assert.True(t, r.TotalWorkedHours.IsZero())
	assert.True(t, r.TotalSurchargePayment.IsZero())
	assertApprox(t, dec("800000"), r.GrossPay)
}

// =============================================================================
// TRANSPORT ALLOWANCE
// =============================================================================

func TestAggregate_TransportAllowanceApplied(t *testing.T) {
	p := period("711750")
	p.ApplyTransportAllowance = true
	r := aggregate(t, p)

	assert.True(t, r.TransportAllowanceEligible)
	assertApprox(t, dec("81000"), r.TransportAllowanceApplied)
	assertApprox(t, dec("792750"), r.GrossPay)
	// The allowance never enters the contribution base.
	assertApprox(t, dec("711750"), r.ContributionBase)
	assertApprox(t, dec("735810"), r.NetPay)
}

func TestAggregate_TransportAllowanceAboveTwoMinimumWages(t *testing.T) {
	p := period("1300001")
	p.ApplyTransportAllowance = true
	r := aggregate(t, p)

	assert.False(t, r.TransportAllowanceEligible)
	assert.True(t, r.TransportAllowanceApplied.IsZero())
}

func TestAggregate_TransportAllowanceAtCeiling(t *testing.T) {
	p := period("1300000") // monthly estimate exactly two minimum wages
	p.ApplyTransportAllowance = true
	r := aggregate(t, p)

	assert.True(t, r.TransportAllowanceEligible)
	assertApprox(t, dec("81000"), r.TransportAllowanceApplied)
}

func TestAggregate_SurchargesDoNotAffectEligibility(t *testing.T) {
	p := period("1200000", shift(sunday, "06:00", "22:00"))
	p.ApplyTransportAllowance = true
	r := aggregate(t, p)

	assert.True(t, r.TransportAllowanceEligible)
}

// =============================================================================
// CONTRIBUTION BASE & DEDUCTIONS
// =============================================================================

func TestAggregate_ContributionBaseFloor(t *testing.T) {
	r := aggregate(t, period("300000"))

	assertApprox(t, dec("650000"), r.ContributionBase)
	assertApprox(t, dec("26000"), r.HealthDeduction)
	assertApprox(t, dec("26000"), r.PensionDeduction)
	assertApprox(t, dec("248000"), r.NetPay)
}

func TestAggregate_OtherIncomeAndDeductions(t *testing.T) {
	p := period("700000")
	p.OtherIncome = []payroll.LineItem{
		{Amount: dec("30000"), Description: "Bonificación"},
		{Amount: dec("20000"), Description: "Comisión"},
	}
	p.OtherDeductions = []payroll.LineItem{{Amount: dec("20000"), Description: "Préstamo"}}
	r := aggregate(t, p)

	assertApprox(t, dec("50000"), r.TotalOtherIncome)
	assertApprox(t, dec("750000"), r.GrossPay)
	assertApprox(t, dec("750000"), r.ContributionBase)
	assertApprox(t, dec("20000"), r.TotalOtherDeductions)
	assertApprox(t, dec("80000"), r.TotalDeductions())
	assertApprox(t, dec("670000"), r.NetPay)
}

func TestContributionBase(t *testing.T) {
	legal := payroll.DefaultLegalConstants()
	assertApprox(t, dec("650000"), payroll.ContributionBase(dec("1"), legal))
	assertApprox(t, dec("650000"), payroll.ContributionBase(dec("650000"), legal))
	assertApprox(t, dec("650001"), payroll.ContributionBase(dec("650001"), legal))
}

// =============================================================================
// FAIL-FAST
// =============================================================================

func TestAggregate_FailsFastOnInvalidShift(t *testing.T) {
	bad := shift(tuesday, "25:00", "26:00")
	orders := [][]payroll.ShiftInput{
		{bad, shift(monday, "08:00", "12:00"), shift(sunday, "08:00", "12:00")},
		{shift(monday, "08:00", "12:00"), bad, shift(sunday, "08:00", "12:00")},
		{shift(monday, "08:00", "12:00"), shift(sunday, "08:00", "12:00"), bad},
	}

	for i, shifts := range orders {
		r, err := payroll.Aggregate(context.Background(), period("711750", shifts...),
			payroll.DefaultRateTable(), payroll.DefaultLegalConstants(), nil)

		require.Error(t, err)
		assert.Equal(t, payroll.Result{}, r, "no partial result")

		var aggErr *payroll.AggregationError
		require.ErrorAs(t, err, &aggErr)
		assert.Equal(t, i, aggErr.Index)
		assert.Equal(t, tuesday, aggErr.Date)
		assert.ErrorIs(t, err, payroll.ErrInvalidTime)
		assert.Contains(t, err.Error(), "2024-06-11")
		assert.True(t, payroll.IsValidation(err))
	}
}

func TestAggregate_ReportsFirstOfSeveralErrors(t *testing.T) {
	p := period("711750",
		shift(monday, "08:00", "07:00"),
		withBreak(shift(tuesday, "08:00", "17:00"), "13:00", "12:00"),
	)
	_, err := payroll.Aggregate(context.Background(), p, payroll.DefaultRateTable(), payroll.DefaultLegalConstants(), nil)

	assert.ErrorIs(t, err, payroll.ErrNonIncreasingShift)
	assert.False(t, errors.Is(err, payroll.ErrInvalidBreak))
}

func TestAggregate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := payroll.Aggregate(ctx, period("711750", shift(monday, "08:00", "12:00")),
		payroll.DefaultRateTable(), payroll.DefaultLegalConstants(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAggregate_DegradedHolidayData(t *testing.T) {
	r, err := payroll.Aggregate(context.Background(), period("711750", shift(monday, "08:00", "12:00")),
		payroll.DefaultRateTable(), payroll.DefaultLegalConstants(), failingCalendar())

	require.NoError(t, err)
	assert.True(t, r.HolidayDataDegraded)
}
