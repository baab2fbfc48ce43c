package payroll_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/payroll"
)

func TestCalculator_ClassifyShiftUsesCalendar(t *testing.T) {
	calc := payroll.NewCalculator(payroll.DefaultRateTable(), payroll.DefaultLegalConstants(), staticCalendar(monday))

	got, err := calc.ClassifyShift(context.Background(), shift(monday, "08:00", "12:00"))
	require.NoError(t, err)
	assertHours(t, map[payroll.Category]string{payroll.HolidaySundayDaySurcharge: "4"}, got.HoursByCategory)
}

func TestCalculator_NilCalendarMeansNoHolidays(t *testing.T) {
	calc := payroll.NewCalculator(payroll.DefaultRateTable(), payroll.DefaultLegalConstants(), nil)

	r, err := calc.Aggregate(context.Background(), period("711750", shift(monday, "08:00", "18:00")))
	require.NoError(t, err)
	assertApprox(t, dec("729853.1994"), r.GrossPay)
}

func TestCalculator_AggregateBatch(t *testing.T) {
	calc := payroll.NewCalculator(payroll.DefaultRateTable(), payroll.DefaultLegalConstants(), nil)
	calc.BatchConcurrency = 2

	periods := make([]payroll.PayPeriod, 6)
	for i := range periods {
		periods[i] = period("711750", shift(monday, "08:00", "18:00"))
		periods[i].EmployeeID = string(rune('A' + i))
	}
	periods[3].Shifts = append(periods[3].Shifts, shift(tuesday, "8:00", "12:00"))

	outcomes := calc.AggregateBatch(context.Background(), periods)
	require.Len(t, outcomes, len(periods))

	for i, o := range outcomes {
		assert.Equal(t, i, o.Index)
		if i == 3 {
			var aggErr *payroll.AggregationError
			require.ErrorAs(t, o.Err, &aggErr)
			assert.Equal(t, 1, aggErr.Index)
			continue
		}
		require.NoError(t, o.Err)
		assert.Equal(t, periods[i].EmployeeID, o.Result.EmployeeID)
		assertApprox(t, dec("671464.943448"), o.Result.NetPay)
	}
}

func TestCalculator_AggregateBatchEmpty(t *testing.T) {
	calc := payroll.NewCalculator(payroll.DefaultRateTable(), payroll.DefaultLegalConstants(), nil)
	assert.Empty(t, calc.AggregateBatch(context.Background(), nil))
}

func TestCalculator_SharedProviderAcrossBatch(t *testing.T) {
	fetches := 0
	provider := calendar.NewProvider(calendar.SourceFunc(func(_ context.Context, year int) ([]calendar.Date, error) {
		fetches++
		return []calendar.Date{calendar.NewDate(year, time.June, 10)}, nil
	}))
	calc := payroll.NewCalculator(payroll.DefaultRateTable(), payroll.DefaultLegalConstants(), provider)
	calc.BatchConcurrency = 1

	periods := []payroll.PayPeriod{
		period("711750", shift(monday, "08:00", "12:00")),
		period("711750", shift(tuesday, "08:00", "12:00")),
	}
	outcomes := calc.AggregateBatch(context.Background(), periods)

	require.NoError(t, outcomes[0].Err)
	require.NoError(t, outcomes[1].Err)
	assertHours(t, map[payroll.Category]string{payroll.HolidaySundayDaySurcharge: "4"}, outcomes[0].Result.HoursByCategory)
	assertHours(t, map[payroll.Category]string{payroll.OrdinaryDay: "4"}, outcomes[1].Result.HoursByCategory)
	assert.Equal(t, 1, fetches)
}
