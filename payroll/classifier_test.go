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

func classify(t *testing.T, s payroll.ShiftInput, holidays payroll.HolidayCalendar) payroll.ClassifiedShift {
	t.Helper()
	c, err := payroll.Classify(context.Background(), s, payroll.DefaultRateTable(), holidays)
	require.NoError(t, err)
	return c
}

// =============================================================================
// OVERTIME THRESHOLD
// =============================================================================

func TestClassify_ShortDayShiftIsAllOrdinary(t *testing.T) {
	c := classify(t, shift(monday, "08:00", "15:39"), nil)

	assertHours(t, map[payroll.Category]string{payroll.OrdinaryDay: "7.65"}, c.HoursByCategory)
	assert.True(t, c.PaymentByCategory.Total().IsZero())
	assert.Equal(t, monday, c.Date)
}

func TestClassify_EightHourDayShiftSplitsAtThreshold(t *testing.T) {
	c := classify(t, shift(monday, "08:00", "16:00"), nil)

	assertHours(t, map[payroll.Category]string{
		payroll.OrdinaryDay: "7.66",
		payroll.OvertimeDay: "0.34",
	}, c.HoursByCategory)
	assert.True(t, c.HoursByCategory.Get(payroll.OrdinaryDay).Equal(dec("7.66")))
	assert.True(t, c.PaymentByCategory.Get(payroll.OvertimeDay).Equal(dec("2630.3794")))
	assert.True(t, c.PaymentByCategory.Get(payroll.OrdinaryDay).IsZero())
	assert.True(t, c.TotalWorkedHours.Equal(dec("8")))
}

func TestClassify_TenHourShift(t *testing.T) {
	c := classify(t, shift(monday, "08:00", "18:00"), nil)

	assertHours(t, map[payroll.Category]string{
		payroll.OrdinaryDay: "7.66",
		payroll.OvertimeDay: "2.34",
	}, c.HoursByCategory)
	assertApprox(t, dec("18103.1994"), c.TotalPayment)
}

// =============================================================================
// NIGHT / SUNDAY / HOLIDAY
// =============================================================================

func TestClassify_NightShiftIsAllNightSurcharge(t *testing.T) {
	c := classify(t, overnight(tuesday, "22:00", "05:00"), nil)

	assertHours(t, map[payroll.Category]string{payroll.NightSurcharge: "7"}, c.HoursByCategory)
	assert.True(t, c.PaymentByCategory.Get(payroll.NightSurcharge).Equal(dec("15162")))
}

func TestClassify_EveningCrossesNightWindow(t *testing.T) {
	c := classify(t, shift(tuesday, "14:00", "23:00"), nil)

	// 14-21 ordinary (7h), 21-21:39:36 night, then overtime at night.
	assertHours(t, map[payroll.Category]string{
		payroll.OrdinaryDay:    "7",
		payroll.NightSurcharge: "0.66",
		payroll.OvertimeNight:  "1.34",
	}, c.HoursByCategory)
}

func TestClassify_EarlyMorningBeforeSix(t *testing.T) {
	c := classify(t, shift(tuesday, "04:00", "10:00"), nil)

	assertHours(t, map[payroll.Category]string{
		payroll.NightSurcharge: "2",
		payroll.OrdinaryDay:    "4",
	}, c.HoursByCategory)
}

func TestClassify_SundayUsesHolidayBranch(t *testing.T) {
	c := classify(t, shift(sunday, "08:00", "12:00"), nil)

	assertHours(t, map[payroll.Category]string{payroll.HolidaySundayDaySurcharge: "4"}, c.HoursByCategory)
	assert.True(t, c.PaymentByCategory.Get(payroll.HolidaySundayDaySurcharge).Equal(dec("18568")))
}

func TestClassify_SundayIgnoresHolidayProvider(t *testing.T) {
	c := classify(t, shift(sunday, "08:00", "12:00"), failingCalendar())

	assertHours(t, map[payroll.Category]string{payroll.HolidaySundayDaySurcharge: "4"}, c.HoursByCategory)
	assert.False(t, c.HolidayDataDegraded, "Sunday needs no holiday data")
}

func TestClassify_HolidayFromProvider(t *testing.T) {
	c := classify(t, shift(monday, "08:00", "16:00"), staticCalendar(monday))

	assertHours(t, map[payroll.Category]string{
		payroll.HolidaySundayDaySurcharge: "7.66",
		payroll.OvertimeHolidaySundayDay:  "0.34",
	}, c.HoursByCategory)
}

func TestClassify_SundayNightIntoMonday(t *testing.T) {
	c := classify(t, overnight(sunday, "20:00", "04:00"), nil)

	assertHours(t, map[payroll.Category]string{
		payroll.HolidaySundayDaySurcharge:   "1",
		payroll.HolidaySundayNightSurcharge: "3",
		payroll.NightSurcharge:              "3.66",
		payroll.OvertimeNight:               "0.34",
	}, c.HoursByCategory)
	assert.True(t, c.TotalWorkedHours.Equal(dec("8")))
}

func TestClassify_ChristmasEveIntoChristmas(t *testing.T) {
	holidays := calendar.NewProvider(calendar.Colombia())
	c := classify(t, overnight(calendar.NewDate(2024, time.December, 24), "22:00", "06:00"), holidays)

	assertHours(t, map[payroll.Category]string{
		payroll.NightSurcharge:              "2",
		payroll.HolidaySundayNightSurcharge: "5.66",
		payroll.OvertimeHolidaySundayNight:  "0.34",
	}, c.HoursByCategory)
}

func TestClassify_NewYearsEveCrossesIntoNextYear(t *testing.T) {
	var years []int
	holidays := calendar.NewProvider(calendar.SourceFunc(func(ctx context.Context, year int) ([]calendar.Date, error) {
		years = append(years, year)
		return calendar.Colombia().Holidays(ctx, year)
	}))
	// Dec 31 2024 is a Tuesday; Jan 1 2025 is a holiday.
	c := classify(t, overnight(calendar.NewDate(2024, time.December, 31), "20:00", "02:00"), holidays)

	assertHours(t, map[payroll.Category]string{
		payroll.OrdinaryDay:                 "1",
		payroll.NightSurcharge:              "3",
		payroll.HolidaySundayNightSurcharge: "2",
	}, c.HoursByCategory)
	assert.Equal(t, []int{2024, 2025}, years)
}

func TestClassify_DegradedHolidayData(t *testing.T) {
	c := classify(t, shift(monday, "08:00", "12:00"), failingCalendar())

	assert.True(t, c.HolidayDataDegraded)
	assertHours(t, map[payroll.Category]string{payroll.OrdinaryDay: "4"}, c.HoursByCategory)
}

// =============================================================================
// BREAKS
// =============================================================================

func TestClassify_BreakIsExcluded(t *testing.T) {
	c := classify(t, withBreak(shift(monday, "08:00", "17:00"), "12:00", "13:00"), nil)

	assert.True(t, c.TotalWorkedHours.Equal(dec("8")))
	assertHours(t, map[payroll.Category]string{
		payroll.OrdinaryDay: "7.66",
		payroll.OvertimeDay: "0.34",
	}, c.HoursByCategory)
}

func TestClassify_BreakDelaysOvertime(t *testing.T) {
	// Without the break 10h would be worked; the hour off pushes the
	// threshold later but does not count toward it.
	c := classify(t, withBreak(shift(monday, "08:00", "18:00"), "15:00", "16:00"), nil)

	assert.True(t, c.TotalWorkedHours.Equal(dec("9")))
	assertHours(t, map[payroll.Category]string{
		payroll.OrdinaryDay: "7.66",
		payroll.OvertimeDay: "1.34",
	}, c.HoursByCategory)
}

func TestClassify_BreakAcrossMidnight(t *testing.T) {
	c := classify(t, withBreak(overnight(tuesday, "20:00", "04:00"), "23:30", "00:30"), nil)

	assert.True(t, c.TotalWorkedHours.Equal(dec("7")))
	assertHours(t, map[payroll.Category]string{
		payroll.OrdinaryDay:    "1",
		payroll.NightSurcharge: "6",
	}, c.HoursByCategory)
}

func TestClassify_BreakAfterMidnight(t *testing.T) {
	c := classify(t, withBreak(overnight(tuesday, "22:00", "06:00"), "02:00", "02:30"), nil)

	assert.True(t, c.TotalWorkedHours.Equal(dec("7.5")))
	assertHours(t, map[payroll.Category]string{payroll.NightSurcharge: "7.5"}, c.HoursByCategory)
}

func TestClassify_BreakPartlyOutsideShiftIsClipped(t *testing.T) {
	c := classify(t, withBreak(shift(monday, "08:00", "12:00"), "11:30", "13:00"), nil)

	assert.True(t, c.TotalWorkedHours.Equal(dec("3.5")))
}

// =============================================================================
// INVARIANTS
// =============================================================================

func TestClassify_HoursSumToWorkedTime(t *testing.T) {
	shifts := []payroll.ShiftInput{
		shift(monday, "06:00", "22:00"),
		overnight(sunday, "18:00", "07:00"),
		withBreak(overnight(tuesday, "15:00", "03:00"), "20:00", "21:15"),
		overnight(monday, "09:00", "09:30"), // 24.5h
	}
	expected := []string{"16", "13", "10.75", "24.5"}

	for i, s := range shifts {
		c := classify(t, s, staticCalendar(monday))
		assert.True(t, c.HoursByCategory.Total().Equal(c.TotalWorkedHours), "shift %d", i)
		assertApprox(t, dec(expected[i]), c.TotalWorkedHours, "shift %d", i)

		rates := payroll.DefaultRateTable()
		for _, cat := range payroll.Categories {
			want := c.HoursByCategory.Get(cat).Mul(rates.Rate(cat))
			assert.True(t, c.PaymentByCategory.Get(cat).Equal(want), "shift %d %s", i, cat)
		}
		assert.True(t, c.PaymentByCategory.Get(payroll.OrdinaryDay).IsZero())
	}
}

func TestClassify_Idempotent(t *testing.T) {
	holidays := staticCalendar(monday)
	s := withBreak(overnight(sunday, "17:00", "05:00"), "22:00", "22:45")

	first := classify(t, s, holidays)
	second := classify(t, s, holidays)

	assert.Equal(t, first, second)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestClassify_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		shift payroll.ShiftInput
		field string
		err   error
	}{
		{"missing date", payroll.ShiftInput{Start: "08:00", End: "12:00"}, "date", payroll.ErrMissingDate},
		{"single digit hour", shift(monday, "8:00", "12:00"), "start", payroll.ErrInvalidTime},
		{"hour out of range", shift(monday, "08:00", "24:00"), "end", payroll.ErrInvalidTime},
		{"minute out of range", shift(monday, "08:60", "12:00"), "start", payroll.ErrInvalidTime},
		{"seconds not allowed", shift(monday, "08:00:00", "12:00"), "start", payroll.ErrInvalidTime},
		{"empty end", shift(monday, "08:00", ""), "end", payroll.ErrInvalidTime},
		{"end equals start", shift(monday, "08:00", "08:00"), "end", payroll.ErrNonIncreasingShift},
		{"end before start", shift(monday, "22:00", "06:00"), "end", payroll.ErrNonIncreasingShift},
		{"bad break start", withBreak(shift(monday, "08:00", "17:00"), "noon", "13:00"), "break_start", payroll.ErrInvalidTime},
		{"missing break end", withBreak(shift(monday, "08:00", "17:00"), "12:00", ""), "break_end", payroll.ErrInvalidTime},
		{"inverted break", withBreak(shift(monday, "08:00", "17:00"), "13:00", "12:00"), "break_end", payroll.ErrInvalidBreak},
		{"empty break", withBreak(shift(monday, "08:00", "17:00"), "12:00", "12:00"), "break_end", payroll.ErrInvalidBreak},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := payroll.Classify(context.Background(), tt.shift, payroll.DefaultRateTable(), nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)

			var ve *payroll.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.True(t, payroll.IsValidation(err))
		})
	}
}

func TestClassify_BreakIgnoredWhenFlagOff(t *testing.T) {
	s := shift(monday, "08:00", "12:00")
	s.BreakStart, s.BreakEnd = "garbage", ""

	c := classify(t, s, nil)
	assert.True(t, c.TotalWorkedHours.Equal(dec("4")))
}
