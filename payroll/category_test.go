package payroll_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/payroll"
)

func TestParseCategory(t *testing.T) {
	for _, c := range payroll.Categories {
		byKey, err := payroll.ParseCategory(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, byKey)

		byCode, err := payroll.ParseCategory(c.Code())
		require.NoError(t, err)
		assert.Equal(t, c, byCode)

		assert.NotEmpty(t, c.Label())
	}

	_, err := payroll.ParseCategory("weekend_bonus")
	assert.Error(t, err)
}

func TestCategory_Codes(t *testing.T) {
	assert.Equal(t, "RN", payroll.NightSurcharge.Code())
	assert.Equal(t, "HEDN", payroll.OvertimeHolidaySundayNight.Code())
	assert.Equal(t, "overtime_night", payroll.OvertimeNight.String())
	assert.Equal(t, "category(42)", payroll.Category(42).String())
	assert.False(t, payroll.Category(-1).Valid())
}

func TestCategory_Flags(t *testing.T) {
	assert.False(t, payroll.OrdinaryDay.IsSurcharge())
	assert.True(t, payroll.NightSurcharge.IsSurcharge())
	assert.False(t, payroll.HolidaySundayNightSurcharge.IsOvertime())
	assert.True(t, payroll.OvertimeDay.IsOvertime())
	assert.True(t, payroll.OvertimeHolidaySundayNight.IsOvertime())
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, payroll.OrdinaryDay, payroll.CategoryFor(false, false, false))
	assert.Equal(t, payroll.NightSurcharge, payroll.CategoryFor(false, false, true))
	assert.Equal(t, payroll.HolidaySundayDaySurcharge, payroll.CategoryFor(false, true, false))
	assert.Equal(t, payroll.HolidaySundayNightSurcharge, payroll.CategoryFor(false, true, true))
	assert.Equal(t, payroll.OvertimeDay, payroll.CategoryFor(true, false, false))
	assert.Equal(t, payroll.OvertimeNight, payroll.CategoryFor(true, false, true))
	assert.Equal(t, payroll.OvertimeHolidaySundayDay, payroll.CategoryFor(true, true, false))
	assert.Equal(t, payroll.OvertimeHolidaySundayNight, payroll.CategoryFor(true, true, true))
}

// =============================================================================
// RATE TABLE
// =============================================================================

func TestDefaultRateTable(t *testing.T) {
	rates := payroll.DefaultRateTable()

	assert.True(t, rates.Rate(payroll.OrdinaryDay).IsZero())
	assert.True(t, dec("2166").Equal(rates.Rate(payroll.NightSurcharge)))
	assert.True(t, dec("15472.83").Equal(rates.Rate(payroll.OvertimeHolidaySundayNight)))
	assert.True(t, rates.Rate(payroll.Category(99)).IsZero())
}

func TestNewRateTable(t *testing.T) {
	full := map[payroll.Category]decimal.Decimal{}
	for c, s := range payroll.DefaultRates {
		full[c] = dec(s)
	}
	full[payroll.OrdinaryDay] = dec("9999")

	rates, err := payroll.NewRateTable(full)
	require.NoError(t, err)
	assert.True(t, rates.Rate(payroll.OrdinaryDay).IsZero(), "ordinary hours are never priced")

	missing := map[payroll.Category]decimal.Decimal{payroll.NightSurcharge: dec("1")}
	_, err = payroll.NewRateTable(missing)
	assert.ErrorContains(t, err, "missing rate")

	full[payroll.OvertimeDay] = dec("-1")
	_, err = payroll.NewRateTable(full)
	assert.ErrorContains(t, err, "negative rate")
}

func TestRateTable_With(t *testing.T) {
	base := payroll.DefaultRateTable()
	changed := base.With(payroll.NightSurcharge, dec("3000")).With(payroll.OrdinaryDay, dec("1"))

	assert.True(t, dec("3000").Equal(changed.Rate(payroll.NightSurcharge)))
	assert.True(t, dec("2166").Equal(base.Rate(payroll.NightSurcharge)), "original untouched")
	assert.True(t, changed.Rate(payroll.OrdinaryDay).IsZero())
}

func TestRateTable_Price(t *testing.T) {
	var hours payroll.Breakdown
	hours[payroll.OrdinaryDay] = dec("7.66")
	hours[payroll.OvertimeDay] = dec("0.34")

	payments := payroll.DefaultRateTable().Price(hours)
	assert.True(t, payments.Get(payroll.OrdinaryDay).IsZero())
	assertApprox(t, dec("2630.3794"), payments.Get(payroll.OvertimeDay))
	assertApprox(t, dec("2630.3794"), payments.SurchargeTotal())
}

// =============================================================================
// BREAKDOWN
// =============================================================================

func TestBreakdown_JSON(t *testing.T) {
	var b payroll.Breakdown
	b[payroll.NightSurcharge] = dec("2.5")
	b[payroll.OvertimeNight] = dec("0.25")

	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"night_surcharge":"2.5"`)
	assert.Contains(t, string(data), `"ordinary_day":"0"`)

	var back payroll.Breakdown
	require.NoError(t, json.Unmarshal(data, &back))
	assertHours(t, map[payroll.Category]string{
		payroll.NightSurcharge: "2.5",
		payroll.OvertimeNight:  "0.25",
	}, back)

	var byCode payroll.Breakdown
	require.NoError(t, json.Unmarshal([]byte(`{"HED":"1.5"}`), &byCode))
	assertApprox(t, dec("1.5"), byCode.Get(payroll.OvertimeDay))

	assert.Error(t, json.Unmarshal([]byte(`{"bogus":"1"}`), &byCode))
}

func TestBreakdown_Totals(t *testing.T) {
	var b payroll.Breakdown
	b[payroll.OrdinaryDay] = dec("5")
	b[payroll.NightSurcharge] = dec("1.25")
	b[payroll.OvertimeDay] = dec("0.75")

	assertApprox(t, dec("7"), b.Total())
	assertApprox(t, dec("2"), b.SurchargeTotal())
	assertApprox(t, dec("14"), b.Add(b).Total())
	assertApprox(t, dec("1.3"), b.Round(1).Get(payroll.NightSurcharge))
}

// =============================================================================
// CLOCK & LEGAL CONSTANTS
// =============================================================================

func TestParseClock(t *testing.T) {
	c, err := payroll.ParseClock("07:05")
	require.NoError(t, err)
	assert.Equal(t, 7, c.Hour())
	assert.Equal(t, 5, c.Minute())
	assert.Equal(t, "07:05", c.String())

	for _, bad := range []string{"", "7:05", "24:00", "12:60", "12-30", "ab:cd", "12:301"} {
		_, err := payroll.ParseClock(bad)
		assert.ErrorIs(t, err, payroll.ErrInvalidTime, bad)
	}
}

func TestLegalConstants_Validate(t *testing.T) {
	require.NoError(t, payroll.DefaultLegalConstants().Validate())

	zeroWage := payroll.DefaultLegalConstants()
	zeroWage.MinimumWage = decimal.Zero
	assert.Error(t, zeroWage.Validate())

	badRate := payroll.DefaultLegalConstants()
	badRate.HealthRate = dec("1.5")
	assert.ErrorContains(t, badRate.Validate(), "health")

	negTransport := payroll.DefaultLegalConstants()
	negTransport.TransportAllowance = dec("-1")
	assert.Error(t, negTransport.Validate())
}
