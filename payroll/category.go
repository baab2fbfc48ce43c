/*
Package payroll implements the Colombian shift payroll engine.

PURPOSE:
  Turns clocked shifts into hours per legal pay category and aggregates a
  pay period into a full statement: surcharges, overtime, transport
  allowance, contribution base (IBC), health and pension deductions, and
  manual adjustments.

KEY CONCEPTS:
  - Category:        One of eight legally distinct pay categories
  - Breakdown:       Hours or pesos per Category
  - RateTable:       Hourly rate per Category (ordinary hours are free)
  - ClassifiedShift: One shift's hours and payments per Category
  - PayPeriod:       Shifts plus period-level inputs
  - Result:          The aggregated payroll statement

FLOW:
  Aggregate -> Classify (per shift) -> HolidayCalendar (per year, cached)

PRECISION:
  Hours and money are decimal.Decimal. Nothing is rounded while
  accumulating; rounding belongs to presentation.

SEE ALSO:
  - classifier.go: Shift classification
  - aggregator.go: Period aggregation
  - calendar/provider.go: Holiday lookups
*/
package payroll

import "fmt"

// =============================================================================
// CATEGORY - Closed set of pay categories
// =============================================================================

// Category is a pay category. The zero value is OrdinaryDay.
type Category int

const (
	OrdinaryDay Category = iota
	NightSurcharge
	HolidaySundayDaySurcharge
	HolidaySundayNightSurcharge
	OvertimeDay
	OvertimeNight
	OvertimeHolidaySundayDay
	OvertimeHolidaySundayNight

	categoryCount
)

// Categories lists every category in statement order.
var Categories = [categoryCount]Category{
	OrdinaryDay,
	NightSurcharge,
	HolidaySundayDaySurcharge,
	HolidaySundayNightSurcharge,
	OvertimeDay,
	OvertimeNight,
	OvertimeHolidaySundayDay,
	OvertimeHolidaySundayNight,
}

type categoryInfo struct {
	key   string
	code  string
	label string
}

var categoryInfos = [categoryCount]categoryInfo{
	OrdinaryDay:                 {"ordinary_day", "HOD", "Hora ordinaria diurna"},
	NightSurcharge:              {"night_surcharge", "RN", "Recargo nocturno"},
	HolidaySundayDaySurcharge:   {"holiday_sunday_day_surcharge", "RDD", "Recargo dominical/festivo diurno"},
	HolidaySundayNightSurcharge: {"holiday_sunday_night_surcharge", "RDN", "Recargo dominical/festivo nocturno"},
	OvertimeDay:                 {"overtime_day", "HED", "Hora extra diurna"},
	OvertimeNight:               {"overtime_night", "HEN", "Hora extra nocturna"},
	OvertimeHolidaySundayDay:    {"overtime_holiday_sunday_day", "HEDD", "Hora extra dominical/festiva diurna"},
	OvertimeHolidaySundayNight:  {"overtime_holiday_sunday_night", "HEDN", "Hora extra dominical/festiva nocturna"},
}

// decisionTable maps [overtime][holidayOrSunday][night] to a category.
var decisionTable = [2][2][2]Category{
	{ // regular time
		{OrdinaryDay, NightSurcharge},
		{HolidaySundayDaySurcharge, HolidaySundayNightSurcharge},
	},
	{ // overtime
		{OvertimeDay, OvertimeNight},
		{OvertimeHolidaySundayDay, OvertimeHolidaySundayNight},
	},
}

// CategoryFor classifies a stretch of worked time by its three conditions.
func CategoryFor(overtime, holidayOrSunday, night bool) Category {
	return decisionTable[b2i(overtime)][b2i(holidayOrSunday)][b2i(night)]
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (c Category) Valid() bool { return c >= 0 && c < categoryCount }

// String returns the stable key used in JSON and storage.
func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryInfos[c].key
}

// Code returns the short payroll code (RN, HED, ...).
func (c Category) Code() string {
	if !c.Valid() {
		return ""
	}
	return categoryInfos[c].code
}

// Label returns the statement label.
func (c Category) Label() string {
	if !c.Valid() {
		return ""
	}
	return categoryInfos[c].label
}

// IsSurcharge reports whether hours of this category are paid on top of
// the base salary. Only OrdinaryDay is not.
func (c Category) IsSurcharge() bool { return c != OrdinaryDay }

// IsOvertime reports whether the category counts hours beyond the daily
// threshold.
func (c Category) IsOvertime() bool { return c >= OvertimeDay && c < categoryCount }

// ParseCategory resolves a category key or code.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if categoryInfos[c].key == s || categoryInfos[c].code == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown pay category %q", s)
}
