package payroll

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Fixed legal constants of the classifier.
const (
	// OvertimeThresholdSeconds is 7.66 worked hours; time past it is overtime.
	OvertimeThresholdSeconds = 27576
	NightStartHour           = 21
	NightEndHour             = 6
)

// OvertimeThreshold is OvertimeThresholdSeconds in hours.
var OvertimeThreshold = decimal.RequireFromString("7.66")

// =============================================================================
// RATE TABLE
// =============================================================================

// RateTable is the hourly rate of every category, in pesos. OrdinaryDay is
// always zero: the base salary already pays ordinary hours.
type RateTable struct {
	rates Breakdown
}

// DefaultRates are the hourly figures the engine ships with (COP).
var DefaultRates = map[Category]string{
	NightSurcharge:              "2166",
	HolidaySundayDaySurcharge:   "4642",
	HolidaySundayNightSurcharge: "6808",
	OvertimeDay:                 "7736.41",
	OvertimeNight:               "10830.98",
	OvertimeHolidaySundayDay:    "12378.26",
	OvertimeHolidaySundayNight:  "15472.83",
}

// NewRateTable builds a table from per-category rates. Every surcharge
// category must be present and non-negative; an OrdinaryDay entry is
// ignored.
func NewRateTable(rates map[Category]decimal.Decimal) (RateTable, error) {
	var t RateTable
	for _, c := range Categories {
		if !c.IsSurcharge() {
			continue
		}
		r, ok := rates[c]
		if !ok {
			return RateTable{}, fmt.Errorf("rate table: missing rate for %s", c)
		}
		if r.IsNegative() {
			return RateTable{}, fmt.Errorf("rate table: negative rate %s for %s", r, c)
		}
		t.rates[c] = r
	}
	return t, nil
}

// DefaultRateTable returns the table built from DefaultRates.
func DefaultRateTable() RateTable {
	var t RateTable
	for c, s := range DefaultRates {
		t.rates[c] = decimal.RequireFromString(s)
	}
	return t
}

// Rate returns the hourly rate of c.
func (t RateTable) Rate(c Category) decimal.Decimal {
	if !c.IsSurcharge() || !c.Valid() {
		return decimal.Zero
	}
	return t.rates[c]
}

// With returns a copy with the rate of c replaced. Setting OrdinaryDay is a
// no-op.
func (t RateTable) With(c Category, rate decimal.Decimal) RateTable {
	if c.IsSurcharge() && c.Valid() {
		t.rates[c] = rate
	}
	return t
}

// Price multiplies hours by the rate of each category.
func (t RateTable) Price(hours Breakdown) Breakdown {
	var out Breakdown
	for _, c := range Categories {
		out[c] = hours[c].Mul(t.Rate(c))
	}
	return out
}

// Breakdown returns the rates as a Breakdown, for listing.
func (t RateTable) Breakdown() Breakdown { return t.rates }

func (t RateTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.rates)
}

// =============================================================================
// LEGAL CONSTANTS - Externally configured figures
// =============================================================================

// LegalConstants are the period-level figures set by law each year.
type LegalConstants struct {
	MinimumWage        decimal.Decimal `json:"minimum_wage"`        // SMLMV, monthly
	TransportAllowance decimal.Decimal `json:"transport_allowance"` // monthly
	HealthRate         decimal.Decimal `json:"health_rate"`
	PensionRate        decimal.Decimal `json:"pension_rate"`
}

// DefaultLegalConstants returns the 2024 figures.
func DefaultLegalConstants() LegalConstants {
	return LegalConstants{
		MinimumWage:        decimal.NewFromInt(1_300_000),
		TransportAllowance: decimal.NewFromInt(162_000),
		HealthRate:         decimal.RequireFromString("0.04"),
		PensionRate:        decimal.RequireFromString("0.04"),
	}
}

// Validate rejects negative figures and rates above 100%.
func (l LegalConstants) Validate() error {
	if !l.MinimumWage.IsPositive() {
		return fmt.Errorf("legal constants: minimum wage must be positive")
	}
	if l.TransportAllowance.IsNegative() {
		return fmt.Errorf("legal constants: transport allowance must not be negative")
	}
	one := decimal.NewFromInt(1)
	for name, r := range map[string]decimal.Decimal{"health": l.HealthRate, "pension": l.PensionRate} {
		if r.IsNegative() || r.GreaterThan(one) {
			return fmt.Errorf("legal constants: %s rate %s out of range [0, 1]", name, r)
		}
	}
	return nil
}
