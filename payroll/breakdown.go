package payroll

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Breakdown holds one quantity (hours or pesos) per Category. The zero
// value is all zeros.
type Breakdown [categoryCount]decimal.Decimal

func (b Breakdown) Get(c Category) decimal.Decimal { return b[c] }

// Add returns the element-wise sum of b and other.
func (b Breakdown) Add(other Breakdown) Breakdown {
	var out Breakdown
	for _, c := range Categories {
		out[c] = b[c].Add(other[c])
	}
	return out
}

// Total sums every category.
func (b Breakdown) Total() decimal.Decimal {
	total := decimal.Zero
	for _, c := range Categories {
		total = total.Add(b[c])
	}
	return total
}

// SurchargeTotal sums every category except OrdinaryDay.
func (b Breakdown) SurchargeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, c := range Categories {
		if c.IsSurcharge() {
			total = total.Add(b[c])
		}
	}
	return total
}

// Round returns a copy with every value rounded to places decimals.
func (b Breakdown) Round(places int32) Breakdown {
	var out Breakdown
	for _, c := range Categories {
		out[c] = b[c].Round(places)
	}
	return out
}

// Map returns the breakdown keyed by category key.
func (b Breakdown) Map() map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, categoryCount)
	for _, c := range Categories {
		m[c.String()] = b[c]
	}
	return m
}

// MarshalJSON renders an object keyed by category key.
func (b Breakdown) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Map())
}

// UnmarshalJSON accepts an object keyed by category key or code. Missing
// categories are zero.
func (b *Breakdown) UnmarshalJSON(data []byte) error {
	var m map[string]decimal.Decimal
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	var out Breakdown
	for k, v := range m {
		c, err := ParseCategory(k)
		if err != nil {
			return fmt.Errorf("breakdown: %w", err)
		}
		out[c] = v
	}
	*b = out
	return nil
}
