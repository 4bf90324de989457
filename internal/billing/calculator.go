// Package billing turns collected waste weight into money.
package billing

import (
	"github.com/shopspring/decimal"
)

type WasteType string

const (
	WasteGeneral    WasteType = "general"
	WasteHazardous  WasteType = "hazardous"
	WasteRecyclable WasteType = "recyclable"
	WasteOrganic    WasteType = "organic"
)

// WasteTypes lists every category in the order bills and reports print them.
var WasteTypes = []WasteType{WasteGeneral, WasteHazardous, WasteRecyclable, WasteOrganic}

func (t WasteType) Valid() bool {
	switch t {
	case WasteGeneral, WasteHazardous, WasteRecyclable, WasteOrganic:
		return true
	}
	return false
}

// Weights is kilograms per waste type.
type Weights map[WasteType]decimal.Decimal

// Prices is price per kilogram per waste type. Recyclable may be negative (buy-back).
type Prices map[WasteType]decimal.Decimal

// Line is one waste type's contribution to a bill.
type Line struct {
	WasteType  WasteType       `json:"waste_type"`
	WeightKg   decimal.Decimal `json:"weight_kg"`
	PricePerKg decimal.Decimal `json:"price_per_kg"`
	Amount     decimal.Decimal `json:"amount"`
}

// Add returns the sum of w and other per type.
func (w Weights) Add(other Weights) Weights {
	out := make(Weights, len(WasteTypes))
	for _, t := range WasteTypes {
		sum := w[t].Add(other[t])
		if !sum.IsZero() {
			out[t] = sum
		}
	}
	return out
}

// TotalKg is the combined weight across all types.
func (w Weights) TotalKg() decimal.Decimal {
	total := decimal.Zero
	for _, t := range WasteTypes {
		total = total.Add(w[t])
	}
	return total
}

// IsZero reports whether no weight is recorded for any type.
func (w Weights) IsZero() bool {
	return w.TotalKg().IsZero()
}

// Lines prices each waste type. A type without a price is charged at 0.
func Lines(w Weights, p Prices) []Line {
	lines := make([]Line, 0, len(WasteTypes))
	for _, t := range WasteTypes {
		weight := w[t]
		price := p[t]
		lines = append(lines, Line{
			WasteType:  t,
			WeightKg:   weight,
			PricePerKg: price,
			Amount:     RoundMoney(weight.Mul(price)),
		})
	}
	return lines
}

// Total is the sum over types of weight times price, each line rounded to
// satang first so a bill's items always add up to its amount due.
// Negative totals are credits.
func Total(w Weights, p Prices) decimal.Decimal {
	return SumLines(Lines(w, p))
}

// SumLines adds already rounded line amounts.
func SumLines(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Amount)
	}
	return sum
}

// RoundMoney rounds half away from zero to 2 decimal places.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
