package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestTotal(t *testing.T) {
	tests := []struct {
		name    string
		weights Weights
		prices  Prices
		want    string
	}{
		{
			name:    "Mixed weights with recyclable buy-back",
			weights: Weights{WasteGeneral: d("10"), WasteHazardous: d("0"), WasteRecyclable: d("5"), WasteOrganic: d("2")},
			prices:  Prices{WasteGeneral: d("3.5"), WasteHazardous: d("8"), WasteRecyclable: d("-2"), WasteOrganic: d("1.5")},
			want:    "28.00",
		},
		{
			name:    "Zero weights",
			weights: Weights{},
			prices:  Prices{WasteGeneral: d("3.5"), WasteHazardous: d("8")},
			want:    "0.00",
		},
		{
			name:    "Missing price charged as zero",
			weights: Weights{WasteGeneral: d("4"), WasteHazardous: d("3")},
			prices:  Prices{WasteGeneral: d("2.25")},
			want:    "9.00",
		},
		{
			name:    "Negative total is a credit",
			weights: Weights{WasteGeneral: d("1"), WasteRecyclable: d("20")},
			prices:  Prices{WasteGeneral: d("3"), WasteRecyclable: d("-1.5")},
			want:    "-27.00",
		},
		{
			name:    "Fractional kilograms round to satang",
			weights: Weights{WasteOrganic: d("1.333")},
			prices:  Prices{WasteOrganic: d("1.5")},
			want:    "2.00",
		},
		{
			name:    "Each line rounds before summing",
			weights: Weights{WasteGeneral: d("0.15"), WasteOrganic: d("0.15")},
			prices:  Prices{WasteGeneral: d("0.15"), WasteOrganic: d("0.15")},
			want:    "0.04",
		},
		{
			name:    "No float drift",
			weights: Weights{WasteGeneral: d("0.1"), WasteOrganic: d("0.2")},
			prices:  Prices{WasteGeneral: d("1"), WasteOrganic: d("1")},
			want:    "0.30",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Total(tt.weights, tt.prices)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestTotalIsSumOfRoundedProducts(t *testing.T) {
	weights := []Weights{
		{WasteGeneral: d("12.5"), WasteHazardous: d("0.75"), WasteRecyclable: d("3"), WasteOrganic: d("8.2")},
		{WasteGeneral: d("0"), WasteRecyclable: d("40")},
		{WasteHazardous: d("2.5")},
	}
	prices := []Prices{
		{WasteGeneral: d("3.5"), WasteHazardous: d("8"), WasteRecyclable: d("-2"), WasteOrganic: d("1.5")},
		{WasteGeneral: d("5"), WasteHazardous: d("12.25"), WasteRecyclable: d("-0.5"), WasteOrganic: d("0")},
	}

	for _, w := range weights {
		for _, p := range prices {
			want := decimal.Zero
			for _, wt := range WasteTypes {
				want = want.Add(w[wt].Mul(p[wt]).Round(2))
			}
			assert.True(t, want.Equal(Total(w, p)), "weights=%v prices=%v", w, p)
			assert.True(t, SumLines(Lines(w, p)).Equal(Total(w, p)), "weights=%v prices=%v", w, p)
		}
	}
}

func TestLines(t *testing.T) {
	w := Weights{WasteGeneral: d("10"), WasteRecyclable: d("5"), WasteOrganic: d("2")}
	p := Prices{WasteGeneral: d("3.5"), WasteHazardous: d("8"), WasteRecyclable: d("-2"), WasteOrganic: d("1.5")}

	lines := Lines(w, p)
	require.Len(t, lines, 4)

	for i, wt := range WasteTypes {
		assert.Equal(t, wt, lines[i].WasteType)
	}
	assert.Equal(t, "35.00", lines[0].Amount.StringFixed(2))
	assert.True(t, lines[1].WeightKg.IsZero())
	assert.Equal(t, "8", lines[1].PricePerKg.String())
	assert.Equal(t, "-10.00", lines[2].Amount.StringFixed(2))
	assert.Equal(t, "3.00", lines[3].Amount.StringFixed(2))
	assert.Equal(t, "28.00", SumLines(lines).StringFixed(2))
}

func TestWeights(t *testing.T) {
	a := Weights{WasteGeneral: d("1.5"), WasteOrganic: d("2")}
	b := Weights{WasteGeneral: d("0.5"), WasteHazardous: d("1")}

	sum := a.Add(b)
	assert.Equal(t, "2", sum[WasteGeneral].String())
	assert.Equal(t, "1", sum[WasteHazardous].String())
	assert.Equal(t, "2", sum[WasteOrganic].String())
	assert.Equal(t, "5", sum.TotalKg().String())
	assert.False(t, sum.IsZero())
	assert.True(t, Weights{}.IsZero())
}

func TestWasteTypeValid(t *testing.T) {
	for _, wt := range WasteTypes {
		assert.True(t, wt.Valid())
	}
	assert.False(t, WasteType("plastic").Valid())
	assert.False(t, WasteType("").Valid())
}
