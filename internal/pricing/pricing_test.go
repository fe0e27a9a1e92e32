package pricing

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPrice(t *testing.T) {
	tests := []struct {
		name      string
		hours     string
		rate      string
		extraFees string
		taxRate   string
		wantLabor string
		wantSub   string
		wantTax   string
		wantTotal string
	}{
		{
			name:  "typical weekly invoice",
			hours: "40", rate: "85.50", extraFees: "25.00", taxRate: "0.13",
			wantLabor: "3420.00", wantSub: "3445.00", wantTax: "447.85", wantTotal: "3892.85",
		},
		{
			name:  "no fees no tax",
			hours: "12.5", rate: "60", extraFees: "0", taxRate: "0",
			wantLabor: "750.00", wantSub: "750.00", wantTax: "0.00", wantTotal: "750.00",
		},
		{
			name:  "tax rounds half up",
			hours: "1", rate: "100.50", extraFees: "0", taxRate: "0.05",
			// 100.50 * 0.05 = 5.025 -> 5.03
			wantLabor: "100.50", wantSub: "100.50", wantTax: "5.03", wantTotal: "105.53",
		},
		{
			name:  "fractional hours keep exact cents",
			hours: "37.75", rate: "82.40", extraFees: "15.99", taxRate: "0.13",
			// labor 3110.60, subtotal 3126.59, tax 406.4567 -> 406.46
			wantLabor: "3110.60", wantSub: "3126.59", wantTax: "406.46", wantTotal: "3533.05",
		},
		{
			name:  "zero hours bills fees only",
			hours: "0", rate: "95", extraFees: "150.00", taxRate: "0.13",
			wantLabor: "0.00", wantSub: "150.00", wantTax: "19.50", wantTotal: "169.50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Price(dec(tt.hours), dec(tt.rate), dec(tt.extraFees), dec(tt.taxRate))
			assert.Equal(t, tt.wantLabor, got.LaborSubtotal.StringFixed(2))
			assert.Equal(t, tt.wantSub, got.Subtotal.StringFixed(2))
			assert.Equal(t, tt.wantTax, got.TaxAmount.StringFixed(2))
			assert.Equal(t, tt.wantTotal, got.Total.StringFixed(2))

			assert.True(t, got.Total.Equal(got.Subtotal.Add(got.TaxAmount)),
				"total must be subtotal plus rounded tax, exactly")
		})
	}
}

func TestPriceAlwaysExactCents(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	taxRates := []decimal.Decimal{dec("0"), dec("0.05"), dec("0.13"), dec("0.0975")}

	for i := 0; i < 500; i++ {
		hours := decimal.New(int64(rng.Intn(16000)), -2)   // 0.00 .. 159.99
		rate := decimal.New(int64(rng.Intn(30000)+1), -2)  // 0.01 .. 300.00
		fees := decimal.New(int64(rng.Intn(50000)), -2)    // 0.00 .. 499.99
		taxRate := taxRates[rng.Intn(len(taxRates))]

		got := Price(hours, rate, fees, taxRate)

		assert.True(t, got.TaxAmount.Equal(got.TaxAmount.Round(2)),
			"tax must be whole cents: %s", got.TaxAmount)
		assert.True(t, got.Total.Equal(got.Subtotal.Add(got.TaxAmount)),
			"total must be subtotal plus tax with no further rounding")
		assert.False(t, got.Total.IsNegative())
	}
}

func TestInvoiceNumber(t *testing.T) {
	d := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "ACME-20260307-001", InvoiceNumber("ACME", d, 1))
	assert.Equal(t, "ACME-20260307-042", InvoiceNumber("ACME", d, 42))
	assert.Equal(t, "NS-20260307-123", InvoiceNumber("NS", d, 123))
	// Sequences past 999 widen rather than truncate.
	assert.Equal(t, "NS-20260307-1000", InvoiceNumber("NS", d, 1000))
}
