package pdf

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aikyn/invoice-engine/internal/pricing"
)

func testData() InvoiceData {
	return InvoiceData{
		InvoiceNumber:        "ACME-20260116-001",
		InvoiceDate:          "16/01/2026",
		VendorName:           "Northline Services Inc.",
		VendorEmail:          "billing@northline.test",
		VendorAddressLines:   []string{"100 Industrial Ave", "Calgary, AB T2A 1B1"},
		VendorTaxNumber:      "123456789 RT0001",
		ContractorName:       "J. Moreau",
		CustomerName:         "Acme Property Group",
		CustomerAddressLines: []string{"55 Main St", "Calgary, AB T2B 2C2"},
		ServiceLocation:      "55 Main St, Calgary",
		PeriodStart:          "Jan 09, 2026",
		PeriodEnd:            "Jan 15, 2026",
		TotalHours:           decimal.RequireFromString("38.5"),
		RatePerHour:          decimal.RequireFromString("85.50"),
		TaxRate:              decimal.RequireFromString("0.05"),
		PaymentTerms:         "Net 30",
		ExtraFees:            decimal.RequireFromString("25.00"),
		ExtraFeesLabel:       "Equipment fee",
	}
}

func TestGenerateProducesPDF(t *testing.T) {
	data := testData()

	content, amounts, err := NewGenerator().Generate(data)
	require.NoError(t, err)

	require.NotEmpty(t, content)
	assert.Equal(t, "%PDF", string(content[:4]), "output must be a PDF document")

	// The returned amounts match an independent pricing of the same inputs.
	want := pricing.Price(data.TotalHours, data.RatePerHour, data.ExtraFees, data.TaxRate)
	assert.True(t, amounts.LaborSubtotal.Equal(want.LaborSubtotal))
	assert.True(t, amounts.Subtotal.Equal(want.Subtotal))
	assert.True(t, amounts.TaxAmount.Equal(want.TaxAmount))
	assert.True(t, amounts.Total.Equal(want.Total))
}

func TestGenerateIsDeterministicPerInput(t *testing.T) {
	data := testData()

	_, first, err := NewGenerator().Generate(data)
	require.NoError(t, err)
	_, second, err := NewGenerator().Generate(data)
	require.NoError(t, err)

	assert.True(t, first.Total.Equal(second.Total))
}

func TestGenerateZeroTaxRate(t *testing.T) {
	data := testData()
	data.TaxRate = decimal.Zero

	content, amounts, err := NewGenerator().Generate(data)
	require.NoError(t, err)
	assert.NotEmpty(t, content)
	assert.True(t, amounts.TaxAmount.IsZero())
	assert.True(t, amounts.Total.Equal(amounts.Subtotal))
}
