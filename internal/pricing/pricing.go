// Package pricing computes invoice amounts and numbers. Everything monetary
// is shopspring decimal; float64 never enters this pipeline.
package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Amounts is the priced breakdown of one invoice.
type Amounts struct {
	LaborSubtotal decimal.Decimal
	Subtotal      decimal.Decimal
	TaxAmount     decimal.Decimal
	Total         decimal.Decimal
}

// Price computes the invoice amounts from hours, hourly rate, flat extra fees
// and a fractional tax rate (0.13 for 13%). The tax amount is rounded to two
// places half-up before entering the total; the total itself is exact given
// already-rounded inputs.
func Price(hours, rate, extraFees, taxRate decimal.Decimal) Amounts {
	labor := hours.Mul(rate)
	subtotal := labor.Add(extraFees)
	tax := subtotal.Mul(taxRate).Round(2)
	return Amounts{
		LaborSubtotal: labor,
		Subtotal:      subtotal,
		TaxAmount:     tax,
		Total:         subtotal.Add(tax),
	}
}

// InvoiceNumber builds the globally unique number for an invoice:
// PREFIX-YYYYMMDD-NNN, where sequence restarts per customer per date.
func InvoiceNumber(prefix string, date time.Time, sequence int) string {
	return fmt.Sprintf("%s-%s-%03d", prefix, date.Format("20060102"), sequence)
}
