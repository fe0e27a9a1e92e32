package excel

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/aikyn/invoice-engine/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate builds the invoice register workbook for a date range: a summary
// sheet plus one row per invoice.
func (g *Generator) Generate(periodStart, periodEnd time.Time, invoices []model.Invoice) ([]byte, error) {
	file := excelize.NewFile()

	sheet := "Invoice Register"
	file.SetSheetName("Sheet1", sheet)

	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	totalBilled := decimal.Zero
	totalTax := decimal.Zero
	for _, inv := range invoices {
		totalBilled = totalBilled.Add(inv.Total)
		totalTax = totalTax.Add(inv.TaxAmount)
	}

	set("A1", "Period start")
	set("B1", periodStart.Format("2006-01-02"))
	set("A2", "Period end")
	set("B2", periodEnd.Format("2006-01-02"))
	set("A3", "Invoices")
	set("B3", len(invoices))
	set("A4", "Total billed")
	set("B4", totalBilled.StringFixed(2))
	set("A5", "Total tax")
	set("B5", totalTax.StringFixed(2))

	headers := []string{
		"Invoice #", "Date", "Period Start", "Period End", "Status",
		"Hours", "Rate", "Labor", "Extra Fees", "Subtotal", "Tax", "Total", "Mode",
	}
	headerRow := 7
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, headerRow)
		if err != nil {
			return nil, err
		}
		set(cell, header)
	}

	for rowIdx, inv := range invoices {
		values := []interface{}{
			inv.InvoiceNumber,
			inv.InvoiceDate.Format("2006-01-02"),
			inv.PeriodStart.Format("2006-01-02"),
			inv.PeriodEnd.Format("2006-01-02"),
			string(inv.Status),
			inv.TotalHours.StringFixed(2),
			inv.RatePerHour.StringFixed(2),
			inv.LaborSubtotal.StringFixed(2),
			inv.ExtraFees.StringFixed(2),
			inv.Subtotal.StringFixed(2),
			inv.TaxAmount.StringFixed(2),
			inv.Total.StringFixed(2),
			string(inv.GenerationMode),
		}
		for colIdx, value := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, headerRow+1+rowIdx)
			if err != nil {
				return nil, err
			}
			set(cell, value)
		}
	}

	if err := file.SetColWidth(sheet, "A", "D", 14); err != nil {
		return nil, err
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileName names the register download for a period.
func FileName(periodStart, periodEnd time.Time) string {
	return fmt.Sprintf("invoice-register-%s-%s.xlsx",
		periodStart.Format("20060102"), periodEnd.Format("20060102"))
}
