package pdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/aikyn/invoice-engine/internal/pricing"
)

// InvoiceData carries everything the renderer needs; all display strings are
// preformatted by the caller.
type InvoiceData struct {
	InvoiceNumber        string
	InvoiceDate          string
	VendorName           string
	VendorEmail          string
	VendorAddressLines   []string
	VendorTaxNumber      string
	ContractorName       string
	CustomerName         string
	CustomerAddressLines []string
	ServiceLocation      string
	PeriodStart          string
	PeriodEnd            string
	TotalHours           decimal.Decimal
	RatePerHour          decimal.Decimal
	TaxRate              decimal.Decimal
	PaymentTerms         string
	ExtraFees            decimal.Decimal
	ExtraFeesLabel       string
}

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate lays out the invoice and returns the PDF bytes together with the
// amounts it printed. Amounts come from the same pricing routine the engine
// uses, so callers can cross-check totals before persisting.
func (g *Generator) Generate(data InvoiceData) ([]byte, pricing.Amounts, error) {
	amounts := pricing.Price(data.TotalHours, data.RatePerHour, data.ExtraFees, data.TaxRate)

	doc := gofpdf.New("P", "mm", "Letter", "")
	doc.SetMargins(20, 20, 20)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 20)
	doc.CellFormat(0, 12, "INVOICE", "", 1, "C", false, 0, "")
	doc.Ln(4)

	// Client block left, company block right.
	topY := doc.GetY()
	doc.SetFont("Helvetica", "B", 10)
	doc.CellFormat(85, 5, "Client:", "", 2, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(85, 5, data.CustomerName, "", 2, "L", false, 0, "")
	for _, line := range data.CustomerAddressLines {
		doc.CellFormat(85, 5, line, "", 2, "L", false, 0, "")
	}
	leftBottom := doc.GetY()

	doc.SetY(topY)
	doc.SetX(110)
	doc.SetFont("Helvetica", "B", 10)
	doc.CellFormat(85, 5, "COMPANY INFORMATION:", "", 2, "R", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	doc.SetX(110)
	doc.CellFormat(85, 5, data.VendorName, "", 2, "R", false, 0, "")
	for _, line := range data.VendorAddressLines {
		doc.SetX(110)
		doc.CellFormat(85, 5, line, "", 2, "R", false, 0, "")
	}
	doc.SetX(110)
	doc.CellFormat(85, 5, fmt.Sprintf("Tax #: %s", data.VendorTaxNumber), "", 2, "R", false, 0, "")
	rightBottom := doc.GetY()

	if leftBottom > rightBottom {
		doc.SetY(leftBottom)
	} else {
		doc.SetY(rightBottom)
	}
	doc.Ln(6)

	doc.SetFont("Helvetica", "B", 10)
	doc.CellFormat(95, 6, fmt.Sprintf("Contractor: %s", data.ContractorName), "", 0, "L", false, 0, "")
	doc.CellFormat(0, 6, fmt.Sprintf("Date: %s", data.InvoiceDate), "", 1, "R", false, 0, "")
	doc.CellFormat(95, 6, "", "", 0, "L", false, 0, "")
	doc.CellFormat(0, 6, fmt.Sprintf("Invoice #: %s", data.InvoiceNumber), "", 1, "R", false, 0, "")
	doc.Ln(2)
	doc.CellFormat(120, 6, fmt.Sprintf("For services rendered at: %s", data.ServiceLocation), "", 0, "L", false, 0, "")
	doc.CellFormat(0, 6, fmt.Sprintf("Payment Terms: %s", data.PaymentTerms), "", 1, "R", false, 0, "")
	doc.CellFormat(0, 6, fmt.Sprintf("For the period: %s to %s", data.PeriodStart, data.PeriodEnd), "", 1, "L", false, 0, "")
	doc.Ln(6)

	// Timesheet box.
	boxTop := doc.GetY()
	doc.Rect(20, boxTop, 176, 66, "D")
	doc.SetY(boxTop + 4)

	doc.SetFont("Helvetica", "B", 10)
	doc.SetX(25)
	doc.CellFormat(0, 6, "Timesheet:", "", 1, "L", false, 0, "")
	doc.Ln(2)

	taxLabel := fmt.Sprintf("Tax (%s%%):", data.TaxRate.Mul(decimal.NewFromInt(100)).Truncate(0))
	lines := []struct {
		label string
		value string
	}{
		{"Total Hours:", money(data.TotalHours)},
		{"Rate / Hour:", "$" + money(data.RatePerHour)},
		{"Labor Fees:", "$" + money(amounts.LaborSubtotal)},
		{data.ExtraFeesLabel + ":", "$" + money(data.ExtraFees)},
		{"Subtotal:", "$" + money(amounts.Subtotal)},
		{taxLabel, "$" + money(amounts.TaxAmount)},
	}
	for _, line := range lines {
		doc.SetX(25)
		doc.SetFont("Helvetica", "B", 10)
		doc.CellFormat(110, 6, line.label, "", 0, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 10)
		doc.CellFormat(56, 6, line.value, "", 1, "R", false, 0, "")
	}

	doc.Ln(2)
	doc.SetX(25)
	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(110, 7, "INVOICE TOTAL:", "", 0, "L", false, 0, "")
	doc.CellFormat(56, 7, "$"+money(amounts.Total), "", 1, "R", false, 0, "")

	doc.SetY(boxTop + 72)
	doc.SetFont("Helvetica", "", 9)
	doc.CellFormat(0, 5, "If you have any questions about this invoice, please contact:", "", 1, "L", false, 0, "")
	doc.CellFormat(0, 5, fmt.Sprintf("%s | %s", data.VendorName, data.VendorEmail), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, pricing.Amounts{}, err
	}
	return buf.Bytes(), amounts, nil
}

func money(value decimal.Decimal) string {
	return value.StringFixed(2)
}
