package export

import (
	"bytes"
	"fmt"

	"github.com/bher20/dormbill/internal/billing"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// The core PDF fonts are cp1252 and cannot draw the peso sign.
const pdfCurrency = "PHP "

func amount(d decimal.Decimal) string {
	return pdfCurrency + d.StringFixed(billing.DisplayPlaces)
}

// BillPDF renders a one-page receipt for a computed bill.
func BillPDF(rec billing.BillRecord) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "B", 14)
	pdf.AddPage()

	pdf.Cell(0, 8, "Utility Bill")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Room: %s", rec.RoomID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Issued: %s", rec.CreatedAt.Format(billing.DueDateLayout)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Due Date: %s", rec.DueDate))
	pdf.Ln(8)

	e := rec.Electric
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 6, "Electricity")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Reading: %v -> %v kWh (%s kWh)",
		e.Reading.Previous, e.Reading.Current, e.TotalConsumed.StringFixed(billing.DisplayPlaces)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Rate per kWh: %s", amount(e.RatePerUnit)))
	pdf.Ln(7)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(80, 6, "Occupant", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 6, "Days", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Share", "1", 0, "R", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, s := range e.Shares {
		pdf.CellFormat(80, 6, s.Label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%d", s.Days), "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, amount(s.Amount), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Total Electric Bill: %s", amount(e.TotalAmount)))
	pdf.Ln(9)

	w := rec.Water
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 6, "Water")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Reading: %v -> %v m3 (%s m3)",
		w.Reading.Previous, w.Reading.Current, w.TotalConsumed.StringFixed(billing.DisplayPlaces)))
	pdf.Ln(7)

	if len(w.Bands) > 0 {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(30, 6, "Tier", "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, "Volume (m3)", "1", 0, "R", false, 0, "")
		pdf.CellFormat(50, 6, "Charge", "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for _, b := range w.Bands {
			pdf.CellFormat(30, 6, fmt.Sprintf("%d", b.Tier), "1", 0, "C", false, 0, "")
			pdf.CellFormat(50, 6, b.Volume.StringFixed(billing.DisplayPlaces), "1", 0, "R", false, 0, "")
			pdf.CellFormat(50, 6, amount(b.Charge), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
	}
	pdf.Cell(0, 6, fmt.Sprintf("Water Charge: %s", amount(w.TieredCharge)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("VAT (%s%%): %s", w.VATRate.Shift(2).String(), amount(w.VATAmount)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Water Bill: %s", amount(w.TotalAmount)))
	pdf.Ln(9)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Amount Due: %s%s", pdfCurrency, rec.Total()))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
