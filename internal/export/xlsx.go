package export

import (
	"bytes"
	"fmt"

	"github.com/bher20/dormbill/internal/billing"
	"github.com/xuri/excelize/v2"
)

// LedgerRow is one bill in a room ledger.
type LedgerRow struct {
	ID     string
	Status string
	Record billing.BillRecord
}

// RoomBillsXLSX renders a room's bill history as a workbook with a
// summary sheet and a per-occupant shares sheet.
func RoomBillsXLSX(roomID string, rows []LedgerRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	billsSheet := "bills"
	sharesSheet := "shares"
	if err := f.SetSheetName("Sheet1", billsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(sharesSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(billsSheet, "A1", "Room")
	_ = f.SetCellValue(billsSheet, "B1", roomID)

	header := []string{"Bill ID", "Issued", "Due Date", "Status", "kWh", "Electric", "m3", "Water Charge", "VAT", "Water", "Total"}
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		_ = f.SetCellValue(billsSheet, cell, h)
	}
	_ = f.SetCellValue(sharesSheet, "A1", "Bill ID")
	_ = f.SetCellValue(sharesSheet, "B1", "Due Date")
	_ = f.SetCellValue(sharesSheet, "C1", "Occupant")
	_ = f.SetCellValue(sharesSheet, "D1", "Days")
	_ = f.SetCellValue(sharesSheet, "E1", "Share")

	shareRow := 2
	for i, r := range rows {
		row := i + 4
		rec := r.Record
		values := []any{
			r.ID,
			rec.CreatedAt.Format(billing.DueDateLayout),
			rec.DueDate,
			r.Status,
			rec.Electric.TotalConsumed.InexactFloat64(),
			rec.Electric.TotalAmount.InexactFloat64(),
			rec.Water.TotalConsumed.InexactFloat64(),
			rec.Water.TieredCharge.InexactFloat64(),
			rec.Water.VATAmount.InexactFloat64(),
			rec.Water.TotalAmount.InexactFloat64(),
			rec.Total(),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(billsSheet, cell, v)
		}

		for _, s := range rec.Electric.Shares {
			_ = f.SetCellValue(sharesSheet, fmt.Sprintf("A%d", shareRow), r.ID)
			_ = f.SetCellValue(sharesSheet, fmt.Sprintf("B%d", shareRow), rec.DueDate)
			_ = f.SetCellValue(sharesSheet, fmt.Sprintf("C%d", shareRow), s.Label)
			_ = f.SetCellValue(sharesSheet, fmt.Sprintf("D%d", shareRow), s.Days)
			_ = f.SetCellValue(sharesSheet, fmt.Sprintf("E%d", shareRow), s.Amount.InexactFloat64())
			shareRow++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
