package billing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatReceipt renders the plain-text receipt boarders see for a bill.
func FormatReceipt(b BillRecord) string {
	var sb strings.Builder
	e, w := b.Electric, b.Water

	fmt.Fprintf(&sb, "Room: %s\n", b.RoomID)
	fmt.Fprintf(&sb, "Issued: %s\n", b.CreatedAt.Format(DueDateLayout))
	fmt.Fprintf(&sb, "Due Date: %s\n\n", b.DueDate)

	sb.WriteString("Electric Bill\n")
	fmt.Fprintf(&sb, "Previous Reading: %s kWh\n", num(e.Reading.Previous))
	fmt.Fprintf(&sb, "Current Reading: %s kWh\n", num(e.Reading.Current))
	fmt.Fprintf(&sb, "Total kWh Consumed: %s kWh\n", e.TotalConsumed.StringFixed(DisplayPlaces))
	fmt.Fprintf(&sb, "Rate per kWh: %s\n", money(e.RatePerUnit))
	for _, s := range e.Shares {
		if e.Split == SplitPax {
			fmt.Fprintf(&sb, "%s: %s\n", s.Label, money(s.Amount))
			continue
		}
		fmt.Fprintf(&sb, "%s (%d days): %s\n", s.Label, s.Days, money(s.Amount))
	}
	fmt.Fprintf(&sb, "Total Electric Bill: %s\n\n", money(e.TotalAmount))

	sb.WriteString("Water Bill\n")
	fmt.Fprintf(&sb, "Previous Reading: %s m³\n", num(w.Reading.Previous))
	fmt.Fprintf(&sb, "Current Reading: %s m³\n", num(w.Reading.Current))
	fmt.Fprintf(&sb, "Consumed: %s m³\n", w.TotalConsumed.StringFixed(DisplayPlaces))
	for _, band := range w.Bands {
		fmt.Fprintf(&sb, "  Tier %d (%s m³): %s\n", band.Tier, band.Volume.StringFixed(DisplayPlaces), money(band.Charge))
	}
	fmt.Fprintf(&sb, "Water Charge: %s\n", money(w.TieredCharge))
	fmt.Fprintf(&sb, "VAT (%s%%): %s\n", w.VATRate.Shift(2).String(), money(w.VATAmount))
	fmt.Fprintf(&sb, "Total Water Bill: %s\n\n", money(w.TotalAmount))

	fmt.Fprintf(&sb, "Amount Due: %s%s\n", Currency, b.Total())
	return sb.String()
}

func money(d decimal.Decimal) string {
	return Currency + d.StringFixed(DisplayPlaces)
}

func num(f float64) string {
	return decimal.NewFromFloat(f).String()
}
