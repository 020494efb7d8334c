package billing

import (
	"strings"
	"time"
)

// DueDateLayout is the expected due-date format (YYYY-MM-DD).
const DueDateLayout = "2006-01-02"

// ElectricInput holds the electricity readings and rate for a bill.
type ElectricInput struct {
	Reading MeterReading `json:"reading"`
	Rate    float64      `json:"rate"`
}

// WaterInput holds the water readings and tariff for a bill.
type WaterInput struct {
	Reading MeterReading `json:"reading"`
	Tiers   TierSchedule `json:"tiers"`
	VATRate float64      `json:"vat_rate"`
}

// BillRequest is everything needed to produce a BillRecord.
type BillRequest struct {
	RoomID    string        `json:"room_id"`
	DueDate   string        `json:"due_date"`
	Split     string        `json:"split,omitempty"`
	Occupants []Occupant    `json:"occupants"`
	Electric  ElectricInput `json:"electric"`
	Water     WaterInput    `json:"water"`
}

// BillRecord is a fully computed bill for one room and period.
type BillRecord struct {
	RoomID    string             `json:"room_id"`
	DueDate   string             `json:"due_date"`
	CreatedAt time.Time          `json:"created_at"`
	Electric  ElectricBillDetail `json:"electric_bill"`
	Water     WaterBillDetail    `json:"water_bill"`
}

// Total is the sum of the electric and water totals.
func (b BillRecord) Total() string {
	return b.Electric.TotalAmount.Add(b.Water.TotalAmount).StringFixed(DisplayPlaces)
}

// ValidateDueDate checks that s is a calendar date in DueDateLayout.
func ValidateDueDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return invalid("due_date", "is required")
	}
	if _, err := time.Parse(DueDateLayout, strings.TrimSpace(s)); err != nil {
		return invalid("due_date", "%q is not a YYYY-MM-DD date", s)
	}
	return nil
}

// Compose validates the request and computes both utilities. Every input is
// checked before anything is computed; no partial record is ever returned.
func Compose(req BillRequest, now time.Time) (BillRecord, error) {
	room := strings.TrimSpace(req.RoomID)
	if room == "" {
		return BillRecord{}, invalid("room_id", "is required")
	}
	if err := ValidateDueDate(req.DueDate); err != nil {
		return BillRecord{}, err
	}
	alloc, err := AllocatorFor(req.Split)
	if err != nil {
		return BillRecord{}, err
	}

	water, err := ComputeWater(req.Water.Reading, req.Water.Tiers, req.Water.VATRate)
	if err != nil {
		return BillRecord{}, err
	}
	electric, err := ComputeElectricityWith(alloc, req.Electric.Reading, req.Electric.Rate, req.Occupants)
	if err != nil {
		return BillRecord{}, err
	}

	return BillRecord{
		RoomID:    room,
		DueDate:   strings.TrimSpace(req.DueDate),
		CreatedAt: now.UTC(),
		Electric:  electric,
		Water:     water,
	}, nil
}
