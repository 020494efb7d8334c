package billing

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func sampleRequest() BillRequest {
	return BillRequest{
		RoomID:    " room1 ",
		DueDate:   "2024-11-15",
		Occupants: []Occupant{{Name: "A", Days: 10}, {Name: "B", Days: 20}},
		Electric:  ElectricInput{Reading: MeterReading{Previous: 100, Current: 150}, Rate: 12},
		Water:     WaterInput{Reading: MeterReading{Previous: 100, Current: 125}, Tiers: ReferenceTiers(), VATRate: ReferenceVATRate},
	}
}

func TestCompose(t *testing.T) {
	now := time.Date(2024, 11, 1, 9, 30, 0, 0, time.FixedZone("PHT", 8*3600))
	rec, err := Compose(sampleRequest(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.RoomID != "room1" {
		t.Errorf("room id not trimmed: %q", rec.RoomID)
	}
	if !rec.CreatedAt.Equal(now) || rec.CreatedAt.Location() != time.UTC {
		t.Errorf("created_at should be %v in UTC, got %v", now, rec.CreatedAt)
	}
	if !rec.Electric.TotalAmount.Equal(dec("600")) || !rec.Water.TotalAmount.Equal(dec("633.64")) {
		t.Errorf("unexpected totals: %s / %s", rec.Electric.TotalAmount, rec.Water.TotalAmount)
	}
	if rec.Total() != "1233.64" {
		t.Errorf("total: want 1233.64, got %s", rec.Total())
	}
}

func TestCompose_PaxSplit(t *testing.T) {
	req := sampleRequest()
	req.Split = SplitPax
	rec, err := Compose(req, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range rec.Electric.Shares {
		if !s.Amount.Equal(dec("300")) {
			t.Errorf("pax share: want 300, got %s", s.Amount)
		}
	}
}

func TestCompose_Rejects(t *testing.T) {
	mutate := map[string]func(*BillRequest){
		"room":       func(r *BillRequest) { r.RoomID = "  " },
		"due date":   func(r *BillRequest) { r.DueDate = "" },
		"bad date":   func(r *BillRequest) { r.DueDate = "15/11/2024" },
		"split":      func(r *BillRequest) { r.Split = "coin-flip" },
		"occupants":  func(r *BillRequest) { r.Occupants = nil },
		"water read": func(r *BillRequest) { r.Water.Reading.Current = 1 },
	}
	for name, fn := range mutate {
		req := sampleRequest()
		fn(&req)
		rec, err := Compose(req, time.Now())
		if !errors.Is(err, ErrValidation) {
			t.Errorf("%s: expected validation error, got %v", name, err)
		}
		if rec.RoomID != "" {
			t.Errorf("%s: expected empty record on failure", name)
		}
	}
}

func TestFormatReceipt(t *testing.T) {
	req := sampleRequest()
	req.Occupants = []Occupant{{Days: 10}, {Name: "Bea", Days: 20}}
	rec, err := Compose(req, time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := FormatReceipt(rec)
	for _, want := range []string{
		"Room: room1",
		"Due Date: 2024-11-15",
		"Total kWh Consumed: 50.00 kWh",
		"Rate per kWh: ₱12.00",
		"Person A (10 days): ₱200.00",
		"Bea (20 days): ₱400.00",
		"Water Charge: ₱565.75",
		"VAT (12%): ₱67.89",
		"Total Water Bill: ₱633.64",
		"Amount Due: ₱1233.64",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("receipt missing %q:\n%s", want, out)
		}
	}
}

func TestParseReading(t *testing.T) {
	r, err := ParseReading("electric.reading", " 100 ", "150.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Previous != 100 || r.Current != 150.5 {
		t.Errorf("unexpected reading: %+v", r)
	}
	for _, in := range [][2]string{{"", "1"}, {"abc", "1"}, {"5", "4"}, {"1", "NaN"}} {
		if _, err := ParseReading("r", in[0], in[1]); !errors.Is(err, ErrValidation) {
			t.Errorf("ParseReading(%q, %q): expected validation error, got %v", in[0], in[1], err)
		}
	}
	if _, err := ParseRate("rate", "-2"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected negative rate to be rejected")
	}
}
