package billing

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sumShares(shares []Share) decimal.Decimal {
	total := decimal.Zero
	for _, s := range shares {
		total = total.Add(s.Amount)
	}
	return total
}

func TestAllocate_RemainderGoesToLastOccupant(t *testing.T) {
	occ := []Occupant{{Name: "A", Days: 1}, {Name: "B", Days: 1}, {Name: "C", Days: 1}}
	shares, err := Allocate(dec("100.00"), occ)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"33.33", "33.33", "33.34"}
	for i, w := range want {
		if !shares[i].Amount.Equal(dec(w)) {
			t.Errorf("share %d: want %s, got %s", i, w, shares[i].Amount)
		}
	}
	if !sumShares(shares).Equal(dec("100.00")) {
		t.Errorf("shares sum to %s, want 100.00", sumShares(shares))
	}
}

func TestAllocate_SumEqualsRoundedTotal(t *testing.T) {
	cases := []struct {
		total string
		days  []int
	}{
		{"600", []int{10, 20}},
		{"0.01", []int{1, 1, 1}},
		{"1234.567", []int{7, 13, 29, 1}},
		{"99.999", []int{3, 3, 3, 3, 3, 3, 3}},
		{"10", []int{31}},
		{"0", []int{5, 6}},
		{"777.77", []int{30, 30, 29, 15, 2, 1}},
	}
	for _, tc := range cases {
		occ := make([]Occupant, len(tc.days))
		for i, d := range tc.days {
			occ[i] = Occupant{Days: d}
		}
		total := dec(tc.total)
		shares, err := Allocate(total, occ)
		if err != nil {
			t.Fatalf("Allocate(%s, %v): %v", tc.total, tc.days, err)
		}
		if got, want := sumShares(shares), total.Round(2); !got.Equal(want) {
			t.Errorf("Allocate(%s, %v) sums to %s, want %s", tc.total, tc.days, got, want)
		}
		for i, s := range shares[:len(shares)-1] {
			if !s.Amount.Equal(s.Amount.Round(2)) {
				t.Errorf("share %d not rounded to cents: %s", i, s.Amount)
			}
		}
	}
}

func TestAllocate_ProportionalToDays(t *testing.T) {
	shares, err := Allocate(dec("600"), []Occupant{{Name: "A", Days: 10}, {Name: "B", Days: 20}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !shares[0].Amount.Equal(dec("200")) || !shares[1].Amount.Equal(dec("400")) {
		t.Fatalf("unexpected shares: %+v", shares)
	}
}

func TestAllocate_Rejects(t *testing.T) {
	cases := map[string][]Occupant{
		"empty":     nil,
		"zero days": {{Name: "A", Days: 0}},
		"negative":  {{Name: "A", Days: 3}, {Name: "B", Days: -1}},
	}
	for name, occ := range cases {
		_, err := Allocate(dec("10"), occ)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("%s: expected ValidationError, got %v", name, err)
		}
		if !errors.Is(err, ErrValidation) {
			t.Errorf("%s: expected errors.Is(ErrValidation)", name)
		}
	}
}

func TestAllocate_AnonymousLabels(t *testing.T) {
	occ := []Occupant{{Name: "", Days: 1}, {Name: "Maria", Days: 1}, {Name: "   ", Days: 1}}
	shares, err := Allocate(dec("3"), occ)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Person A", "Maria", "Person C"}
	for i, w := range want {
		if shares[i].Label != w {
			t.Errorf("label %d: want %q, got %q", i, w, shares[i].Label)
		}
	}
}

func TestLabel_BeyondZ(t *testing.T) {
	cases := map[int]string{0: "Person A", 25: "Person Z", 26: "Person AA", 27: "Person AB", 51: "Person AZ", 52: "Person BA"}
	for i, want := range cases {
		if got := Label(i, ""); got != want {
			t.Errorf("Label(%d): want %q, got %q", i, want, got)
		}
	}
}

func TestPerHead_IgnoresDays(t *testing.T) {
	occ := []Occupant{{Name: "A", Days: 30}, {Name: "B", Days: 0}, {Name: "C", Days: 2}}
	shares, err := PerHead{}.Allocate(dec("100"), occ)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"33.33", "33.33", "33.34"}
	for i, w := range want {
		if !shares[i].Amount.Equal(dec(w)) {
			t.Errorf("share %d: want %s, got %s", i, w, shares[i].Amount)
		}
	}
}

func TestAllocatorFor(t *testing.T) {
	for name, want := range map[string]string{"": SplitDays, "days": SplitDays, " PAX ": SplitPax} {
		a, err := AllocatorFor(name)
		if err != nil {
			t.Fatalf("AllocatorFor(%q): %v", name, err)
		}
		if a.Name() != want {
			t.Errorf("AllocatorFor(%q) = %s, want %s", name, a.Name(), want)
		}
	}
	if _, err := AllocatorFor("rooms"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error for unknown split, got %v", err)
	}
}

func TestAllocate_HugeDaysDoNotWrap(t *testing.T) {
	occ := []Occupant{
		{Name: "A", Days: math.MaxInt64},
		{Name: "B", Days: math.MaxInt64},
		{Name: "C", Days: 3},
	}
	shares, err := Allocate(dec("100"), occ)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"50.00", "50.00", "0.00"}
	for i, w := range want {
		if !shares[i].Amount.Equal(dec(w)) {
			t.Errorf("share %d: want %s, got %s", i, w, shares[i].Amount)
		}
		if shares[i].Amount.IsNegative() {
			t.Errorf("share %d is negative: %s", i, shares[i].Amount)
		}
	}
	if !sumShares(shares).Equal(dec("100")) {
		t.Errorf("shares sum to %s, want 100", sumShares(shares))
	}
}
