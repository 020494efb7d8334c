package billing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Occupant is a person sharing a room's bill. Days is the number of days the
// occupant stayed during the billing period.
type Occupant struct {
	Name string `json:"name"`
	Days int    `json:"days"`
}

// Share is one occupant's portion of a charge.
type Share struct {
	Label  string          `json:"label"`
	Days   int             `json:"days"`
	Amount decimal.Decimal `json:"amount"`
}

// Allocator splits a total across occupants.
type Allocator interface {
	// Name is the strategy key used in requests and configuration.
	Name() string
	Allocate(total decimal.Decimal, occupants []Occupant) ([]Share, error)
}

// Split strategy keys.
const (
	SplitDays = "days"
	SplitPax  = "pax"
)

var allocators = map[string]Allocator{
	SplitDays: DaysWeighted{},
	SplitPax:  PerHead{},
}

// AllocatorFor returns the strategy registered under name. An empty name
// selects the days-weighted split.
func AllocatorFor(name string) (Allocator, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = SplitDays
	}
	a, ok := allocators[key]
	if !ok {
		return nil, invalid("split", "unknown strategy %q (want one of %s)", name, strings.Join(Splits(), ", "))
	}
	return a, nil
}

// Splits lists the known strategy keys in sorted order.
func Splits() []string {
	keys := make([]string, 0, len(allocators))
	for k := range allocators {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Allocate splits total proportionally to each occupant's days.
func Allocate(total decimal.Decimal, occupants []Occupant) ([]Share, error) {
	return DaysWeighted{}.Allocate(total, occupants)
}

// DaysWeighted weights each occupant by days occupied.
type DaysWeighted struct{}

func (DaysWeighted) Name() string { return SplitDays }

func (DaysWeighted) Allocate(total decimal.Decimal, occupants []Occupant) ([]Share, error) {
	if len(occupants) == 0 {
		return nil, invalid("occupants", "at least one occupant is required")
	}
	weights := make([]int64, len(occupants))
	for i, o := range occupants {
		if o.Days <= 0 {
			return nil, invalid(fmt.Sprintf("occupants[%d].days", i), "must be positive (got %d)", o.Days)
		}
		weights[i] = int64(o.Days)
	}
	return split(total, occupants, weights)
}

// PerHead splits evenly by headcount (pax), ignoring days.
type PerHead struct{}

func (PerHead) Name() string { return SplitPax }

func (PerHead) Allocate(total decimal.Decimal, occupants []Occupant) ([]Share, error) {
	if len(occupants) == 0 {
		return nil, invalid("occupants", "at least one occupant is required")
	}
	weights := make([]int64, len(occupants))
	for i, o := range occupants {
		if o.Days < 0 {
			return nil, invalid(fmt.Sprintf("occupants[%d].days", i), "must not be negative (got %d)", o.Days)
		}
		weights[i] = 1
	}
	return split(total, occupants, weights)
}

// split rounds every share independently and then gives the last occupant
// whatever remains of the rounded total, so shares always sum to round(total).
func split(total decimal.Decimal, occupants []Occupant, weights []int64) ([]Share, error) {
	// Summed in decimal so large day counts cannot wrap.
	totalWeight := decimal.Zero
	for _, w := range weights {
		totalWeight = totalWeight.Add(decimal.NewFromInt(w))
	}
	if !totalWeight.IsPositive() {
		return nil, invalid("occupants", "total weight must be positive")
	}
	target := round(total)

	shares := make([]Share, len(occupants))
	allocated := decimal.Zero
	last := len(occupants) - 1
	for i, o := range occupants {
		shares[i] = Share{Label: Label(i, o.Name), Days: o.Days}
		if i == last {
			shares[i].Amount = target.Sub(allocated)
			break
		}
		amt := round(total.Mul(decimal.NewFromInt(weights[i])).Div(totalWeight))
		shares[i].Amount = amt
		allocated = allocated.Add(amt)
	}
	return shares, nil
}

// Label returns the display name of the occupant at index. Blank names are
// replaced by "Person A", "Person B", ... based purely on position.
func Label(index int, name string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return "Person " + letters(index)
}

// letters maps 0 -> A, 25 -> Z, 26 -> AA, like spreadsheet columns.
func letters(i int) string {
	var b []byte
	for i >= 0 {
		b = append([]byte{byte('A' + i%26)}, b...)
		i = i/26 - 1
	}
	return string(b)
}
