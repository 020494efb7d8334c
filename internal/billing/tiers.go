package billing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ChargeMode selects how a tier prices the volume that falls into it.
type ChargeMode string

const (
	// ChargeFlat charges Amount once when any volume falls in the tier.
	ChargeFlat ChargeMode = "flat"
	// ChargePerUnit charges Amount for every unit in the tier.
	ChargePerUnit ChargeMode = "per_unit"
)

// Tier is one consumption band of a water tariff. A tier marked Unbounded
// absorbs all remaining consumption and must be the last one.
type Tier struct {
	Capacity  float64    `json:"capacity,omitempty" yaml:"capacity,omitempty"`
	Unbounded bool       `json:"unbounded,omitempty" yaml:"unbounded,omitempty"`
	Mode      ChargeMode `json:"mode" yaml:"mode"`
	Amount    float64    `json:"amount" yaml:"amount"`
}

// TierSchedule is an ordered list of tiers applied on cumulative consumption.
type TierSchedule []Tier

// ReferenceVATRate is the VAT rate of the reference water tariff.
const ReferenceVATRate = 0.12

// ReferenceTiers returns the water tariff the dormitory has historically used:
// a flat minimum charge for the first 10 m³, three 10 m³ per-unit bands, and
// an open-ended band above 40 m³.
func ReferenceTiers() TierSchedule {
	return TierSchedule{
		{Capacity: 10, Mode: ChargeFlat, Amount: 187.00},
		{Capacity: 10, Mode: ChargePerUnit, Amount: 23.25},
		{Capacity: 10, Mode: ChargePerUnit, Amount: 29.25},
		{Capacity: 10, Mode: ChargePerUnit, Amount: 35.75},
		{Unbounded: true, Mode: ChargePerUnit, Amount: 43.00},
	}
}

// Validate checks the schedule shape. It does not look at consumption.
func (s TierSchedule) Validate() error {
	if len(s) == 0 {
		return invalid("tiers", "at least one tier is required")
	}
	for i, t := range s {
		field := fmt.Sprintf("tiers[%d]", i)
		switch t.Mode {
		case ChargeFlat, ChargePerUnit:
		default:
			return invalid(field+".mode", "unknown charge mode %q", t.Mode)
		}
		if !finite(t.Amount) || t.Amount < 0 {
			return invalid(field+".amount", "must be a non-negative number")
		}
		if t.Unbounded {
			if i != len(s)-1 {
				return invalid(field+".unbounded", "only the final tier may be unbounded")
			}
			continue
		}
		if !finite(t.Capacity) || t.Capacity <= 0 {
			return invalid(field+".capacity", "must be positive for a bounded tier")
		}
	}
	return nil
}

// Unbounded reports whether the final tier absorbs any remaining volume.
func (s TierSchedule) Unbounded() bool {
	return len(s) > 0 && s[len(s)-1].Unbounded
}

// Capacity returns the combined capacity of the bounded tiers.
func (s TierSchedule) Capacity() decimal.Decimal {
	total := decimal.Zero
	for _, t := range s {
		if !t.Unbounded {
			total = total.Add(decimal.NewFromFloat(t.Capacity))
		}
	}
	return total
}
