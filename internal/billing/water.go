package billing

import (
	"github.com/shopspring/decimal"
)

// BandCharge records how much volume landed in one tier and what it cost.
type BandCharge struct {
	Tier   int             `json:"tier"`
	Mode   ChargeMode      `json:"mode"`
	Volume decimal.Decimal `json:"volume"`
	Charge decimal.Decimal `json:"charge"`
}

// WaterBillDetail is the water part of a bill.
type WaterBillDetail struct {
	Reading       MeterReading    `json:"reading"`
	TotalConsumed decimal.Decimal `json:"total_consumed_m3"`
	TieredCharge  decimal.Decimal `json:"tiered_charge"`
	VATRate       decimal.Decimal `json:"vat_rate"`
	VATAmount     decimal.Decimal `json:"vat_amount"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Bands         []BandCharge    `json:"bands,omitempty"`
}

// ComputeWater prices consumed m³ against a tier schedule and adds VAT.
func ComputeWater(reading MeterReading, tiers TierSchedule, vatRate float64) (WaterBillDetail, error) {
	if err := reading.Validate("water.reading"); err != nil {
		return WaterBillDetail{}, err
	}
	if err := tiers.Validate(); err != nil {
		return WaterBillDetail{}, err
	}
	if !finite(vatRate) || vatRate < 0 || vatRate >= 1 {
		return WaterBillDetail{}, invalid("water.vat_rate", "must be in [0, 1) (got %v)", vatRate)
	}

	consumed := reading.Consumption()
	if !tiers.Unbounded() {
		if capacity := tiers.Capacity(); consumed.GreaterThan(capacity) {
			return WaterBillDetail{}, &TierExhaustionError{Consumption: consumed, Capacity: capacity}
		}
	}

	charge := decimal.Zero
	var bands []BandCharge
	remaining := consumed
	for i, t := range tiers {
		if !remaining.IsPositive() {
			break
		}
		volume := remaining
		if !t.Unbounded {
			volume = decimal.Min(remaining, decimal.NewFromFloat(t.Capacity))
		}
		amount := decimal.NewFromFloat(t.Amount)
		var c decimal.Decimal
		switch t.Mode {
		case ChargeFlat:
			c = amount
		case ChargePerUnit:
			c = amount.Mul(volume)
		}
		charge = charge.Add(c)
		remaining = remaining.Sub(volume)
		bands = append(bands, BandCharge{Tier: i + 1, Mode: t.Mode, Volume: volume, Charge: round(c)})
	}

	vr := decimal.NewFromFloat(vatRate)
	tiered := round(charge)
	vat := round(charge.Mul(vr))

	return WaterBillDetail{
		Reading:       reading,
		TotalConsumed: consumed,
		TieredCharge:  tiered,
		VATRate:       vr,
		VATAmount:     vat,
		TotalAmount:   tiered.Add(vat),
		Bands:         bands,
	}, nil
}
