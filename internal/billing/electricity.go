package billing

import "github.com/shopspring/decimal"

// ElectricBillDetail is the electricity part of a bill.
type ElectricBillDetail struct {
	Reading       MeterReading    `json:"reading"`
	TotalConsumed decimal.Decimal `json:"total_consumed_kwh"`
	RatePerUnit   decimal.Decimal `json:"rate_per_kwh"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Split         string          `json:"split"`
	Shares        []Share         `json:"shares"`
}

// ComputeElectricity prices consumed kWh at a flat rate and splits the total
// across occupants by days occupied.
func ComputeElectricity(reading MeterReading, rate float64, occupants []Occupant) (ElectricBillDetail, error) {
	return ComputeElectricityWith(DaysWeighted{}, reading, rate, occupants)
}

// ComputeElectricityWith is ComputeElectricity with an explicit split strategy.
func ComputeElectricityWith(alloc Allocator, reading MeterReading, rate float64, occupants []Occupant) (ElectricBillDetail, error) {
	if err := reading.Validate("electric.reading"); err != nil {
		return ElectricBillDetail{}, err
	}
	if !finite(rate) || rate < 0 {
		return ElectricBillDetail{}, invalid("electric.rate", "must be a non-negative number (got %v)", rate)
	}
	if alloc == nil {
		alloc = DaysWeighted{}
	}

	consumed := reading.Consumption()
	r := decimal.NewFromFloat(rate)
	total := consumed.Mul(r)

	shares, err := alloc.Allocate(total, occupants)
	if err != nil {
		return ElectricBillDetail{}, err
	}

	return ElectricBillDetail{
		Reading:       reading,
		TotalConsumed: consumed,
		RatePerUnit:   r,
		TotalAmount:   round(total),
		Split:         alloc.Name(),
		Shares:        shares,
	}, nil
}
