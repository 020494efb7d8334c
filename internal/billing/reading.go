package billing

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// MeterReading is a pair of cumulative meter values for one billing period.
type MeterReading struct {
	Previous float64 `json:"previous" yaml:"previous"`
	Current  float64 `json:"current" yaml:"current"`
}

// Validate rejects negative or decreasing readings. Readings are never clamped.
func (r MeterReading) Validate(field string) error {
	if !finite(r.Previous) || !finite(r.Current) {
		return invalid(field, "readings must be finite numbers")
	}
	if r.Previous < 0 {
		return invalid(field+".previous", "must not be negative (got %v)", r.Previous)
	}
	if r.Current < r.Previous {
		return invalid(field+".current", "must be >= previous reading (%v < %v)", r.Current, r.Previous)
	}
	return nil
}

// Consumption returns current minus previous at full decimal precision.
func (r MeterReading) Consumption() decimal.Decimal {
	return decimal.NewFromFloat(r.Current).Sub(decimal.NewFromFloat(r.Previous))
}

// ParseReading converts user-entered meter values into a validated reading.
func ParseReading(field, previous, current string) (MeterReading, error) {
	prev, err := parseNumber(field+".previous", previous)
	if err != nil {
		return MeterReading{}, err
	}
	curr, err := parseNumber(field+".current", current)
	if err != nil {
		return MeterReading{}, err
	}
	r := MeterReading{Previous: prev, Current: curr}
	if err := r.Validate(field); err != nil {
		return MeterReading{}, err
	}
	return r, nil
}

// ParseRate converts a user-entered per-unit rate into a validated number.
func ParseRate(field, raw string) (float64, error) {
	v, err := parseNumber(field, raw)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, invalid(field, "must not be negative (got %v)", v)
	}
	return v, nil
}

func parseNumber(field, raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, invalid(field, "is required")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(v) {
		return 0, invalid(field, "%q is not a number", raw)
	}
	return v, nil
}
