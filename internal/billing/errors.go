package billing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrValidation is wrapped by every *ValidationError.
	ErrValidation = errors.New("billing: invalid input")
	// ErrTierExhaustion is wrapped by every *TierExhaustionError.
	ErrTierExhaustion = errors.New("billing: tier schedule exhausted")
)

// ValidationError reports malformed or out-of-range calculator input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("billing: invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// TierExhaustionError is returned when consumption exceeds the combined
// capacity of a schedule that has no unbounded final tier.
type TierExhaustionError struct {
	Consumption decimal.Decimal
	Capacity    decimal.Decimal
}

func (e *TierExhaustionError) Error() string {
	return fmt.Sprintf("billing: consumption %s exceeds tier capacity %s",
		e.Consumption.String(), e.Capacity.String())
}

func (e *TierExhaustionError) Unwrap() error { return ErrTierExhaustion }
