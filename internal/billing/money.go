package billing

import (
	"math"

	"github.com/shopspring/decimal"
)

// DisplayPlaces is the number of decimal places monetary outputs carry.
const DisplayPlaces = 2

// Currency is the symbol used on rendered receipts.
const Currency = "₱"

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(DisplayPlaces)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
