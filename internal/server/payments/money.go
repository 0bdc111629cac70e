// Package payments talks to the external payment processor: it stages
// payment intents and looks them up again to verify client-reported
// settlements.
package payments

import (
	"fmt"

	"github.com/dmitrijs2005/gearhub/internal/common"
	"github.com/shopspring/decimal"
)

var (
	hundred   = decimal.NewFromInt(100)
	maxAmount = decimal.NewFromInt(99_999_999_999)
)

// ToMinorUnits converts a positive price to minor currency units,
// round(price * 100), e.g. 19.99 -> 1999.
func ToMinorUnits(price decimal.Decimal) (int64, error) {
	if !price.IsPositive() {
		return 0, fmt.Errorf("%w: price must be positive, got %s", common.ErrorValidation, price)
	}

	amount := price.Mul(hundred).Round(0)
	if amount.IsZero() {
		return 0, fmt.Errorf("%w: price %s is below the smallest unit", common.ErrorValidation, price)
	}
	if amount.GreaterThan(maxAmount) {
		return 0, fmt.Errorf("%w: price %s out of range", common.ErrorValidation, price)
	}

	return amount.IntPart(), nil
}

// FromMinorUnits is the inverse of ToMinorUnits.
func FromMinorUnits(amount int64) decimal.Decimal {
	return decimal.New(amount, -2)
}
