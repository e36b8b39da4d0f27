// Package money converts between decimal major-unit amounts and the integer
// minor units exchanged with the payment gateway.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const minorExponent = 2

// ToMinorUnits converts a major-unit amount (e.g. rupees) into minor units (paise).
// Amounts carrying more precision than the minor unit are rejected rather than rounded.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	shifted := amount.Shift(minorExponent)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has sub-minor-unit precision", amount.String())
	}
	if !shifted.BigInt().IsInt64() {
		return 0, fmt.Errorf("amount %s overflows minor units", amount.String())
	}
	return shifted.IntPart(), nil
}

// FromMinorUnits converts gateway minor units back into a major-unit decimal.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -minorExponent)
}

// Round normalizes a computed amount to the minor unit.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(minorExponent)
}
