// Package core holds the domain model shared by the ledger, the
// coordinator and the analytics engine.
//
// Amounts are fixed-point decimals, always positive; whether they add to
// or subtract from the balance is decided by the transaction type.
package core

import (
	"github.com/shopspring/decimal"
)

// Percent returns part/whole as a percentage rounded to two decimals, or
// zero when whole is not positive.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).Round(2)
}
