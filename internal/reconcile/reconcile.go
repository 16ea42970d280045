// Package reconcile turns a base price and an optional marketplace
// recommendation into the price actually submitted.
//
// The marketplace flags listings priced exactly at its recommended value as
// unattractive, so a recommendation is undercut by one whole unit. A floor
// at 90% of the base price keeps a stale recommendation from crashing the
// final price.
package reconcile

import "github.com/shopspring/decimal"

const undercut = 1

// Price computes the submission price for one product. With a
// recommendation R and base price B it returns max(R-1, floor(B*0.9));
// without one it returns B unchanged.
func Price(productID int64, basePrice int, recommended map[int64]int) int {
	rec, ok := recommended[productID]
	if !ok {
		return basePrice
	}
	adjusted := rec - undercut
	if floor := basePrice * 9 / 10; adjusted < floor {
		return floor
	}
	return adjusted
}

// BasePrice applies the configured markup multiplier to a parsed list
// price and rounds to whole currency units.
func BasePrice(listPrice decimal.Decimal, multiplier float64) int {
	scaled := listPrice.Mul(decimal.NewFromFloat(multiplier))
	return int(scaled.Round(0).IntPart())
}
