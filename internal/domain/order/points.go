package order

import "github.com/shopspring/decimal"

// pointsRate is the share of an order total credited as loyalty points.
var pointsRate = decimal.New(1, -1)

// PointsFor returns the loyalty points earned for an order total: 10% of the
// total, truncated toward zero.
func PointsFor(total decimal.Decimal) int64 {
	return total.Mul(pointsRate).IntPart()
}

// Total returns the sum of unit price times quantity over items.
func Total(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}
