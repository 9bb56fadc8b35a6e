package pricing

import "github.com/shopspring/decimal"

// Subtotal returns the sum of UnitPrice * Quantity over lines, rounded to cents.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2))
	}
	return sum
}
