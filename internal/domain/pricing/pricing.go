// Package pricing computes VAT-inclusive order totals.
//
// Unit prices already contain tax, so the tax component of an order is
// back-calculated from the discounted total rather than added on top of it.
package pricing

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidRate is returned for a negative tax rate.
	ErrInvalidRate = errors.New("tax rate must not be negative")
	// ErrInvalidQuantity is returned for a line with a non-positive quantity.
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
)

var one = decimal.NewFromInt(1)

// Line is a priced cart line.
type Line struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// LineTotal is the per-line result of a calculation.
type LineTotal struct {
	Line
	Total decimal.Decimal
}

// Breakdown holds the order totals. Every amount is rounded to cents and
// Total == Subtotal - Discount.
type Breakdown struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
	Lines    []LineTotal
}

// Calculate prices lines, subtracts discount and derives the tax contained in
// the remaining total at the given rate (0.15 for 15%).
//
// The discount is clamped to [0, subtotal].
func Calculate(lines []Line, discount, rate decimal.Decimal) (Breakdown, error) {
	if rate.IsNegative() {
		return Breakdown{}, ErrInvalidRate
	}

	out := Breakdown{Lines: make([]LineTotal, len(lines))}
	subtotal := decimal.Zero
	for i, l := range lines {
		if l.Quantity <= 0 {
			return Breakdown{}, errors.Wrapf(ErrInvalidQuantity, "product %s", l.ProductID)
		}
		total := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
		out.Lines[i] = LineTotal{Line: l, Total: total}
		subtotal = subtotal.Add(total)
	}

	discount = discount.Round(2)
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}

	total := subtotal.Sub(discount)

	out.Subtotal = subtotal
	out.Discount = discount
	out.Total = total
	out.Tax = Tax(total, rate)
	return out, nil
}

// Tax returns the tax contained in a tax-inclusive amount: amount - amount/(1+rate).
func Tax(amount, rate decimal.Decimal) decimal.Decimal {
	if amount.IsZero() || rate.IsZero() {
		return decimal.Zero
	}
	net := amount.DivRound(one.Add(rate), 8)
	return amount.Sub(net).Round(2)
}
