package discount

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Eligible checks every constraint of c against the candidate subtotal at now.
// The window bounds are inclusive.
func Eligible(c *Code, subtotal decimal.Decimal, now time.Time) error {
	if !c.Active {
		return ErrNotFound
	}
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return ErrCodeExpired
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return ErrCodeExpired
	}
	if c.UsageLimit != nil && c.TimesUsed >= *c.UsageLimit {
		return ErrUsageLimitReached
	}
	if c.MinOrderValue != nil && subtotal.LessThan(*c.MinOrderValue) {
		return &MinimumNotMetError{Minimum: *c.MinOrderValue}
	}
	return nil
}

// Apply computes the discount amount for subtotal. It does not check
// eligibility. The result is clamped to the code's cap and to the subtotal
// and rounded to cents.
func Apply(c *Code, subtotal decimal.Decimal) (decimal.Decimal, error) {
	var amount decimal.Decimal
	switch c.Type {
	case TypePercentage:
		amount = subtotal.Mul(c.Value).Div(hundred)
	case TypeFixed:
		amount = c.Value
	default:
		return decimal.Zero, errors.Errorf("unsupported discount type: %q", c.Type)
	}

	if c.MaxDiscount != nil && amount.GreaterThan(*c.MaxDiscount) {
		amount = *c.MaxDiscount
	}
	if amount.GreaterThan(subtotal) {
		amount = subtotal
	}
	if amount.IsNegative() {
		return decimal.Zero, nil
	}
	return amount.Round(2), nil
}
