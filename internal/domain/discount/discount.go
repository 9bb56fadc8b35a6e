package discount

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Type enumerates the supported discount strategies.
type Type string

const (
	// TypePercentage takes Value percent off the subtotal.
	TypePercentage Type = "percentage"
	// TypeFixed takes a flat Value off the subtotal.
	TypeFixed Type = "fixed"
)

// Valid reports whether t is a known discount type.
func (t Type) Valid() bool {
	return t == TypePercentage || t == TypeFixed
}

var (
	// ErrNotFound is returned when a code does not exist or is inactive.
	ErrNotFound = errors.New("invalid discount code")
	// ErrCodeExpired is returned when a code is outside its activation window.
	ErrCodeExpired = errors.New("discount code expired")
	// ErrUsageLimitReached is returned when a code has exhausted its allowed uses.
	ErrUsageLimitReached = errors.New("discount code usage limit reached")
	// ErrMinimumNotMet is returned when the order amount is below the code's minimum.
	ErrMinimumNotMet = errors.New("minimum order value not met")
)

// MinimumNotMetError carries the minimum order value the code requires.
type MinimumNotMetError struct {
	Minimum decimal.Decimal
}

func (e *MinimumNotMetError) Error() string {
	return fmt.Sprintf("minimum order value of %s required", e.Minimum.StringFixed(2))
}

func (e *MinimumNotMetError) Unwrap() error { return ErrMinimumNotMet }

// Code is a discount code with its eligibility constraints.
// Nil pointer fields are unset and impose no constraint.
type Code struct {
	Code          string
	Description   string
	Type          Type
	Value         decimal.Decimal
	MinOrderValue *decimal.Decimal
	MaxDiscount   *decimal.Decimal
	UsageLimit    *int
	TimesUsed     int
	StartsAt      *time.Time
	ExpiresAt     *time.Time
	Active        bool
}

// Discount is the outcome of evaluating a code during checkout.
// A zero Amount with a non-nil Reason means the code was ineligible.
type Discount struct {
	Code        string
	Description string
	Amount      decimal.Decimal
	Reason      error
}

// Applied reports whether the discount reduces the order total.
func (d Discount) Applied() bool {
	return d.Amount.IsPositive()
}

// Quote is the read-only answer to a pre-checkout validation request.
type Quote struct {
	Code           string
	Description    string
	Type           Type
	Value          decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalAmount    decimal.Decimal
}

// Repository provides lookup of discount codes.
type Repository interface {
	// FindByCode returns ErrNotFound when no code matches.
	FindByCode(ctx context.Context, code string) (*Code, error)
}
