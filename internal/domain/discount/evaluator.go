package discount

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Evaluator decides whether a discount code applies to an order amount.
type Evaluator struct {
	repo Repository
	now  func() time.Time
}

// NewEvaluator creates an Evaluator backed by the given Repository.
func NewEvaluator(repo Repository) *Evaluator {
	return &Evaluator{repo: repo, now: time.Now}
}

// Evaluate computes the checkout discount for code against subtotal.
//
// An ineligible code never fails the checkout: it yields a zero Discount with
// Reason set. Only lookup failures other than ErrNotFound are returned.
func (e *Evaluator) Evaluate(ctx context.Context, code string, subtotal decimal.Decimal) (Discount, error) {
	code = normalize(code)
	if code == "" {
		return Discount{Amount: decimal.Zero}, nil
	}

	c, err := e.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Discount{Code: code, Amount: decimal.Zero, Reason: ErrNotFound}, nil
		}
		return Discount{}, errors.Wrap(err, "lookup discount code")
	}

	if err := Eligible(c, subtotal, e.now()); err != nil {
		return Discount{Code: c.Code, Description: c.Description, Amount: decimal.Zero, Reason: err}, nil
	}

	amount, err := Apply(c, subtotal)
	if err != nil {
		return Discount{Code: c.Code, Description: c.Description, Amount: decimal.Zero, Reason: err}, nil
	}

	return Discount{Code: c.Code, Description: c.Description, Amount: amount}, nil
}

// Validate is the strict, read-only variant used before checkout: every
// ineligibility is reported as an error. It never touches the usage counter.
func (e *Evaluator) Validate(ctx context.Context, code string, amount decimal.Decimal) (*Quote, error) {
	code = normalize(code)
	if code == "" {
		return nil, ErrNotFound
	}

	c, err := e.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup discount code")
	}

	if err := Eligible(c, amount, e.now()); err != nil {
		return nil, err
	}

	discountAmount, err := Apply(c, amount)
	if err != nil {
		return nil, err
	}

	return &Quote{
		Code:           c.Code,
		Description:    c.Description,
		Type:           c.Type,
		Value:          c.Value,
		DiscountAmount: discountAmount,
		FinalAmount:    amount.Sub(discountAmount).Round(2),
	}, nil
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
