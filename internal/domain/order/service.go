package order

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-checkout/internal/domain/discount"
	"github.com/xenking/storefront-checkout/internal/domain/pricing"
	"github.com/xenking/storefront-checkout/internal/domain/product"
)

// DiscountEvaluator evaluates discount codes for checkout and pre-checkout validation.
type DiscountEvaluator interface {
	Evaluate(ctx context.Context, code string, subtotal decimal.Decimal) (discount.Discount, error)
	Validate(ctx context.Context, code string, amount decimal.Decimal) (*discount.Quote, error)
}

// Config holds non-dependency settings of the Service.
type Config struct {
	// TaxRate is the VAT rate contained in every unit price, e.g. 0.15.
	// Required.
	TaxRate decimal.Decimal
}

// CreateOrderResult holds the output of a completed checkout.
type CreateOrderResult struct {
	Order *Order
	// Discount is the evaluated discount. When the code was ineligible its
	// Amount is zero and Reason explains why.
	Discount discount.Discount
}

// Service is the checkout entry point. It validates the cart, prices it and
// commits the order through the Repository.
type Service struct {
	catalog   product.Catalog
	discounts DiscountEvaluator
	orders    Repository
	cache     Cache
	validate  *validator.Validate
	taxRate   decimal.Decimal
	now       func() time.Time
}

// NewService creates a Service. cache may be nil.
func NewService(
	cfg Config,
	catalog product.Catalog,
	discounts DiscountEvaluator,
	orders Repository,
	cache Cache,
) (*Service, error) {
	if !cfg.TaxRate.IsPositive() {
		return nil, errors.Errorf("tax rate %s must be positive", cfg.TaxRate)
	}
	return &Service{
		catalog:   catalog,
		discounts: discounts,
		orders:    orders,
		cache:     cache,
		validate:  newValidator(),
		taxRate:   cfg.TaxRate,
		now:       time.Now,
	}, nil
}

// TaxRate returns the configured VAT rate.
func (s *Service) TaxRate() decimal.Decimal {
	return s.taxRate
}

// CreateOrder runs a checkout. Customer fields are trimmed before
// validation. Failures are returned as *CheckoutError wrapping one of
// *ValidationError, *ProductNotFoundError, *InsufficientStockError or
// *PersistenceError. Nothing is persisted unless the call succeeds.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	req.Customer = normalizeCustomer(req.Customer)
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, fail(StageValidating, validationError(err))
	}

	lines, err := s.resolveLines(ctx, req.Items)
	if err != nil {
		return nil, fail(StageValidating, err)
	}

	d, err := s.discounts.Evaluate(ctx, req.DiscountCode, pricing.Subtotal(lines))
	if err != nil {
		return nil, fail(StagePricing, &PersistenceError{Op: "evaluate discount", Err: err})
	}

	o, err := s.price(req, lines, d)
	if err != nil {
		return nil, fail(StagePricing, err)
	}

	err = s.orders.Create(ctx, o)
	if errors.Is(err, discount.ErrUsageLimitReached) && o.DiscountCode != "" {
		// The code ran out between evaluation and commit. Fall back to full
		// price like any other ineligible code.
		d = discount.Discount{Code: d.Code, Description: d.Description, Amount: decimal.Zero, Reason: err}
		if o, err = s.price(req, lines, d); err != nil {
			return nil, fail(StagePricing, err)
		}
		err = s.orders.Create(ctx, o)
	}
	if err != nil {
		return nil, fail(StageCommitting, commitError(err))
	}

	return &CreateOrderResult{Order: o, Discount: d}, nil
}

// ValidateDiscount quotes code against amount without touching its usage
// counter. Ineligible codes are reported with the discount package errors.
func (s *Service) ValidateDiscount(ctx context.Context, code string, amount decimal.Decimal) (*discount.Quote, error) {
	if strings.TrimSpace(code) == "" {
		return nil, &ValidationError{Fields: map[string]string{"code": "is required"}}
	}
	if amount.IsNegative() {
		return nil, &ValidationError{Fields: map[string]string{"order_amount": "must not be negative"}}
	}

	q, err := s.discounts.Validate(ctx, code, amount)
	if err != nil {
		if isDiscountRejection(err) {
			return nil, err
		}
		return nil, &PersistenceError{Op: "validate discount", Err: err}
	}
	return q, nil
}

// TrackOrder returns the order with the given number and its line items.
func (s *Service) TrackOrder(ctx context.Context, number string) (*Order, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, &ValidationError{Fields: map[string]string{"order_number": "is required"}}
	}

	if s.cache != nil {
		// Cache failures fall through to the repository.
		if o, err := s.cache.Get(ctx, number); err == nil && o != nil {
			return o, nil
		}
	}

	o, err := s.orders.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &PersistenceError{Op: "find order", Err: err}
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, o)
	}
	return o, nil
}

// resolveLines looks up every requested product and performs the advisory
// stock check. Lines for the same product are checked against their summed
// quantity.
func (s *Service) resolveLines(ctx context.Context, items []CartLine) ([]pricing.Line, error) {
	ids := make([]string, 0, len(items))
	wanted := make(map[string]int, len(items))
	for _, item := range items {
		if _, seen := wanted[item.ProductID]; !seen {
			ids = append(ids, item.ProductID)
		}
		wanted[item.ProductID] += item.Quantity
	}

	fetched, err := s.catalog.LookupMany(ctx, ids)
	if err != nil {
		return nil, &PersistenceError{Op: "lookup products", Err: err}
	}

	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: id}
		}
		if !p.HasStock(wanted[id]) {
			return nil, &InsufficientStockError{
				ProductID:   id,
				ProductName: p.Name,
				Requested:   wanted[id],
				Available:   p.Stock,
			}
		}
	}

	lines := make([]pricing.Line, len(items))
	for i, item := range items {
		p := byID[item.ProductID]
		lines[i] = pricing.Line{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  item.Quantity,
		}
	}
	return lines, nil
}

// price builds the order to commit from the priced lines and discount.
func (s *Service) price(req CreateOrderRequest, lines []pricing.Line, d discount.Discount) (*Order, error) {
	b, err := pricing.Calculate(lines, d.Amount, s.taxRate)
	if err != nil {
		return nil, errors.Wrap(err, "calculate totals")
	}

	now := s.now()
	number, err := NewNumber(now)
	if err != nil {
		return nil, errors.Wrap(err, "generate order number")
	}

	items := make([]LineItem, len(b.Lines))
	for i, l := range b.Lines {
		items[i] = LineItem{
			ProductID:   l.ProductID,
			ProductName: l.Name,
			UnitPrice:   l.UnitPrice,
			Quantity:    l.Quantity,
			Total:       l.Total,
		}
	}

	o := &Order{
		ID:              uuid.NewString(),
		Number:          number,
		Customer:        req.Customer,
		Subtotal:        b.Subtotal,
		DiscountAmount:  b.Discount,
		TaxAmount:       b.Tax,
		TotalAmount:     b.Total,
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		Items:           items,
		PlacedAt:        now.UTC(),
	}
	if b.Discount.IsPositive() {
		o.DiscountCode = d.Code
	}
	return o, nil
}

func normalizeCustomer(c Customer) Customer {
	return Customer{
		Email: strings.ToLower(strings.TrimSpace(c.Email)),
		Name:  strings.TrimSpace(c.Name),
		Phone: strings.TrimSpace(c.Phone),
	}
}

func commitError(err error) error {
	var stockErr *InsufficientStockError
	if errors.As(err, &stockErr) {
		return stockErr
	}
	var notFound *ProductNotFoundError
	if errors.As(err, &notFound) {
		return notFound
	}
	var pErr *PersistenceError
	if errors.As(err, &pErr) {
		return pErr
	}
	return &PersistenceError{Op: "create order", Err: err}
}

func isDiscountRejection(err error) bool {
	return errors.Is(err, discount.ErrNotFound) ||
		errors.Is(err, discount.ErrCodeExpired) ||
		errors.Is(err, discount.ErrUsageLimitReached) ||
		errors.Is(err, discount.ErrMinimumNotMet)
}
