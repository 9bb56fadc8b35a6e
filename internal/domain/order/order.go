package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the fulfilment state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// PaymentStatus is the payment state of an order.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Customer is the contact snapshot taken at order time.
type Customer struct {
	Email string `json:"email" validate:"required,email,max=255"`
	Name  string `json:"name" validate:"required,max=255"`
	Phone string `json:"phone,omitempty" validate:"max=50"`
}

// Address is a free-form postal address snapshot.
type Address struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	Province   string `json:"province,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// LineItem is a purchased product as it was priced at checkout. It does not
// follow later changes to the product.
type LineItem struct {
	ProductID   string
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
	Total       decimal.Decimal
}

// Order is a placed customer order.
type Order struct {
	ID              string
	Number          string
	Customer        Customer
	Subtotal        decimal.Decimal
	DiscountAmount  decimal.Decimal
	TaxAmount       decimal.Decimal
	TotalAmount     decimal.Decimal
	DiscountCode    string
	Status          Status
	PaymentStatus   PaymentStatus
	ShippingAddress *Address
	BillingAddress  *Address
	Items           []LineItem
	PlacedAt        time.Time
}

// Repository persists orders.
type Repository interface {
	// Create stores o with its line items, decrements stock for every line and,
	// when o.DiscountCode is set, increments that code's usage counter once.
	// All of it happens atomically: on any error nothing is written.
	//
	// It returns *InsufficientStockError when a decrement would drive stock
	// negative and discount.ErrUsageLimitReached when the code was exhausted
	// concurrently.
	Create(ctx context.Context, o *Order) error
	// FindByNumber returns ErrNotFound when no order has the given number.
	FindByNumber(ctx context.Context, number string) (*Order, error)
}

// Cache is an optional read-through cache for tracked orders.
type Cache interface {
	Get(ctx context.Context, number string) (*Order, error)
	Set(ctx context.Context, o *Order) error
}
