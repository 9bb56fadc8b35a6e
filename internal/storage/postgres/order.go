package postgres

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront-checkout/internal/domain/discount"
	"github.com/xenking/storefront-checkout/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders (id, order_number, customer_email, customer_name, customer_phone,
		subtotal, discount_amount, tax_amount, total_amount, discount_code,
		status, payment_status, shipping_address, billing_address, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, position, product_id, product_name,
		unit_price, quantity, total_price)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

	decrementStockSQL = `UPDATE products
	SET stock_quantity = stock_quantity - $2, updated_at = NOW()
	WHERE id = $1 AND is_active AND stock_quantity >= $2`

	currentStockSQL = `SELECT name, stock_quantity, is_active FROM products WHERE id = $1`

	incrementDiscountUsageSQL = `UPDATE discount_codes
	SET times_used = times_used + 1
	WHERE code = $1 AND (usage_limit IS NULL OR times_used < usage_limit)`

	getOrderByNumberSQL = `SELECT id::text, order_number, customer_email, customer_name, customer_phone,
		subtotal, discount_amount, tax_amount, total_amount, COALESCE(discount_code, ''),
		status, payment_status, shipping_address, billing_address, created_at
	FROM orders WHERE order_number = $1`

	getOrderItemsSQL = `SELECT product_id::text, product_name, unit_price, quantity, total_price
	FROM order_items WHERE order_id = $1 ORDER BY position`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists o in a single transaction. Stock rows are updated in
// product id order so concurrent checkouts over the same products cannot
// deadlock.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	shipping, err := marshalAddress(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("marshaling shipping address: %w", err)
	}
	billing, err := marshalAddress(o.BillingAddress)
	if err != nil {
		return fmt.Errorf("marshaling billing address: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insertOrderSQL,
			o.ID, o.Number, o.Customer.Email, o.Customer.Name, o.Customer.Phone,
			o.Subtotal, o.DiscountAmount, o.TaxAmount, o.TotalAmount, nullString(o.DiscountCode),
			string(o.Status), string(o.PaymentStatus), shipping, billing, o.PlacedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting order %q: %w", o.Number, err)
		}

		batch := &pgx.Batch{}
		for i, it := range o.Items {
			batch.Queue(insertOrderItemSQL, o.ID, i, it.ProductID, it.ProductName, it.UnitPrice, it.Quantity, it.Total)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting items of order %q: %w", o.Number, err)
		}

		for _, d := range stockDemand(o.Items) {
			if err := decrementStock(ctx, tx, d); err != nil {
				return err
			}
		}

		if o.DiscountCode != "" && o.DiscountAmount.IsPositive() {
			tag, err := tx.Exec(ctx, incrementDiscountUsageSQL, o.DiscountCode)
			if err != nil {
				return fmt.Errorf("incrementing usage of %q: %w", o.DiscountCode, err)
			}
			if tag.RowsAffected() != 1 {
				return discount.ErrUsageLimitReached
			}
		}
		return nil
	})
}

// FindByNumber returns the order with its line items in checkout order.
func (r *OrderRepository) FindByNumber(ctx context.Context, number string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByNumberSQL, number)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", number, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", number, err)
	}

	rows, err = r.pool.Query(ctx, getOrderItemsSQL, o.ID)
	if err != nil {
		return nil, fmt.Errorf("getting items of order %q: %w", number, err)
	}
	o.Items, err = pgx.CollectRows(rows, scanLineItem)
	if err != nil {
		return nil, fmt.Errorf("getting items of order %q: %w", number, err)
	}
	return &o, nil
}

type demand struct {
	productID string
	name      string
	quantity  int
}

// stockDemand merges lines for the same product and sorts them by product id.
func stockDemand(items []order.LineItem) []demand {
	byID := make(map[string]*demand, len(items))
	out := make([]*demand, 0, len(items))
	for _, it := range items {
		if d, ok := byID[it.ProductID]; ok {
			d.quantity += it.Quantity
			continue
		}
		d := &demand{productID: it.ProductID, name: it.ProductName, quantity: it.Quantity}
		byID[it.ProductID] = d
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b *demand) int { return cmp.Compare(a.productID, b.productID) })

	res := make([]demand, len(out))
	for i, d := range out {
		res[i] = *d
	}
	return res
}

func decrementStock(ctx context.Context, tx pgx.Tx, d demand) error {
	tag, err := tx.Exec(ctx, decrementStockSQL, d.productID, d.quantity)
	if err != nil {
		return fmt.Errorf("decrementing stock of %q: %w", d.productID, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// Zero rows: either the product went inactive or stock ran out.
	stockErr := &order.InsufficientStockError{ProductID: d.productID, ProductName: d.name, Requested: d.quantity}
	var active bool
	err = tx.QueryRow(ctx, currentStockSQL, d.productID).Scan(&stockErr.ProductName, &stockErr.Available, &active)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return &order.ProductNotFoundError{ProductID: d.productID}
	case err != nil:
		return fmt.Errorf("reading stock of %q: %w", d.productID, err)
	case !active:
		return &order.ProductNotFoundError{ProductID: d.productID}
	}
	return stockErr
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o                 order.Order
		status, payment   string
		shipping, billing []byte
		placedAt          time.Time
	)
	err := row.Scan(
		&o.ID, &o.Number, &o.Customer.Email, &o.Customer.Name, &o.Customer.Phone,
		&o.Subtotal, &o.DiscountAmount, &o.TaxAmount, &o.TotalAmount, &o.DiscountCode,
		&status, &payment, &shipping, &billing, &placedAt,
	)
	if err != nil {
		return o, err
	}

	o.Status = order.Status(status)
	o.PaymentStatus = order.PaymentStatus(payment)
	o.PlacedAt = placedAt.UTC()
	if o.ShippingAddress, err = unmarshalAddress(shipping); err != nil {
		return o, fmt.Errorf("decoding shipping address: %w", err)
	}
	if o.BillingAddress, err = unmarshalAddress(billing); err != nil {
		return o, fmt.Errorf("decoding billing address: %w", err)
	}
	return o, nil
}

func scanLineItem(row pgx.CollectableRow) (order.LineItem, error) {
	var it order.LineItem
	err := row.Scan(&it.ProductID, &it.ProductName, &it.UnitPrice, &it.Quantity, &it.Total)
	return it, err
}

func marshalAddress(a *order.Address) ([]byte, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

func unmarshalAddress(raw []byte) (*order.Address, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var a order.Address
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
