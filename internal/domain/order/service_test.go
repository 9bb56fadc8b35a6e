package order

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront-checkout/internal/domain/discount"
	"github.com/xenking/storefront-checkout/internal/domain/product"
)

// --- Mock implementations ---

type mockCatalog struct {
	mu     sync.Mutex
	byID   map[string]product.Product
	err    error
	lookup []string
}

func (m *mockCatalog) LookupMany(_ context.Context, ids []string) ([]product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookup = ids
	if m.err != nil {
		return nil, m.err
	}
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok && p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

type discountRepo struct {
	codes map[string]*discount.Code
}

func (r *discountRepo) FindByCode(_ context.Context, code string) (*discount.Code, error) {
	c, ok := r.codes[code]
	if !ok {
		return nil, discount.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// deactivatingEvaluator runs deactivate after the catalog has been read.
type deactivatingEvaluator struct {
	DiscountEvaluator
	deactivate func()
}

func (e deactivatingEvaluator) Evaluate(ctx context.Context, code string, subtotal decimal.Decimal) (discount.Discount, error) {
	e.deactivate()
	return e.DiscountEvaluator.Evaluate(ctx, code, subtotal)
}

type errEvaluator struct{ err error }

func (e errEvaluator) Evaluate(context.Context, string, decimal.Decimal) (discount.Discount, error) {
	return discount.Discount{}, e.err
}

func (e errEvaluator) Validate(context.Context, string, decimal.Decimal) (*discount.Quote, error) {
	return nil, e.err
}

// memoryOrders applies the same conditional updates as the Postgres writer
// under a single mutex.
type memoryOrders struct {
	mu       sync.Mutex
	catalog  *mockCatalog
	codes    *discountRepo
	orders   map[string]*Order
	creates  int
	err      error
	errOnce  error
	findErr  error
	numbered []string
}

func newMemoryOrders(c *mockCatalog, codes *discountRepo) *memoryOrders {
	return &memoryOrders{catalog: c, codes: codes, orders: make(map[string]*Order)}
}

func (m *memoryOrders) Create(_ context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.creates++
	if m.err != nil {
		return m.err
	}
	if m.errOnce != nil {
		err := m.errOnce
		m.errOnce = nil
		return err
	}

	m.catalog.mu.Lock()
	defer m.catalog.mu.Unlock()

	need := make(map[string]int)
	for _, it := range o.Items {
		need[it.ProductID] += it.Quantity
	}
	for id, qty := range need {
		p, ok := m.catalog.byID[id]
		if !ok || !p.Active {
			return &ProductNotFoundError{ProductID: id}
		}
		if p.Stock < qty {
			return &InsufficientStockError{ProductID: id, ProductName: p.Name, Requested: qty, Available: p.Stock}
		}
	}
	if o.DiscountCode != "" {
		c := m.codes.codes[o.DiscountCode]
		if c.UsageLimit != nil && c.TimesUsed >= *c.UsageLimit {
			return discount.ErrUsageLimitReached
		}
		c.TimesUsed++
	}
	for id, qty := range need {
		p := m.catalog.byID[id]
		p.Stock -= qty
		m.catalog.byID[id] = p
	}
	m.orders[o.Number] = o
	m.numbered = append(m.numbered, o.Number)
	return nil
}

func (m *memoryOrders) FindByNumber(_ context.Context, number string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findErr != nil {
		return nil, m.findErr
	}
	o, ok := m.orders[number]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

type mapCache struct {
	data map[string]*Order
	sets int
}

func (c *mapCache) Get(_ context.Context, number string) (*Order, error) {
	return c.data[number], nil
}

func (c *mapCache) Set(_ context.Context, o *Order) error {
	c.sets++
	c.data[o.Number] = o
	return nil
}

// --- Helpers ---

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func dp(v string) *decimal.Decimal {
	x := d(v)
	return &x
}

func ip(v int) *int { return &v }

type fixture struct {
	catalog *mockCatalog
	codes   *discountRepo
	orders  *memoryOrders
	svc     *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	catalog := &mockCatalog{byID: map[string]product.Product{
		"SKU-A":    {ID: "SKU-A", Name: "Clip-In Hair Extensions - Honey Brown", Price: d("977.50"), Stock: 25, Active: true},
		"SKU-B":    {ID: "SKU-B", Name: "Silk Bonnet", Price: d("207.00"), Stock: 1, Active: true},
		"RETIRED":  {ID: "RETIRED", Name: "Old Wig", Price: d("100.00"), Stock: 10, Active: false},
		"SOLD-OUT": {ID: "SOLD-OUT", Name: "Lace Front Wig", Price: d("1725.00"), Stock: 0, Active: true},
	}}
	codes := &discountRepo{codes: map[string]*discount.Code{
		"SAVE10": {Code: "SAVE10", Type: discount.TypePercentage, Value: d("10"), MinOrderValue: dp("500"), Active: true},
		"ONCE":   {Code: "ONCE", Type: discount.TypeFixed, Value: d("50"), UsageLimit: ip(1), Active: true},
		"USEDUP": {Code: "USEDUP", Type: discount.TypeFixed, Value: d("50"), UsageLimit: ip(2), TimesUsed: 2, Active: true},
	}}
	orders := newMemoryOrders(catalog, codes)

	svc, err := NewService(Config{TaxRate: d("0.15")}, catalog, discount.NewEvaluator(codes), orders, nil)
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }

	return &fixture{catalog: catalog, codes: codes, orders: orders, svc: svc}
}

func validRequest(items ...CartLine) CreateOrderRequest {
	return CreateOrderRequest{
		Customer: Customer{Email: "Thandi@Example.com ", Name: "Thandi M", Phone: "+27 82 000 0000"},
		Items:    items,
		ShippingAddress: &Address{
			Line1: "1 Long Street", City: "Cape Town", PostalCode: "8001", Country: "ZA",
		},
	}
}

// --- Tests ---

func TestCreateOrder_NoDiscount(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.CreateOrder(context.Background(), validRequest(CartLine{ProductID: "SKU-A", Quantity: 2}))
	require.NoError(t, err)

	o := res.Order
	assert.True(t, d("1955.00").Equal(o.Subtotal), "subtotal %s", o.Subtotal)
	assert.True(t, decimal.Zero.Equal(o.DiscountAmount))
	assert.True(t, d("1955.00").Equal(o.TotalAmount))
	assert.True(t, d("255.00").Equal(o.TaxAmount), "tax %s", o.TaxAmount)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentPending, o.PaymentStatus)
	assert.True(t, strings.HasPrefix(o.Number, "ORD-"))
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, "thandi@example.com", o.Customer.Email)
	assert.Empty(t, o.DiscountCode)

	require.Len(t, o.Items, 1)
	assert.Equal(t, "Clip-In Hair Extensions - Honey Brown", o.Items[0].ProductName)
	assert.True(t, d("977.50").Equal(o.Items[0].UnitPrice))
	assert.True(t, d("1955.00").Equal(o.Items[0].Total))

	assert.Equal(t, 23, f.catalog.byID["SKU-A"].Stock)
}

func TestCreateOrder_WithPercentageDiscount(t *testing.T) {
	f := newFixture(t)

	req := validRequest(CartLine{ProductID: "SKU-A", Quantity: 2})
	req.DiscountCode = "save10"

	res, err := f.svc.CreateOrder(context.Background(), req)
	require.NoError(t, err)

	o := res.Order
	assert.True(t, d("195.50").Equal(o.DiscountAmount), "discount %s", o.DiscountAmount)
	assert.True(t, d("1759.50").Equal(o.TotalAmount), "total %s", o.TotalAmount)
	assert.True(t, d("229.50").Equal(o.TaxAmount), "tax %s", o.TaxAmount)
	assert.Equal(t, "SAVE10", o.DiscountCode)
	assert.True(t, res.Discount.Applied())
	assert.Equal(t, 1, f.codes.codes["SAVE10"].TimesUsed)
}

func TestCreateOrder_DiscountIncrementedOncePerOrder(t *testing.T) {
	f := newFixture(t)
	f.catalog.byID["SKU-B"] = product.Product{ID: "SKU-B", Name: "Silk Bonnet", Price: d("207.00"), Stock: 10, Active: true}

	req := validRequest(
		CartLine{ProductID: "SKU-A", Quantity: 1},
		CartLine{ProductID: "SKU-B", Quantity: 2},
		CartLine{ProductID: "SKU-A", Quantity: 1},
	)
	req.DiscountCode = "SAVE10"

	res, err := f.svc.CreateOrder(context.Background(), req)
	require.NoError(t, err)

	assert.Len(t, res.Order.Items, 3)
	assert.Equal(t, 1, f.codes.codes["SAVE10"].TimesUsed)
	assert.Equal(t, 23, f.catalog.byID["SKU-A"].Stock)
	assert.Equal(t, 8, f.catalog.byID["SKU-B"].Stock)
}

func TestCreateOrder_IneligibleDiscountFallsBackToFullPrice(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		items      []CartLine
		wantReason error
	}{
		{name: "unknown code", code: "BOGUS", items: []CartLine{{ProductID: "SKU-A", Quantity: 1}}, wantReason: discount.ErrNotFound},
		{name: "usage exhausted", code: "USEDUP", items: []CartLine{{ProductID: "SKU-A", Quantity: 1}}, wantReason: discount.ErrUsageLimitReached},
		{name: "below minimum", code: "SAVE10", items: []CartLine{{ProductID: "SKU-B", Quantity: 1}}, wantReason: discount.ErrMinimumNotMet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := validRequest(tt.items...)
			req.DiscountCode = tt.code

			res, err := f.svc.CreateOrder(context.Background(), req)
			require.NoError(t, err)

			assert.True(t, res.Order.DiscountAmount.IsZero())
			assert.True(t, res.Order.TotalAmount.Equal(res.Order.Subtotal))
			assert.Empty(t, res.Order.DiscountCode)
			require.ErrorIs(t, res.Discount.Reason, tt.wantReason)
		})
	}
}

func TestCreateOrder_DiscountExhaustedAtCommit(t *testing.T) {
	f := newFixture(t)
	f.orders.errOnce = discount.ErrUsageLimitReached

	req := validRequest(CartLine{ProductID: "SKU-A", Quantity: 1})
	req.DiscountCode = "ONCE"

	res, err := f.svc.CreateOrder(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 2, f.orders.creates)
	assert.True(t, res.Order.DiscountAmount.IsZero())
	assert.True(t, d("977.50").Equal(res.Order.TotalAmount))
	assert.Empty(t, res.Order.DiscountCode)
	require.ErrorIs(t, res.Discount.Reason, discount.ErrUsageLimitReached)
	assert.Equal(t, 0, f.codes.codes["ONCE"].TimesUsed)
}

func TestCreateOrder_Validation(t *testing.T) {
	tests := []struct {
		name      string
		req       CreateOrderRequest
		wantField string
	}{
		{
			name:      "no items",
			req:       CreateOrderRequest{Customer: Customer{Email: "a@b.co", Name: "A"}},
			wantField: "items",
		},
		{
			name:      "empty items",
			req:       CreateOrderRequest{Customer: Customer{Email: "a@b.co", Name: "A"}, Items: []CartLine{}},
			wantField: "items",
		},
		{
			name:      "missing email",
			req:       CreateOrderRequest{Customer: Customer{Name: "A"}, Items: []CartLine{{ProductID: "SKU-A", Quantity: 1}}},
			wantField: "customer.email",
		},
		{
			name:      "bad email",
			req:       CreateOrderRequest{Customer: Customer{Email: "nope", Name: "A"}, Items: []CartLine{{ProductID: "SKU-A", Quantity: 1}}},
			wantField: "customer.email",
		},
		{
			name:      "missing name",
			req:       CreateOrderRequest{Customer: Customer{Email: "a@b.co"}, Items: []CartLine{{ProductID: "SKU-A", Quantity: 1}}},
			wantField: "customer.name",
		},
		{
			name:      "blank name",
			req:       CreateOrderRequest{Customer: Customer{Email: "a@b.co", Name: "   "}, Items: []CartLine{{ProductID: "SKU-A", Quantity: 1}}},
			wantField: "customer.name",
		},
		{
			name:      "blank email",
			req:       CreateOrderRequest{Customer: Customer{Email: " \t ", Name: "A"}, Items: []CartLine{{ProductID: "SKU-A", Quantity: 1}}},
			wantField: "customer.email",
		},
		{
			name:      "zero quantity",
			req:       CreateOrderRequest{Customer: Customer{Email: "a@b.co", Name: "A"}, Items: []CartLine{{ProductID: "SKU-A", Quantity: 0}}},
			wantField: "items[0].quantity",
		},
		{
			name:      "missing product id",
			req:       CreateOrderRequest{Customer: Customer{Email: "a@b.co", Name: "A"}, Items: []CartLine{{Quantity: 1}}},
			wantField: "items[0].product_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.svc.CreateOrder(context.Background(), tt.req)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.Fields, tt.wantField)

			var cErr *CheckoutError
			require.ErrorAs(t, err, &cErr)
			assert.Equal(t, StageValidating, cErr.Stage)
			assert.Zero(t, f.orders.creates)
		})
	}
}

func TestCreateOrder_ProductNotFound(t *testing.T) {
	for _, id := range []string{"MISSING", "RETIRED"} {
		t.Run(id, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.svc.CreateOrder(context.Background(), validRequest(
				CartLine{ProductID: "SKU-A", Quantity: 1},
				CartLine{ProductID: id, Quantity: 1},
			))

			var pnf *ProductNotFoundError
			require.ErrorAs(t, err, &pnf)
			assert.Equal(t, id, pnf.ProductID)
			assert.Zero(t, f.orders.creates)
			assert.Equal(t, 25, f.catalog.byID["SKU-A"].Stock)
		})
	}
}

func TestCreateOrder_AdvisoryStockCheck(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateOrder(context.Background(), validRequest(CartLine{ProductID: "SOLD-OUT", Quantity: 1}))

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "SOLD-OUT", stockErr.ProductID)
	assert.Equal(t, "insufficient stock for Lace Front Wig", stockErr.Error())
	assert.Zero(t, f.orders.creates)
}

func TestCreateOrder_AdvisoryStockCheckSumsDuplicateLines(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateOrder(context.Background(), validRequest(
		CartLine{ProductID: "SKU-B", Quantity: 1},
		CartLine{ProductID: "SKU-B", Quantity: 1},
	))

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 2, stockErr.Requested)
	assert.Equal(t, 1, stockErr.Available)
	assert.Equal(t, []string{"SKU-B"}, f.catalog.lookup)
}

func TestCreateOrder_ConcurrentLastUnit(t *testing.T) {
	f := newFixture(t)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		success  int
		shortage int
	)
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateOrder(context.Background(), validRequest(CartLine{ProductID: "SKU-B", Quantity: 1}))

			mu.Lock()
			defer mu.Unlock()
			var stockErr *InsufficientStockError
			switch {
			case err == nil:
				success++
			case errors.As(err, &stockErr):
				shortage++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, 1, shortage)
	assert.Equal(t, 0, f.catalog.byID["SKU-B"].Stock)
}

func TestCreateOrder_CommitErrors(t *testing.T) {
	f := newFixture(t)
	f.orders.err = errors.New("db write failed")

	_, err := f.svc.CreateOrder(context.Background(), validRequest(CartLine{ProductID: "SKU-A", Quantity: 1}))

	var pErr *PersistenceError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, "create order", pErr.Op)

	var cErr *CheckoutError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, StageCommitting, cErr.Stage)
	assert.Contains(t, err.Error(), "checkout failed at committing")
}

func TestCreateOrder_AuthoritativeStockCheck(t *testing.T) {
	f := newFixture(t)
	f.orders.err = &InsufficientStockError{ProductID: "SKU-A", Requested: 1}

	_, err := f.svc.CreateOrder(context.Background(), validRequest(CartLine{ProductID: "SKU-A", Quantity: 1}))

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	var cErr *CheckoutError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, StageCommitting, cErr.Stage)
}

func TestCreateOrder_ProductDeactivatedBeforeCommit(t *testing.T) {
	f := newFixture(t)

	// SKU-A passes the advisory check, then goes inactive before the writer runs.
	req := validRequest(CartLine{ProductID: "SKU-A", Quantity: 1})
	f.svc.discounts = deactivatingEvaluator{
		DiscountEvaluator: f.svc.discounts,
		deactivate: func() {
			f.catalog.mu.Lock()
			p := f.catalog.byID["SKU-A"]
			p.Active = false
			f.catalog.byID["SKU-A"] = p
			f.catalog.mu.Unlock()
		},
	}

	_, err := f.svc.CreateOrder(context.Background(), req)

	var nfErr *ProductNotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "SKU-A", nfErr.ProductID)
	var stockErr *InsufficientStockError
	assert.False(t, errors.As(err, &stockErr))
	var cErr *CheckoutError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, StageCommitting, cErr.Stage)
	assert.Equal(t, 25, f.catalog.byID["SKU-A"].Stock)
	assert.Empty(t, f.orders.orders)
}

func TestNewService_TaxRateRequired(t *testing.T) {
	for _, rate := range []string{"0", "-0.15"} {
		t.Run(rate, func(t *testing.T) {
			_, err := NewService(Config{TaxRate: d(rate)}, &mockCatalog{}, errEvaluator{}, &memoryOrders{}, nil)
			require.ErrorContains(t, err, "must be positive")
		})
	}

	_, err := NewService(Config{}, &mockCatalog{}, errEvaluator{}, &memoryOrders{}, nil)
	require.Error(t, err)
}

func TestCreateOrder_LookupErrors(t *testing.T) {
	f := newFixture(t)
	f.catalog.err = errors.New("connection refused")

	_, err := f.svc.CreateOrder(context.Background(), validRequest(CartLine{ProductID: "SKU-A", Quantity: 1}))

	var pErr *PersistenceError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, "lookup products", pErr.Op)
}

func TestCreateOrder_DiscountLookupError(t *testing.T) {
	f := newFixture(t)
	f.svc.discounts = errEvaluator{err: errors.New("timeout")}

	req := validRequest(CartLine{ProductID: "SKU-A", Quantity: 1})
	req.DiscountCode = "SAVE10"
	_, err := f.svc.CreateOrder(context.Background(), req)

	var pErr *PersistenceError
	require.ErrorAs(t, err, &pErr)
	var cErr *CheckoutError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, StagePricing, cErr.Stage)
}

func TestTrackOrder_RoundTrip(t *testing.T) {
	f := newFixture(t)

	req := validRequest(CartLine{ProductID: "SKU-A", Quantity: 2})
	req.DiscountCode = "SAVE10"
	res, err := f.svc.CreateOrder(context.Background(), req)
	require.NoError(t, err)

	got, err := f.svc.TrackOrder(context.Background(), res.Order.Number)
	require.NoError(t, err)
	assert.True(t, res.Order.TotalAmount.Equal(got.TotalAmount))
	assert.Equal(t, res.Order.Items, got.Items)
}

func TestTrackOrder_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.TrackOrder(context.Background(), "ORD-0-NOPE")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.TrackOrder(context.Background(), " ")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestTrackOrder_Cache(t *testing.T) {
	f := newFixture(t)
	cache := &mapCache{data: map[string]*Order{}}
	f.svc.cache = cache

	res, err := f.svc.CreateOrder(context.Background(), validRequest(CartLine{ProductID: "SKU-A", Quantity: 1}))
	require.NoError(t, err)

	_, err = f.svc.TrackOrder(context.Background(), res.Order.Number)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	// Second lookup is served from the cache even if the repository fails.
	f.orders.findErr = errors.New("db down")
	got, err := f.svc.TrackOrder(context.Background(), res.Order.Number)
	require.NoError(t, err)
	assert.Equal(t, res.Order.Number, got.Number)
	assert.Equal(t, 1, cache.sets)
}

func TestValidateDiscount(t *testing.T) {
	f := newFixture(t)

	q, err := f.svc.ValidateDiscount(context.Background(), "SAVE10", d("1955.00"))
	require.NoError(t, err)
	assert.True(t, d("195.50").Equal(q.DiscountAmount))
	assert.True(t, d("1759.50").Equal(q.FinalAmount))
	assert.Equal(t, 0, f.codes.codes["SAVE10"].TimesUsed)

	_, err = f.svc.ValidateDiscount(context.Background(), "USEDUP", d("100"))
	require.ErrorIs(t, err, discount.ErrUsageLimitReached)

	_, err = f.svc.ValidateDiscount(context.Background(), "SAVE10", d("100"))
	require.ErrorIs(t, err, discount.ErrMinimumNotMet)

	_, err = f.svc.ValidateDiscount(context.Background(), "NOPE", d("100"))
	require.ErrorIs(t, err, discount.ErrNotFound)

	var vErr *ValidationError
	_, err = f.svc.ValidateDiscount(context.Background(), "SAVE10", d("-1"))
	require.ErrorAs(t, err, &vErr)
	_, err = f.svc.ValidateDiscount(context.Background(), "", d("1"))
	require.ErrorAs(t, err, &vErr)
}

func TestValidateDiscount_LookupError(t *testing.T) {
	f := newFixture(t)
	f.svc.discounts = errEvaluator{err: errors.New("timeout")}

	_, err := f.svc.ValidateDiscount(context.Background(), "SAVE10", d("100"))

	var pErr *PersistenceError
	require.ErrorAs(t, err, &pErr)
}

func TestNewNumber_Unique(t *testing.T) {
	now := time.Now()
	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		n, err := NewNumber(now)
		require.NoError(t, err)
		require.Len(t, strings.Split(n, "-"), 3)
		_, dup := seen[n]
		require.False(t, dup, "duplicate order number %s", n)
		seen[n] = struct{}{}
	}
}
