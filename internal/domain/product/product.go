package product

import (
	"context"

	"github.com/shopspring/decimal"
)

// Product is a catalog item. Price is tax-inclusive.
type Product struct {
	ID     string
	Name   string
	SKU    string
	Price  decimal.Decimal
	Stock  int
	Active bool
}

// HasStock reports whether qty units are currently visible in stock.
func (p Product) HasStock(qty int) bool {
	return qty > 0 && p.Stock >= qty
}

// Catalog resolves product identifiers to their current price and stock.
// Implementations must only return active products.
type Catalog interface {
	LookupMany(ctx context.Context, ids []string) ([]Product, error)
}
