package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront-checkout/internal/domain/product"
)

const getActiveProductsSQL = `SELECT id::text, name, sku, price_incl_vat, stock_quantity, is_active
	FROM products WHERE id = ANY($1) AND is_active`

var _ product.Catalog = (*ProductCatalog)(nil)

// ProductCatalog implements product.Catalog backed by PostgreSQL.
type ProductCatalog struct {
	pool *pgxpool.Pool
}

// NewProductCatalog returns a ProductCatalog that uses the given pool.
func NewProductCatalog(pool *pgxpool.Pool) *ProductCatalog {
	return &ProductCatalog{pool: pool}
}

// LookupMany returns the active products among ids. Missing, inactive and
// malformed ids are silently skipped.
func (c *ProductCatalog) LookupMany(ctx context.Context, ids []string) ([]product.Product, error) {
	pids := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if pid, err := uuid.Parse(id); err == nil {
			pids = append(pids, pid)
		}
	}
	if len(pids) == 0 {
		return nil, nil
	}

	rows, err := c.pool.Query(ctx, getActiveProductsSQL, pids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	ps, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return ps, nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Price, &p.Stock, &p.Active)
	return p, err
}
