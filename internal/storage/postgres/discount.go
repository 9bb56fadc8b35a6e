package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-checkout/internal/domain/discount"
)

const getDiscountCodeSQL = `SELECT code, description, discount_type, discount_value,
		min_order_value, max_discount, usage_limit, times_used, starts_at, expires_at, is_active
	FROM discount_codes WHERE code = UPPER($1)`

// upsertDiscountCodeSQL leaves times_used untouched so re-importing a code
// does not reset its usage.
const upsertDiscountCodeSQL = `INSERT INTO discount_codes (code, description, discount_type, discount_value,
		min_order_value, max_discount, usage_limit, starts_at, expires_at, is_active)
	VALUES (UPPER($1), $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (code) DO UPDATE SET
		description = EXCLUDED.description,
		discount_type = EXCLUDED.discount_type,
		discount_value = EXCLUDED.discount_value,
		min_order_value = EXCLUDED.min_order_value,
		max_discount = EXCLUDED.max_discount,
		usage_limit = EXCLUDED.usage_limit,
		starts_at = EXCLUDED.starts_at,
		expires_at = EXCLUDED.expires_at,
		is_active = EXCLUDED.is_active`

var _ discount.Repository = (*DiscountRepository)(nil)

// DiscountRepository implements discount.Repository backed by PostgreSQL.
type DiscountRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountRepository returns a DiscountRepository that uses the given pool.
func NewDiscountRepository(pool *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

// FindByCode looks up a discount code case-insensitively. Inactive codes are
// returned as well so the evaluator can report them; a missing code yields
// discount.ErrNotFound.
func (r *DiscountRepository) FindByCode(ctx context.Context, code string) (*discount.Code, error) {
	rows, err := r.pool.Query(ctx, getDiscountCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding discount code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanDiscountCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, discount.ErrNotFound
		}
		return nil, fmt.Errorf("finding discount code %q: %w", code, err)
	}
	return &c, nil
}

// UpsertCodes inserts or updates codes in one transaction.
func (r *DiscountRepository) UpsertCodes(ctx context.Context, codes []discount.Code) error {
	if len(codes) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, c := range codes {
			batch.Queue(upsertDiscountCodeSQL,
				c.Code, c.Description, string(c.Type), c.Value,
				c.MinOrderValue, c.MaxDiscount, c.UsageLimit, c.StartsAt, c.ExpiresAt, c.Active,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("upserting %d discount codes: %w", len(codes), err)
		}
		return nil
	})
}

func scanDiscountCode(row pgx.CollectableRow) (discount.Code, error) {
	var (
		c          discount.Code
		typ        string
		minOrder   decimal.NullDecimal
		maxAmount  decimal.NullDecimal
		usageLimit pgtype.Int4
		startsAt   pgtype.Timestamptz
		expiresAt  pgtype.Timestamptz
	)
	err := row.Scan(
		&c.Code, &c.Description, &typ, &c.Value,
		&minOrder, &maxAmount, &usageLimit, &c.TimesUsed, &startsAt, &expiresAt, &c.Active,
	)
	if err != nil {
		return c, err
	}

	c.Type = discount.Type(typ)
	if minOrder.Valid {
		c.MinOrderValue = &minOrder.Decimal
	}
	if maxAmount.Valid {
		c.MaxDiscount = &maxAmount.Decimal
	}
	if usageLimit.Valid {
		limit := int(usageLimit.Int32)
		c.UsageLimit = &limit
	}
	if startsAt.Valid {
		c.StartsAt = &startsAt.Time
	}
	if expiresAt.Valid {
		c.ExpiresAt = &expiresAt.Time
	}
	return c, nil
}
