package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-checkout/internal/domain/discount"
)

// Columns of an import file, in order. Trailing columns may be omitted.
var columns = []string{
	"code", "type", "value", "min_order_value", "max_discount",
	"usage_limit", "starts_at", "expires_at", "description",
}

const (
	minCodeLen = 3
	maxCodeLen = 64
)

// ParseRecord converts one CSV record into an active discount code. Empty
// optional columns leave the matching constraint unset.
func ParseRecord(rec []string) (discount.Code, error) {
	if len(rec) < 3 {
		return discount.Code{}, errors.Errorf("want at least 3 columns, got %d", len(rec))
	}
	if len(rec) > len(columns) {
		return discount.Code{}, errors.Errorf("want at most %d columns, got %d", len(columns), len(rec))
	}
	field := func(i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	c := discount.Code{
		Code:        strings.ToUpper(field(0)),
		Type:        discount.Type(strings.ToLower(field(1))),
		Description: field(8),
		Active:      true,
	}
	if n := len(c.Code); n < minCodeLen || n > maxCodeLen {
		return c, errors.Errorf("code length %d out of range [%d, %d]", n, minCodeLen, maxCodeLen)
	}
	if !c.Type.Valid() {
		return c, errors.Errorf("unknown discount type %q", field(1))
	}

	var err error
	if c.Value, err = decimal.NewFromString(field(2)); err != nil {
		return c, errors.Wrap(err, "value")
	}
	if c.Value.IsNegative() {
		return c, errors.New("value must not be negative")
	}
	if c.Type == discount.TypePercentage && c.Value.GreaterThan(decimal.NewFromInt(100)) {
		return c, errors.New("percentage must not exceed 100")
	}
	if c.MinOrderValue, err = optDecimal(field(3)); err != nil {
		return c, errors.Wrap(err, "min_order_value")
	}
	if c.MaxDiscount, err = optDecimal(field(4)); err != nil {
		return c, errors.Wrap(err, "max_discount")
	}
	if s := field(5); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 0 {
			return c, errors.Errorf("usage_limit %q is not a non-negative integer", s)
		}
		c.UsageLimit = &limit
	}
	if c.StartsAt, err = optTime(field(6)); err != nil {
		return c, errors.Wrap(err, "starts_at")
	}
	if c.ExpiresAt, err = optTime(field(7)); err != nil {
		return c, errors.Wrap(err, "expires_at")
	}
	if c.StartsAt != nil && c.ExpiresAt != nil && c.ExpiresAt.Before(*c.StartsAt) {
		return c, errors.New("expires_at before starts_at")
	}
	return c, nil
}

// isHeader reports whether rec is the optional header row.
func isHeader(rec []string) bool {
	return len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), columns[0])
}

func optDecimal(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// optTime accepts RFC 3339 timestamps or plain dates (midnight UTC).
func optTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, errors.Errorf("%q is neither RFC 3339 nor YYYY-MM-DD", s)
	}
	return &t, nil
}
