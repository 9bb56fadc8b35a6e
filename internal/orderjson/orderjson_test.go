package orderjson

import (
	"testing"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront-checkout/internal/domain/order"
)

func sampleOrder() *order.Order {
	return &order.Order{
		ID:             "5f0c7c1e-8d7b-4f43-9d0b-1c2f3a4b5c6d",
		Number:         "ORD-1718452800000-ABCDEFGHI",
		Customer:       order.Customer{Email: "thandi@example.com", Name: "Thandi M"},
		Subtotal:       decimal.RequireFromString("1955"),
		DiscountAmount: decimal.RequireFromString("195.5"),
		TaxAmount:      decimal.RequireFromString("229.5"),
		TotalAmount:    decimal.RequireFromString("1759.5"),
		DiscountCode:   "SAVE10",
		Status:         order.StatusPending,
		PaymentStatus:  order.PaymentPending,
		ShippingAddress: &order.Address{
			Line1: "1 Long Street", City: "Cape Town", PostalCode: "8001", Country: "ZA",
		},
		Items: []order.LineItem{{
			ProductID:   "a1",
			ProductName: "Clip-In Hair Extensions - Honey Brown",
			UnitPrice:   decimal.RequireFromString("977.5"),
			Quantity:    2,
			Total:       decimal.RequireFromString("1955"),
		}},
		PlacedAt: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestMarshal_MoneyAsFixedStrings(t *testing.T) {
	raw := string(Marshal(sampleOrder()))

	assert.Contains(t, raw, `"subtotal":"1955.00"`)
	assert.Contains(t, raw, `"discount_amount":"195.50"`)
	assert.Contains(t, raw, `"tax_amount":"229.50"`)
	assert.Contains(t, raw, `"unit_price":"977.50"`)
	assert.Contains(t, raw, `"created_at":"2025-06-15T12:00:00Z"`)
	assert.NotContains(t, raw, "billing_address")
	assert.NotContains(t, raw, "phone")
}

func TestUnmarshal_RestoresOrder(t *testing.T) {
	in := sampleOrder()

	out, err := Unmarshal(Marshal(in))
	require.NoError(t, err)

	assert.Equal(t, in.Number, out.Number)
	assert.True(t, in.TotalAmount.Equal(out.TotalAmount))
	assert.Equal(t, in.ShippingAddress, out.ShippingAddress)
	assert.Nil(t, out.BillingAddress)
	require.Len(t, out.Items, 1)
	assert.True(t, in.Items[0].UnitPrice.Equal(out.Items[0].UnitPrice))
	assert.True(t, in.PlacedAt.Equal(out.PlacedAt))
}

func TestDecodeMoney(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: `"19.99"`, want: "19.99"},
		{input: `250`, want: "250"},
		{input: `12.5`, want: "12.5"},
		{input: `"abc"`, wantErr: true},
		{input: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := DecodeMoney(jx.DecodeStr(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestDecodeAddress_Null(t *testing.T) {
	a, err := DecodeAddress(jx.DecodeStr(`null`))
	require.NoError(t, err)
	assert.Nil(t, a)
}
