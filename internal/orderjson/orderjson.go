// Package orderjson encodes orders with jx. The same representation is used
// for API responses, cached orders and event payloads. Money is written as a
// string with two decimal places.
package orderjson

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-checkout/internal/domain/order"
)

// Encode writes o as a JSON object.
func Encode(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("order_number")
	e.Str(o.Number)
	e.FieldStart("customer")
	encodeCustomer(e, o.Customer)
	e.FieldStart("subtotal")
	Money(e, o.Subtotal)
	e.FieldStart("discount_amount")
	Money(e, o.DiscountAmount)
	e.FieldStart("tax_amount")
	Money(e, o.TaxAmount)
	e.FieldStart("total_amount")
	Money(e, o.TotalAmount)
	if o.DiscountCode != "" {
		e.FieldStart("discount_code")
		e.Str(o.DiscountCode)
	}
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("payment_status")
	e.Str(string(o.PaymentStatus))
	if o.ShippingAddress != nil {
		e.FieldStart("shipping_address")
		encodeAddress(e, o.ShippingAddress)
	}
	if o.BillingAddress != nil {
		e.FieldStart("billing_address")
		encodeAddress(e, o.BillingAddress)
	}
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range o.Items {
		EncodeLineItem(e, it)
	}
	e.ArrEnd()
	e.FieldStart("created_at")
	e.Str(o.PlacedAt.UTC().Format(time.RFC3339Nano))
	e.ObjEnd()
}

// EncodeLineItem writes a single line item object.
func EncodeLineItem(e *jx.Encoder, it order.LineItem) {
	e.ObjStart()
	e.FieldStart("product_id")
	e.Str(it.ProductID)
	e.FieldStart("product_name")
	e.Str(it.ProductName)
	e.FieldStart("unit_price")
	Money(e, it.UnitPrice)
	e.FieldStart("quantity")
	e.Int(it.Quantity)
	e.FieldStart("total_price")
	Money(e, it.Total)
	e.ObjEnd()
}

// Money writes d as a string rounded to cents.
func Money(e *jx.Encoder, d decimal.Decimal) {
	e.Str(d.StringFixed(2))
}

// Marshal returns the JSON encoding of o.
func Marshal(o *order.Order) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	Encode(e, o)
	return append([]byte(nil), e.Bytes()...)
}

// Unmarshal decodes an order previously produced by Marshal.
func Unmarshal(data []byte) (*order.Order, error) {
	d := jx.DecodeBytes(data)
	o, err := Decode(d)
	if err != nil {
		return nil, errors.Wrap(err, "decode order")
	}
	return o, nil
}

// Decode reads an order object. Unknown fields are skipped.
func Decode(d *jx.Decoder) (*order.Order, error) {
	o := &order.Order{}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			o.ID, err = d.Str()
		case "order_number":
			o.Number, err = d.Str()
		case "customer":
			o.Customer, err = decodeCustomer(d)
		case "subtotal":
			o.Subtotal, err = DecodeMoney(d)
		case "discount_amount":
			o.DiscountAmount, err = DecodeMoney(d)
		case "tax_amount":
			o.TaxAmount, err = DecodeMoney(d)
		case "total_amount":
			o.TotalAmount, err = DecodeMoney(d)
		case "discount_code":
			o.DiscountCode, err = d.Str()
		case "status":
			var s string
			s, err = d.Str()
			o.Status = order.Status(s)
		case "payment_status":
			var s string
			s, err = d.Str()
			o.PaymentStatus = order.PaymentStatus(s)
		case "shipping_address":
			o.ShippingAddress, err = DecodeAddress(d)
		case "billing_address":
			o.BillingAddress, err = DecodeAddress(d)
		case "items":
			err = d.Arr(func(d *jx.Decoder) error {
				it, err := decodeLineItem(d)
				if err != nil {
					return err
				}
				o.Items = append(o.Items, it)
				return nil
			})
		case "created_at":
			var s string
			if s, err = d.Str(); err == nil {
				o.PlacedAt, err = time.Parse(time.RFC3339Nano, s)
			}
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// DecodeMoney reads an amount written either as a JSON string or number.
func DecodeMoney(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(n.String())
	default:
		return decimal.Zero, errors.Errorf("unexpected %s for amount", d.Next())
	}
}

// DecodeAddress reads an address object. A JSON null yields nil.
func DecodeAddress(d *jx.Decoder) (*order.Address, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	a := &order.Address{}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "line1":
			a.Line1, err = d.Str()
		case "line2":
			a.Line2, err = d.Str()
		case "city":
			a.City, err = d.Str()
		case "province":
			a.Province, err = d.Str()
		case "postal_code":
			a.PostalCode, err = d.Str()
		case "country":
			a.Country, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func encodeCustomer(e *jx.Encoder, c order.Customer) {
	e.ObjStart()
	e.FieldStart("email")
	e.Str(c.Email)
	e.FieldStart("name")
	e.Str(c.Name)
	if c.Phone != "" {
		e.FieldStart("phone")
		e.Str(c.Phone)
	}
	e.ObjEnd()
}

func decodeCustomer(d *jx.Decoder) (order.Customer, error) {
	var c order.Customer
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "email":
			c.Email, err = d.Str()
		case "name":
			c.Name, err = d.Str()
		case "phone":
			c.Phone, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	return c, err
}

func encodeAddress(e *jx.Encoder, a *order.Address) {
	e.ObjStart()
	field := func(name, v string) {
		if v != "" {
			e.FieldStart(name)
			e.Str(v)
		}
	}
	field("line1", a.Line1)
	field("line2", a.Line2)
	field("city", a.City)
	field("province", a.Province)
	field("postal_code", a.PostalCode)
	field("country", a.Country)
	e.ObjEnd()
}

func decodeLineItem(d *jx.Decoder) (order.LineItem, error) {
	var it order.LineItem
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "product_id":
			it.ProductID, err = d.Str()
		case "product_name":
			it.ProductName, err = d.Str()
		case "unit_price":
			it.UnitPrice, err = DecodeMoney(d)
		case "quantity":
			it.Quantity, err = d.Int()
		case "total_price":
			it.Total, err = DecodeMoney(d)
		default:
			err = d.Skip()
		}
		return err
	})
	return it, err
}
