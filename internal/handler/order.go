package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/xenking/storefront-checkout/internal/domain/order"
	"github.com/xenking/storefront-checkout/internal/orderjson"
)

// CreateOrder handles POST /api/orders.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := decodeCreateOrder(jx.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes), 512))
	if err != nil {
		writeError(w, badBody(err))
		return
	}

	if h.checkoutTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.checkoutTimeout)
		defer cancel()
	}

	res, err := h.checkout.CreateOrder(ctx, req)
	h.recordOutcome(ctx, err)
	if err != nil {
		writeError(w, mapError(ctx, err, "Failed to create order"))
		return
	}

	o := res.Order
	lg := zctx.From(ctx)
	lg.Info("Order created",
		zap.String("order_number", o.Number),
		zap.String("total", o.TotalAmount.StringFixed(2)),
		zap.Int("items", len(o.Items)),
	)
	if res.Discount.Reason != nil {
		lg.Debug("Discount not applied", zap.String("code", res.Discount.Code), zap.Error(res.Discount.Reason))
	}
	if h.events != nil {
		if err := h.events.PublishOrderCreated(ctx, o); err != nil {
			lg.Warn("Publish order.created failed", zap.String("order_number", o.Number), zap.Error(err))
		}
	}

	writeData(w, http.StatusCreated, "Order created successfully", func(e *jx.Encoder) {
		encodeCreatedOrder(e, res)
	})
}

// TrackOrder handles GET /api/orders/track/{number}.
func (h *Handler) TrackOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.checkout.TrackOrder(r.Context(), r.PathValue("number"))
	if err != nil {
		writeError(w, mapError(r.Context(), err, "Failed to track order"))
		return
	}
	writeData(w, http.StatusOK, "", func(e *jx.Encoder) {
		encodeTrackedOrder(e, o)
	})
}

func (h *Handler) recordOutcome(ctx context.Context, err error) {
	outcome, stage := "completed", string(order.StageCompleted)
	var cErr *order.CheckoutError
	if errors.As(err, &cErr) {
		outcome, stage = cErr.Stage.Outcome(), string(cErr.Stage)
	} else if err != nil {
		outcome, stage = "failed", "unknown"
	}
	h.outcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("stage", stage),
	))
}

func decodeCreateOrder(d *jx.Decoder) (order.CreateOrderRequest, error) {
	var req order.CreateOrderRequest
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "customer_email":
			req.Customer.Email, err = optStr(d)
		case "customer_name":
			req.Customer.Name, err = optStr(d)
		case "customer_phone":
			req.Customer.Phone, err = optStr(d)
		case "items":
			req.Items = []order.CartLine{}
			err = d.Arr(func(d *jx.Decoder) error {
				line, err := decodeCartLine(d)
				if err != nil {
					return err
				}
				req.Items = append(req.Items, line)
				return nil
			})
		case "shipping_address":
			req.ShippingAddress, err = orderjson.DecodeAddress(d)
		case "billing_address":
			req.BillingAddress, err = orderjson.DecodeAddress(d)
		case "discount_code":
			req.DiscountCode, err = optStr(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	return req, err
}

func decodeCartLine(d *jx.Decoder) (order.CartLine, error) {
	var line order.CartLine
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "product_id":
			line.ProductID, err = optStr(d)
		case "quantity":
			line.Quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
	return line, err
}

// optStr reads a string, treating JSON null as empty.
func optStr(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

func encodeCreatedOrder(e *jx.Encoder, res *order.CreateOrderResult) {
	o := res.Order
	e.ObjStart()
	e.FieldStart("order_id")
	e.Str(o.ID)
	e.FieldStart("order_number")
	e.Str(o.Number)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("payment_status")
	e.Str(string(o.PaymentStatus))
	e.FieldStart("subtotal")
	orderjson.Money(e, o.Subtotal)
	e.FieldStart("discount_amount")
	orderjson.Money(e, o.DiscountAmount)
	e.FieldStart("tax_amount")
	orderjson.Money(e, o.TaxAmount)
	e.FieldStart("total_amount")
	orderjson.Money(e, o.TotalAmount)
	if o.DiscountCode != "" {
		e.FieldStart("discount_code")
		e.Str(o.DiscountCode)
	}
	if reason := res.Discount.Reason; reason != nil {
		e.FieldStart("discount_message")
		e.Str(reason.Error())
	}
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range o.Items {
		orderjson.EncodeLineItem(e, it)
	}
	e.ArrEnd()
	e.ObjEnd()
}

// encodeTrackedOrder writes the public view of an order. Contact details and
// addresses are left out since anyone holding the number can track it.
func encodeTrackedOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("order_number")
	e.Str(o.Number)
	e.FieldStart("customer_name")
	e.Str(o.Customer.Name)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("payment_status")
	e.Str(string(o.PaymentStatus))
	e.FieldStart("subtotal")
	orderjson.Money(e, o.Subtotal)
	e.FieldStart("discount_amount")
	orderjson.Money(e, o.DiscountAmount)
	e.FieldStart("tax_amount")
	orderjson.Money(e, o.TaxAmount)
	e.FieldStart("total_amount")
	orderjson.Money(e, o.TotalAmount)
	e.FieldStart("placed_at")
	e.Str(o.PlacedAt.UTC().Format(time.RFC3339))
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range o.Items {
		orderjson.EncodeLineItem(e, it)
	}
	e.ArrEnd()
	e.ObjEnd()
}
