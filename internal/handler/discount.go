package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-checkout/internal/orderjson"
)

// ValidateDiscount handles POST /api/discounts/validate. It never changes
// the code's usage counter.
func (h *Handler) ValidateDiscount(w http.ResponseWriter, r *http.Request) {
	var (
		code   string
		amount = decimal.Zero
	)
	d := jx.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes), 256)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "code":
			code, err = optStr(d)
		case "order_amount":
			amount, err = orderjson.DecodeMoney(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	if err != nil {
		writeError(w, badBody(err))
		return
	}

	q, err := h.checkout.ValidateDiscount(r.Context(), code, amount)
	if err != nil {
		writeError(w, mapError(r.Context(), err, "Failed to validate discount code"))
		return
	}

	writeData(w, http.StatusOK, "", func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Str(q.Code)
		e.FieldStart("description")
		e.Str(q.Description)
		e.FieldStart("discount_type")
		e.Str(string(q.Type))
		e.FieldStart("discount_value")
		orderjson.Money(e, q.Value)
		e.FieldStart("discount_amount")
		orderjson.Money(e, q.DiscountAmount)
		e.FieldStart("final_amount")
		orderjson.Money(e, q.FinalAmount)
		e.ObjEnd()
	})
}
