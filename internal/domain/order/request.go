package order

import (
	"reflect"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
)

// CartLine is a requested product and quantity. It only lives for the
// duration of a checkout.
type CartLine struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
	Quantity  int    `json:"quantity" validate:"min=1,max=10000"`
}

// CreateOrderRequest is the checkout input. Customer email and name and at
// least one item are required; everything else is optional.
type CreateOrderRequest struct {
	Customer        Customer   `json:"customer"`
	Items           []CartLine `json:"items" validate:"required,min=1,dive"`
	ShippingAddress *Address   `json:"shipping_address"`
	BillingAddress  *Address   `json:"billing_address"`
	DiscountCode    string     `json:"discount_code" validate:"max=64"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// validationError converts validator output to a *ValidationError keyed by
// the JSON path of each offending field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Fields: map[string]string{"request": err.Error()}}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe.Namespace())] = validationMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

// fieldPath drops the top-level struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "email":
		return "must be a valid email"
	}
	return "is invalid"
}
