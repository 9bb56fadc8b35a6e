package handler

import (
	"context"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/xenking/storefront-checkout/internal/domain/discount"
	"github.com/xenking/storefront-checkout/internal/domain/order"
)

const maxBodyBytes = 1 << 20

// CheckoutService is the domain surface exposed over HTTP.
type CheckoutService interface {
	CreateOrder(ctx context.Context, req order.CreateOrderRequest) (*order.CreateOrderResult, error)
	ValidateDiscount(ctx context.Context, code string, amount decimal.Decimal) (*discount.Quote, error)
	TrackOrder(ctx context.Context, number string) (*order.Order, error)
}

// EventPublisher announces placed orders.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, o *order.Order) error
}

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// CheckoutTimeout bounds a whole CreateOrder call, commit included.
	// Zero disables the limit.
	CheckoutTimeout time.Duration
}

// Handler serves the storefront checkout API.
type Handler struct {
	checkout        CheckoutService
	events          EventPublisher
	checkoutTimeout time.Duration

	outcomes metric.Int64Counter
}

// NewHandler constructs a Handler. events may be nil.
func NewHandler(
	cfg HandlerConfig,
	checkout CheckoutService,
	events EventPublisher,
	meters metric.MeterProvider,
) (*Handler, error) {
	outcomes, err := meters.Meter("storefront/handler").Int64Counter("storefront.checkout.outcomes",
		metric.WithDescription("Checkouts by terminal state and failing stage"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create outcome counter")
	}

	return &Handler{
		checkout:        checkout,
		events:          events,
		checkoutTimeout: cfg.CheckoutTimeout,
		outcomes:        outcomes,
	}, nil
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/orders", h.CreateOrder)
	mux.HandleFunc("GET /api/orders/track/{number}", h.TrackOrder)
	mux.HandleFunc("POST /api/discounts/validate", h.ValidateDiscount)
	// Path used by the existing storefront frontend.
	mux.HandleFunc("POST /api/discount/validate", h.ValidateDiscount)
}

// apiError is a failure rendered as {"success":false,...}.
type apiError struct {
	status  int
	message string
	fields  map[string]string
}

func writeData(w http.ResponseWriter, status int, message string, data func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ObjStart()
	e.FieldStart("success")
	e.Bool(true)
	if message != "" {
		e.FieldStart("message")
		e.Str(message)
	}
	e.FieldStart("data")
	data(e)
	e.ObjEnd()

	writeBody(w, status, e.Bytes())
}

func writeError(w http.ResponseWriter, ae apiError) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ObjStart()
	e.FieldStart("success")
	e.Bool(false)
	e.FieldStart("message")
	e.Str(ae.message)
	if len(ae.fields) > 0 {
		e.FieldStart("errors")
		e.ObjStart()
		for _, k := range slices.Sorted(maps.Keys(ae.fields)) {
			e.FieldStart(k)
			e.Str(ae.fields[k])
		}
		e.ObjEnd()
	}
	e.ObjEnd()

	writeBody(w, ae.status, e.Bytes())
}

func writeBody(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// mapError converts domain errors to API errors. Unknown errors are logged
// and reported as 500 without details.
func mapError(ctx context.Context, err error, fallback string) apiError {
	var (
		vErr     *order.ValidationError
		pnfErr   *order.ProductNotFoundError
		stockErr *order.InsufficientStockError
		minErr   *discount.MinimumNotMetError
	)
	switch {
	case errors.As(err, &vErr):
		return apiError{status: http.StatusBadRequest, message: "Missing or invalid fields", fields: vErr.Fields}
	case errors.As(err, &pnfErr):
		return apiError{status: http.StatusUnprocessableEntity, message: pnfErr.Error()}
	case errors.As(err, &stockErr):
		return apiError{status: http.StatusConflict, message: stockErr.Error()}
	case errors.Is(err, order.ErrNotFound):
		return apiError{status: http.StatusNotFound, message: "Order not found"}
	case errors.Is(err, discount.ErrNotFound):
		return apiError{status: http.StatusNotFound, message: "Invalid or expired discount code"}
	case errors.Is(err, discount.ErrCodeExpired):
		return apiError{status: http.StatusUnprocessableEntity, message: "Invalid or expired discount code"}
	case errors.Is(err, discount.ErrUsageLimitReached):
		return apiError{status: http.StatusUnprocessableEntity, message: "Discount code has reached usage limit"}
	case errors.As(err, &minErr):
		return apiError{status: http.StatusUnprocessableEntity, message: "Minimum order value of R" + minErr.Minimum.StringFixed(2) + " required"}
	case errors.Is(err, context.DeadlineExceeded):
		zctx.From(ctx).Warn("Request timed out", zap.Error(err))
		return apiError{status: http.StatusServiceUnavailable, message: fallback}
	}

	zctx.From(ctx).Error(fallback, zap.Error(err))
	return apiError{status: http.StatusInternalServerError, message: fallback}
}

func badBody(err error) apiError {
	return apiError{status: http.StatusBadRequest, message: "Invalid request body: " + err.Error()}
}
