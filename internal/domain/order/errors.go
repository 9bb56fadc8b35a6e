package order

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when an order lookup matches nothing.
var ErrNotFound = errors.New("order not found")

// ValidationError reports malformed or missing request input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, f+" "+e.Fields[f])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// ProductNotFoundError indicates a requested product is missing or inactive.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InsufficientStockError indicates a product cannot cover the requested quantity.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("insufficient stock for %s", name)
}

// PersistenceError wraps a storage failure. It is never retried by the core.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Stage is a step of the checkout state machine.
type Stage string

const (
	StageReceived   Stage = "received"
	StageValidating Stage = "validating"
	StagePricing    Stage = "pricing"
	StageCommitting Stage = "committing"
	StageCompleted  Stage = "completed"
)

// Outcome names the terminal state a failure at a stage leads to.
func (s Stage) Outcome() string {
	if s == StageCommitting {
		return "failed"
	}
	return "rejected"
}

// CheckoutError records the stage at which a checkout stopped.
type CheckoutError struct {
	Stage Stage
	Err   error
}

func (e *CheckoutError) Error() string {
	return fmt.Sprintf("checkout %s at %s: %v", e.Stage.Outcome(), e.Stage, e.Err)
}

func (e *CheckoutError) Unwrap() error { return e.Err }

func fail(stage Stage, err error) error {
	return &CheckoutError{Stage: stage, Err: err}
}
