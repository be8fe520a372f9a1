// Package errs defines the structured error taxonomy of the quote engine.
// Every rejection carries enough detail (piece names, product, shortfall) for
// the HTTP layer to render an actionable message.
package errs

import (
	"fmt"
	"strings"
)

// ValidationError rejects an operation before any side effect: missing
// customer, empty piece list, a piece with neither material nor service,
// malformed dimensions or quantity.
type ValidationError struct {
	Message string
	// Pieces names the offending pieces when the failure is piece-level.
	Pieces []string
}

func (e *ValidationError) Error() string {
	if len(e.Pieces) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Pieces, ", "))
}

// InsufficientStockError rejects a finalize whose required area exceeds the
// authoritative stock of a product. Raised before any mutation.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Required    float64
	Available   float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: required %.4f, available %.4f",
		e.ProductName, e.Required, e.Available)
}

// Shortfall is how much stock is missing.
func (e *InsufficientStockError) Shortfall() float64 {
	return e.Required - e.Available
}

// ConflictError signals a concurrent counter or stock race; the caller may
// retry the whole operation.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// DependencyError wraps a failed call to a collaborator (product store,
// catalog, ledger sink). It aborts the surrounding transaction wholesale.
type DependencyError struct {
	Op  string
	Err error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Op, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }
