package sale

import (
	"fmt"
	"strings"
)

// ValidationKind identifies which precondition a checkout failed, so
// callers can pick a message without parsing Reason.
type ValidationKind int

const (
	ValidationBadRequest ValidationKind = iota
	ValidationEmptyCart
	ValidationBadLine
	ValidationTotalMismatch
)

// ValidationError covers caller-correctable input problems: empty cart,
// non-positive quantities, a stale total. Nothing was written.
type ValidationError struct {
	Kind   ValidationKind
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// StockConflictError means one or more products can no longer cover the
// requested quantity. Nothing was written; the cart should be re-synced
// against current stock.
type StockConflictError struct {
	ProductIDs []string
}

func (e *StockConflictError) Error() string {
	return "insufficient stock for products: " + strings.Join(e.ProductIDs, ", ")
}

// DuplicateError is returned when the idempotency key was already committed.
// It carries the id of the sale recorded by the first submission.
type DuplicateError struct {
	SaleID string
}

func (e *DuplicateError) Error() string {
	return "sale already submitted (id " + e.SaleID + ")"
}

// PersistenceError wraps infrastructure failures where the transaction is
// known to have rolled back; a fresh submission is safe.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// PartialCommitError means the commit outcome is unknown: every statement
// succeeded but the commit confirmation was lost. The sale may or may not
// be durable. It must never be reported as success and is logged for
// manual reconciliation.
type PartialCommitError struct {
	SaleID string
	Err    error
}

func (e *PartialCommitError) Error() string {
	return fmt.Sprintf("commit outcome unknown for sale %s: %v", e.SaleID, e.Err)
}

func (e *PartialCommitError) Unwrap() error {
	return e.Err
}
