/*
errors.go - Centralized error types for the budgeting engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match with errors.Is / errors.As.

ERROR CATEGORIES:
  1. NotFound - A referenced entity is missing; the operation aborts with
     no partial mutation.
  2. InvariantViolation - The cascade or a ledger update reached a state
     that should be impossible; treated as a programming bug, the whole
     mutation rolls back.
  3. ConcurrentModification - Per-budget serialization was bypassed. This
     is prevented architecturally (budget locks); the sentinel exists for
     store implementations that detect conflicts anyway.

USAGE:
  if ledger.IsNotFound(err) {
      // 404 to the caller
  }

SEE ALSO:
  - engine.go: Budget lock registry that prevents concurrent mutation
  - store.go: Store implementations return ErrNotFound for missing rows
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvariantViolation is returned when a ledger update reaches an
	// inconsistent state. The enclosing mutation is rolled back.
	ErrInvariantViolation = errors.New("ledger invariant violation")

	// ErrConcurrentModification is returned when a store detects a
	// conflicting write despite per-budget serialization.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrLockedCategory is returned when a caller tries to budget against
	// a locked system category (inflow, CC tracking).
	ErrLockedCategory = errors.New("category is locked")

	// ErrInvalidAmount is returned for amounts the operation cannot accept.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrTransferCategorized is returned when a caller tries to put a
	// category on a transfer half. Transfer budget effects flow through
	// the account ledger and the credit card mirror only.
	ErrTransferCategorized = errors.New("transfer halves cannot be categorized")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError identifies which entity was missing.
type NotFoundError struct {
	Kind string // "budget", "account", "payee", "category", "transaction", ...
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func notFound(kind, id string) error { return &NotFoundError{Kind: kind, ID: id} }

// InvariantError describes where the books stopped balancing.
type InvariantError struct {
	BudgetID BudgetID
	Detail   string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violation in budget %s: %s", e.BudgetID, e.Detail)
}

func (e *InvariantError) Unwrap() error { return ErrInvariantViolation }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrLockedCategory) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrTransferCategorized)
}
