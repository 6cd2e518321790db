package order

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrVersionMismatch is returned by stores when the expected version is stale.
	ErrVersionMismatch = errors.New("order version mismatch")
	// ErrTableOccupied is returned by stores when another active order holds the table.
	ErrTableOccupied = errors.New("table already has an active order")
)

// ValidationError rejects malformed input before any write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StateConflictError rejects an operation the current order state does not allow.
type StateConflictError struct {
	Op     string
	Reason string
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("cannot %s: %s", e.Op, e.Reason)
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConflictError reports a concurrent modification that outlived the retries.
type ConflictError struct {
	OrderID uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("order %s was modified concurrently, retry", e.OrderID)
}

// PersistenceError wraps a store failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("cannot %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Outcome classifies an operation result for logs and metrics.
func Outcome(err error) string {
	var (
		validation *ValidationError
		state      *StateConflictError
		notFound   *NotFoundError
		conflict   *ConflictError
		persist    *PersistenceError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &validation):
		return "validation"
	case errors.As(err, &state):
		return "state_conflict"
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &conflict):
		return "conflict"
	case errors.As(err, &persist):
		return "persistence"
	default:
		return "error"
	}
}
