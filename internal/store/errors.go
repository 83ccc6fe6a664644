package store

import (
	"errors"
	"fmt"
)

// Errors shared by every store implementation. Entity-specific variants wrap
// the generic ones so callers can test at either level with errors.Is.
var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an insert collides with an existing row.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when a row fails domain validation before
	// it is written or violates a database constraint. The wrapped error
	// carries the detail.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrMissingReference is returned when a task or reminder points at a
	// client, service or user that no longer exists.
	ErrMissingReference = fmt.Errorf("%w: referenced record does not exist", ErrInvalidEntity)

	// ErrUpdateFailed is returned when an update is rejected.
	ErrUpdateFailed = errors.New("update failed")

	// ErrWatermarkRegression is returned when advancing a rule's
	// last_generated would move it backward. The watermark is left unchanged.
	ErrWatermarkRegression = fmt.Errorf("%w: watermark cannot move backward", ErrUpdateFailed)

	// ErrTransactionFailed is returned when a transaction cannot begin or
	// commit.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrLockConflict is returned when the database aborts a transaction
	// because another one holds the rows it needs, for example two replicas
	// running a cycle at once. Retrying on a later cycle is safe.
	ErrLockConflict = fmt.Errorf("%w: lock conflict", ErrTransactionFailed)

	// ErrRuleNotFound indicates that the requested recurrence rule does not exist.
	ErrRuleNotFound = fmt.Errorf("%w: recurrence rule", ErrNotFound)

	// ErrTaskNotFound indicates that the requested task does not exist.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)
)

// StoreError adds the entity and operation to a failed store call.
type StoreError struct {
	Entity    string // "rule", "task" or "reminder"
	Operation string // e.g. "create", "mark_overdue"
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Entity, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Entity, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a StoreError.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
