package scheduler

import (
	"fmt"

	"github.com/google/uuid"
)

// ItemError records a rule or task that could not be processed.
type ItemError struct {
	Kind string // "rule" or "task"
	ID   uuid.UUID
	Err  error
}

// Error implements the error interface.
func (e *ItemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.ID, e.Err)
}

// Unwrap returns the underlying error.
func (e *ItemError) Unwrap() error {
	return e.Err
}

// failureCount reports how many failures err stands for. Steps join their
// per-item errors, so a joined error counts each member.
func failureCount(err error) int {
	if err == nil {
		return 0
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return len(joined.Unwrap())
	}
	return 1
}
