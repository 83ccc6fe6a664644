package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/practice-scheduler/internal/store"
)

// Common service errors. Callers check for them with errors.Is; the API
// layer maps both to 404 Not Found.
var (
	// ErrRuleNotFound indicates that the recurrence rule does not exist.
	ErrRuleNotFound = errors.New("recurrence rule not found")

	// ErrTaskNotFound indicates that the task does not exist.
	ErrTaskNotFound = errors.New("task not found")
)

// ServiceError wraps errors from a service with context.
type ServiceError struct {
	// Service is the service that failed (e.g., "rule", "task")
	Service string
	// Operation is the operation that failed (e.g., "create_rule", "update_status")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a ServiceError. Not-found errors from the store
// are returned as the matching service sentinel instead of being wrapped.
func NewServiceError(service, operation, message string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrRuleNotFound), errors.Is(err, store.ErrRuleNotFound):
		return ErrRuleNotFound
	case errors.Is(err, ErrTaskNotFound), errors.Is(err, store.ErrTaskNotFound):
		return ErrTaskNotFound
	}

	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return err
	}

	return &ServiceError{
		Service:   service,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
