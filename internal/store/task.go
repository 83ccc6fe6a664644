package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/practice-scheduler/internal/domain"
)

// TaskStore defines persistence for tasks.
type TaskStore interface {
	// Create saves a new task.
	// Returns an error wrapping ErrInvalidEntity if a referenced client,
	// service or user does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// GetForUpdate retrieves a task and locks it until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// UpdateStatus persists the task's status, completion date and update time.
	// Returns ErrTaskNotFound if the task does not exist.
	UpdateStatus(ctx context.Context, task *domain.Task) error

	// MarkOverdue moves every pending or in-progress task due before today
	// to overdue in a single statement and returns how many changed.
	MarkOverdue(ctx context.Context, today time.Time, now time.Time) (int64, error)

	// ListDueOn returns tasks due on day whose status is not in exclude,
	// ordered by creation time.
	ListDueOn(
		ctx context.Context,
		day time.Time,
		exclude []domain.TaskStatus,
	) ([]*domain.Task, error)

	// ListByOriginRule returns the tasks materialized from a rule, newest
	// due date first.
	ListByOriginRule(ctx context.Context, ruleID uuid.UUID) ([]*domain.Task, error)
}
