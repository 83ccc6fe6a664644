package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/practice-scheduler/internal/domain"
)

// ReminderStore defines persistence for reminders.
type ReminderStore interface {
	// Create saves a new reminder.
	Create(ctx context.Context, reminder *domain.Reminder) error

	// ExistsForTask reports whether a reminder of the given type exists for
	// the task with reminder_date in the half-open range [from, to).
	ExistsForTask(
		ctx context.Context,
		taskID uuid.UUID,
		reminderType domain.ReminderType,
		from, to time.Time,
	) (bool, error)

	// ListByTask returns a task's reminders, oldest first.
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.Reminder, error)
}
