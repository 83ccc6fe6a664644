package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/practice-scheduler/internal/domain"
	"github.com/phrazzld/practice-scheduler/internal/platform/logger"
	"github.com/phrazzld/practice-scheduler/internal/store"
)

// reminderExcluded lists the task statuses that never get a due reminder.
var reminderExcluded = []domain.TaskStatus{domain.TaskStatusCompleted}

// ReminderEmitter creates one task_due reminder per task per day for tasks
// due tomorrow.
type ReminderEmitter struct {
	tasks  store.TaskStore
	tx     store.Transactor
	logger *slog.Logger
}

// NewReminderEmitter creates a ReminderEmitter.
func NewReminderEmitter(tasks store.TaskStore, tx store.Transactor, logger *slog.Logger) *ReminderEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReminderEmitter{
		tasks:  tasks,
		tx:     tx,
		logger: logger.With(slog.String("component", "reminder_emitter")),
	}
}

// Emit creates reminders for tasks due the day after now and returns how
// many were created. A task that already has a task_due reminder dated
// today is skipped.
//
// The returned error joins one *ItemError per failed task, or is a single
// error if the tasks could not be listed.
func (e *ReminderEmitter) Emit(ctx context.Context, now time.Time) (int, error) {
	log := logger.FromContextOrDefault(ctx, e.logger)
	tomorrow := domain.CivilDate(now).AddDate(0, 0, 1)

	tasks, err := e.tasks.ListDueOn(ctx, tomorrow, reminderExcluded)
	if err != nil {
		log.Error("failed to list tasks due tomorrow", slog.String("error", err.Error()))
		return 0, fmt.Errorf("list tasks due %s: %w", tomorrow.Format(time.DateOnly), err)
	}

	dayStart := domain.StartOfDay(now)
	dayEnd := dayStart.AddDate(0, 0, 1)

	created := 0
	var errs []error
	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		reminder, err := e.remind(ctx, task, tomorrow, dayStart, dayEnd, now)
		if err != nil {
			log.Error("failed to create reminder",
				slog.String("task_id", task.ID.String()),
				slog.String("error", err.Error()))
			errs = append(errs, &ItemError{Kind: "task", ID: task.ID, Err: err})
			continue
		}
		if reminder == nil {
			continue
		}

		log.Info("reminder created",
			slog.String("task_id", task.ID.String()),
			slog.String("reminder_id", reminder.ID.String()))
		created++
	}

	return created, errors.Join(errs...)
}

// remind locks the task, checks for today's reminder and inserts one if it
// is missing. It returns nil, nil when nothing needed to be done.
func (e *ReminderEmitter) remind(
	ctx context.Context,
	listed *domain.Task,
	tomorrow, dayStart, dayEnd, now time.Time,
) (*domain.Reminder, error) {
	var reminder *domain.Reminder

	err := e.tx.WithinTx(ctx, func(ctx context.Context, s store.Stores) error {
		task, err := s.Tasks.GetForUpdate(ctx, listed.ID)
		if err != nil {
			return fmt.Errorf("lock task: %w", err)
		}

		// The task may have changed between listing and locking.
		if task.Status == domain.TaskStatusCompleted ||
			!domain.CivilDate(task.DueDate).Equal(tomorrow) {
			return nil
		}

		exists, err := s.Reminders.ExistsForTask(ctx, task.ID, domain.ReminderTypeTaskDue, dayStart, dayEnd)
		if err != nil {
			return fmt.Errorf("check existing reminder: %w", err)
		}
		if exists {
			return nil
		}

		r, err := domain.NewTaskDueReminder(task, now)
		if err != nil {
			return fmt.Errorf("build reminder: %w", err)
		}
		if err := s.Reminders.Create(ctx, r); err != nil {
			return fmt.Errorf("create reminder: %w", err)
		}

		reminder = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	return reminder, nil
}
