package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/practice-scheduler/internal/domain"
	"github.com/phrazzld/practice-scheduler/internal/platform/logger"
	"github.com/phrazzld/practice-scheduler/internal/store"
)

// TaskService exposes the task operations the scheduler's operators need.
type TaskService interface {
	// GetTask returns a task by ID.
	GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// UpdateStatus moves a task to status under the task state machine and
	// returns the updated task. Errors wrap domain.ErrInvalidTransition when
	// the move is not allowed.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) (*domain.Task, error)

	// ListReminders returns the reminders attached to a task, oldest first.
	ListReminders(ctx context.Context, id uuid.UUID) ([]*domain.Reminder, error)
}

type taskServiceImpl struct {
	stores store.Stores
	tx     store.Transactor
	clock  func() time.Time
	logger *slog.Logger
}

// NewTaskService creates a TaskService. A nil clock means time.Now.
func NewTaskService(
	stores store.Stores,
	tx store.Transactor,
	clock func() time.Time,
	logger *slog.Logger,
) (TaskService, error) {
	if stores.Tasks == nil || stores.Reminders == nil {
		return nil, &ServiceError{Service: "task", Operation: "create_service", Message: "stores cannot be nil"}
	}
	if tx == nil {
		return nil, &ServiceError{Service: "task", Operation: "create_service", Message: "transactor cannot be nil"}
	}
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		stores: stores,
		tx:     tx,
		clock:  clock,
		logger: logger.With(slog.String("component", "task_service")),
	}, nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	task, err := s.stores.Tasks.GetByID(ctx, id)
	if err != nil {
		return nil, NewServiceError("task", "get_task", "failed to retrieve task", err)
	}
	return task, nil
}

func (s *taskServiceImpl) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.TaskStatus,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.Task
	var from domain.TaskStatus
	err := s.tx.WithinTx(ctx, func(ctx context.Context, stores store.Stores) error {
		task, err := stores.Tasks.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		from = task.Status
		if err := task.TransitionTo(status, s.clock()); err != nil {
			return err
		}

		if err := stores.Tasks.UpdateStatus(ctx, task); err != nil {
			return err
		}
		updated = task
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrValidation):
			log.Debug("rejected task status change",
				slog.String("task_id", id.String()),
				slog.String("target_status", string(status)),
				slog.String("error", err.Error()))
		case !errors.Is(err, store.ErrTaskNotFound):
			log.Error("failed to update task status",
				slog.String("task_id", id.String()),
				slog.String("target_status", string(status)),
				slog.String("error", err.Error()))
		}
		return nil, NewServiceError("task", "update_status", "failed to update task status", err)
	}

	log.Info("task status updated",
		slog.String("task_id", id.String()),
		slog.String("from", string(from)),
		slog.String("to", string(status)))
	return updated, nil
}

func (s *taskServiceImpl) ListReminders(ctx context.Context, id uuid.UUID) ([]*domain.Reminder, error) {
	if _, err := s.stores.Tasks.GetByID(ctx, id); err != nil {
		return nil, NewServiceError("task", "list_reminders", "failed to retrieve task", err)
	}

	reminders, err := s.stores.Reminders.ListByTask(ctx, id)
	if err != nil {
		return nil, NewServiceError("task", "list_reminders", "failed to list reminders", err)
	}
	return reminders, nil
}
