package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/practice-scheduler/internal/domain"
	"github.com/phrazzld/practice-scheduler/internal/platform/logger"
	"github.com/phrazzld/practice-scheduler/internal/store"
)

// Sweeper flags open tasks whose due date has passed.
type Sweeper struct {
	tasks  store.TaskStore
	logger *slog.Logger
}

// NewSweeper creates a Sweeper.
func NewSweeper(tasks store.TaskStore, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "overdue_sweeper")),
	}
}

// Sweep moves every pending or in-progress task due before today to overdue
// and returns how many tasks changed. Running it again at the same instant
// changes nothing.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	today := domain.CivilDate(now)

	n, err := s.tasks.MarkOverdue(ctx, today, now)
	if err != nil {
		log.Error("failed to mark overdue tasks",
			slog.Time("today", today),
			slog.String("error", err.Error()))
		return 0, fmt.Errorf("mark overdue: %w", err)
	}

	if n > 0 {
		log.Info("tasks marked overdue", slog.Int64("count", n), slog.Time("today", today))
	}
	return n, nil
}
