package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/practice-scheduler/internal/domain/recurrence"
	"github.com/phrazzld/practice-scheduler/internal/events"
	"github.com/phrazzld/practice-scheduler/internal/platform/logger"
	"github.com/phrazzld/practice-scheduler/internal/store"
)

// Step names used in logs.
const (
	StepMaterialize = "materialize"
	StepSweep       = "sweep_overdue"
	StepReminders   = "emit_reminders"
)

// Scheduler runs automation cycles.
type Scheduler struct {
	materializer *Materializer
	sweeper      *Sweeper
	reminders    *ReminderEmitter
	emitter      events.EventEmitter
	clock        func() time.Time
	logger       *slog.Logger
}

// Option configures a Scheduler.
type Option func(*schedulerOptions)

type schedulerOptions struct {
	evaluator recurrence.Evaluator
	clock     func() time.Time
}

// WithEvaluator replaces the standard recurrence evaluator.
func WithEvaluator(evaluator recurrence.Evaluator) Option {
	return func(o *schedulerOptions) {
		o.evaluator = evaluator
	}
}

// WithClock sets the clock used to time cycles. It only feeds
// CycleSummary.StartedAt and Duration.
func WithClock(clock func() time.Time) Option {
	return func(o *schedulerOptions) {
		o.clock = clock
	}
}

// New creates a Scheduler. stores is used for unlocked reads and the
// overdue sweep; per-rule and per-task work runs through tx. emitter may be nil.
func New(
	stores store.Stores,
	tx store.Transactor,
	emitter events.EventEmitter,
	logger *slog.Logger,
	opts ...Option,
) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	o := schedulerOptions{
		evaluator: recurrence.NewEvaluator(),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Scheduler{
		materializer: NewMaterializer(stores.Rules, tx, o.evaluator, logger),
		sweeper:      NewSweeper(stores.Tasks, logger),
		reminders:    NewReminderEmitter(stores.Tasks, tx, logger),
		emitter:      emitter,
		clock:        o.clock,
		logger:       logger.With(slog.String("component", "scheduler")),
	}
}

// RunCycle materializes due rules, sweeps overdue tasks and emits reminders,
// in that order, as of now. Step failures are logged and counted in the
// summary; they never stop later steps and are never returned.
func (s *Scheduler) RunCycle(ctx context.Context, now time.Time) CycleSummary {
	started := s.clock()
	summary := CycleSummary{
		RunID:     uuid.New(),
		StartedAt: started.UTC(),
		Now:       now,
	}

	// Cron-triggered cycles have no request ID; the run ID correlates their
	// component logs instead.
	if _, ok := logger.RequestIDFromContext(ctx); !ok {
		ctx = logger.WithRequestID(ctx, summary.RunID.String())
	}
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("run_id", summary.RunID.String()),
		slog.Time("now", now))

	log.Info("automation cycle started")

	var created []Materialized
	summary.Errors += s.runStep(ctx, StepMaterialize, func() error {
		var err error
		created, err = s.materializer.Materialize(ctx, now)
		return err
	})
	summary.TasksCreated = len(created)
	for _, m := range created {
		s.emit(ctx, events.TypeTaskMaterialized, events.TaskMaterializedPayload{
			RuleID:            m.RuleID,
			TaskID:            m.Task.ID,
			DueDate:           m.Task.DueDate,
			ReferencesCleared: m.ReferencesCleared,
		}, now)
	}

	summary.Errors += s.runStep(ctx, StepSweep, func() error {
		var err error
		summary.TasksMarkedOverdue, err = s.sweeper.Sweep(ctx, now)
		return err
	})

	summary.Errors += s.runStep(ctx, StepReminders, func() error {
		var err error
		summary.RemindersCreated, err = s.reminders.Emit(ctx, now)
		return err
	})

	summary.Duration = s.clock().Sub(started)

	log.Info("automation cycle completed",
		slog.Int("tasks_created", summary.TasksCreated),
		slog.Int64("tasks_marked_overdue", summary.TasksMarkedOverdue),
		slog.Int("reminders_created", summary.RemindersCreated),
		slog.Int("errors", summary.Errors),
		slog.Duration("duration", summary.Duration))

	s.emit(ctx, events.TypeCycleCompleted, summary, now)

	return summary
}

// runStep runs fn and returns the number of failures it reported. A panic
// counts as one failure.
func (s *Scheduler) runStep(ctx context.Context, step string, fn func() error) (failures int) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	defer func() {
		if p := recover(); p != nil {
			log.Error("automation step panicked",
				slog.String("step", step),
				slog.String("panic", fmt.Sprint(p)))
			failures = 1
		}
	}()

	err := fn()
	failures = failureCount(err)
	if failures > 0 {
		log.Warn("automation step finished with errors",
			slog.String("step", step),
			slog.Int("failures", failures),
			slog.String("error", err.Error()))
	}
	return failures
}

func (s *Scheduler) emit(ctx context.Context, eventType string, payload any, now time.Time) {
	if s.emitter == nil {
		return
	}

	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := events.NewEvent(eventType, payload, now)
	if err != nil {
		log.Error("failed to build event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
		return
	}

	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("event delivery failed",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
	}
}
