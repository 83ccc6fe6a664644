package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/practice-scheduler/internal/domain"
	"github.com/phrazzld/practice-scheduler/internal/domain/recurrence"
	"github.com/phrazzld/practice-scheduler/internal/platform/logger"
	"github.com/phrazzld/practice-scheduler/internal/store"
)

// Materialized describes a task created from a rule.
type Materialized struct {
	RuleID uuid.UUID
	Task   *domain.Task
	// ReferencesCleared is set when the rule pointed at a client, service or
	// user that no longer exists and the task was created without them.
	ReferencesCleared bool
}

// Materializer turns due recurrence rules into tasks.
type Materializer struct {
	rules     store.RuleStore
	tx        store.Transactor
	evaluator recurrence.Evaluator
	logger    *slog.Logger
}

// NewMaterializer creates a Materializer. rules is used for the initial,
// unlocked listing; all writes go through tx.
func NewMaterializer(
	rules store.RuleStore,
	tx store.Transactor,
	evaluator recurrence.Evaluator,
	logger *slog.Logger,
) *Materializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Materializer{
		rules:     rules,
		tx:        tx,
		evaluator: evaluator,
		logger:    logger.With(slog.String("component", "task_materializer")),
	}
}

// Materialize creates at most one task for every eligible rule that is due
// at now and advances each such rule's watermark to now.
//
// The returned error joins one *ItemError per failed rule, or is a single
// error if the rules could not be listed. Tasks in the returned slice were
// committed even when err is non-nil.
func (m *Materializer) Materialize(ctx context.Context, now time.Time) ([]Materialized, error) {
	log := logger.FromContextOrDefault(ctx, m.logger)

	rules, err := m.rules.ListEligible(ctx, domain.CivilDate(now))
	if err != nil {
		log.Error("failed to list eligible rules", slog.String("error", err.Error()))
		return nil, fmt.Errorf("list eligible rules: %w", err)
	}

	var (
		created []Materialized
		errs    []error
	)
	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		decision, err := m.evaluator.Evaluate(rule, now)
		if err != nil {
			errs = append(errs, &ItemError{Kind: "rule", ID: rule.ID, Err: err})
			continue
		}
		if !decision.Generate {
			log.Debug("rule not due",
				slog.String("rule_id", rule.ID.String()),
				slog.String("reason", string(decision.Reason)))
			continue
		}

		result, err := m.materializeRule(ctx, rule.ID, now)
		if err != nil {
			log.Error("failed to materialize rule",
				slog.String("rule_id", rule.ID.String()),
				slog.String("rule_name", rule.Name),
				slog.String("error", err.Error()))
			errs = append(errs, &ItemError{Kind: "rule", ID: rule.ID, Err: err})
			continue
		}
		if result == nil {
			// Another cycle got there first.
			log.Debug("rule already materialized", slog.String("rule_id", rule.ID.String()))
			continue
		}

		log.Info("task materialized",
			slog.String("rule_id", rule.ID.String()),
			slog.String("task_id", result.Task.ID.String()),
			slog.Time("due_date", result.Task.DueDate),
			slog.Bool("references_cleared", result.ReferencesCleared))
		created = append(created, *result)
	}

	return created, errors.Join(errs...)
}

// materializeRule generates the task for one rule. A rule whose references
// dangle is retried once without them.
func (m *Materializer) materializeRule(
	ctx context.Context,
	ruleID uuid.UUID,
	now time.Time,
) (*Materialized, error) {
	result, err := m.generate(ctx, ruleID, now, false)
	if !errors.Is(err, store.ErrMissingReference) {
		return result, err
	}

	logger.FromContextOrDefault(ctx, m.logger).Warn(
		"rule references a missing record, creating task without references",
		slog.String("rule_id", ruleID.String()),
		slog.String("error", err.Error()))

	return m.generate(ctx, ruleID, now, true)
}

// generate runs lock, re-evaluate, insert and advance in one transaction.
// It returns nil, nil if the locked rule is no longer due.
func (m *Materializer) generate(
	ctx context.Context,
	ruleID uuid.UUID,
	now time.Time,
	clearReferences bool,
) (*Materialized, error) {
	var result *Materialized

	err := m.tx.WithinTx(ctx, func(ctx context.Context, s store.Stores) error {
		rule, err := s.Rules.GetForUpdate(ctx, ruleID)
		if err != nil {
			return fmt.Errorf("lock rule: %w", err)
		}

		decision, err := m.evaluator.Evaluate(rule, now)
		if err != nil {
			return err
		}
		if !decision.Generate {
			return nil
		}

		task, err := domain.NewTaskFromRule(rule, decision.DueDate, now)
		if err != nil {
			return fmt.Errorf("build task: %w", err)
		}
		if clearReferences {
			task.ClearReferences()
		}

		if err := s.Tasks.Create(ctx, task); err != nil {
			return fmt.Errorf("create task: %w", err)
		}

		if err := s.Rules.AdvanceWatermark(ctx, rule.ID, now); err != nil {
			return fmt.Errorf("advance watermark: %w", err)
		}

		result = &Materialized{RuleID: rule.ID, Task: task, ReferencesCleared: clearReferences}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
