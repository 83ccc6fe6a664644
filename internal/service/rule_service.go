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

// RuleService manages recurrence rules.
type RuleService interface {
	// CreateRule validates and stores a new active rule with no watermark.
	CreateRule(ctx context.Context, params domain.RuleParams) (*domain.RecurrenceRule, error)

	// GetRule returns a rule by ID.
	GetRule(ctx context.Context, id uuid.UUID) (*domain.RecurrenceRule, error)

	// ListRules returns active rules, plus inactive ones if includeInactive is set.
	ListRules(ctx context.Context, includeInactive bool) ([]*domain.RecurrenceRule, error)

	// UpdateRule replaces a rule's editable fields and active flag and returns
	// the stored rule. The watermark is kept as it is.
	UpdateRule(
		ctx context.Context,
		id uuid.UUID,
		params domain.RuleParams,
		active bool,
	) (*domain.RecurrenceRule, error)

	// DeactivateRule switches a rule off and returns it. Deactivating an
	// inactive rule is a no-op.
	DeactivateRule(ctx context.Context, id uuid.UUID) (*domain.RecurrenceRule, error)

	// ListRuleTasks returns the tasks generated from a rule, newest due date first.
	ListRuleTasks(ctx context.Context, id uuid.UUID) ([]*domain.Task, error)
}

type ruleServiceImpl struct {
	stores store.Stores
	tx     store.Transactor
	clock  func() time.Time
	logger *slog.Logger
}

// NewRuleService creates a RuleService. A nil clock means time.Now.
func NewRuleService(
	stores store.Stores,
	tx store.Transactor,
	clock func() time.Time,
	logger *slog.Logger,
) (RuleService, error) {
	if stores.Rules == nil || stores.Tasks == nil {
		return nil, &ServiceError{Service: "rule", Operation: "create_service", Message: "stores cannot be nil"}
	}
	if tx == nil {
		return nil, &ServiceError{Service: "rule", Operation: "create_service", Message: "transactor cannot be nil"}
	}
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ruleServiceImpl{
		stores: stores,
		tx:     tx,
		clock:  clock,
		logger: logger.With(slog.String("component", "rule_service")),
	}, nil
}

func (s *ruleServiceImpl) CreateRule(
	ctx context.Context,
	params domain.RuleParams,
) (*domain.RecurrenceRule, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rule, err := domain.NewRecurrenceRule(params, s.clock())
	if err != nil {
		log.Debug("rejected recurrence rule", slog.String("error", err.Error()))
		return nil, NewServiceError("rule", "create_rule", "invalid recurrence rule", err)
	}

	if err := s.stores.Rules.Create(ctx, rule); err != nil {
		log.Error("failed to save recurrence rule",
			slog.String("rule_id", rule.ID.String()),
			slog.String("error", err.Error()))
		return nil, NewServiceError("rule", "create_rule", "failed to save recurrence rule", err)
	}

	log.Info("recurrence rule created",
		slog.String("rule_id", rule.ID.String()),
		slog.String("frequency", string(rule.Frequency)))
	return rule, nil
}

func (s *ruleServiceImpl) GetRule(ctx context.Context, id uuid.UUID) (*domain.RecurrenceRule, error) {
	rule, err := s.stores.Rules.GetByID(ctx, id)
	if err != nil {
		return nil, NewServiceError("rule", "get_rule", "failed to retrieve recurrence rule", err)
	}
	return rule, nil
}

func (s *ruleServiceImpl) ListRules(
	ctx context.Context,
	includeInactive bool,
) ([]*domain.RecurrenceRule, error) {
	rules, err := s.stores.Rules.List(ctx, includeInactive)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list recurrence rules",
			slog.String("error", err.Error()))
		return nil, NewServiceError("rule", "list_rules", "failed to list recurrence rules", err)
	}
	return rules, nil
}

func (s *ruleServiceImpl) UpdateRule(
	ctx context.Context,
	id uuid.UUID,
	params domain.RuleParams,
	active bool,
) (*domain.RecurrenceRule, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var rule *domain.RecurrenceRule
	err := s.tx.WithinTx(ctx, func(ctx context.Context, stores store.Stores) error {
		current, err := stores.Rules.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := current.Update(params, active, s.clock()); err != nil {
			return err
		}
		if err := stores.Rules.Update(ctx, current); err != nil {
			return err
		}
		rule = current
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			log.Debug("rejected recurrence rule update",
				slog.String("rule_id", id.String()),
				slog.String("error", err.Error()))
			return nil, NewServiceError("rule", "update_rule", "invalid recurrence rule", err)
		case !errors.Is(err, store.ErrRuleNotFound):
			log.Error("failed to update recurrence rule",
				slog.String("rule_id", id.String()),
				slog.String("error", err.Error()))
		}
		return nil, NewServiceError("rule", "update_rule", "failed to update recurrence rule", err)
	}

	log.Info("recurrence rule updated",
		slog.String("rule_id", id.String()),
		slog.Bool("active", rule.Active))
	return rule, nil
}

func (s *ruleServiceImpl) DeactivateRule(
	ctx context.Context,
	id uuid.UUID,
) (*domain.RecurrenceRule, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var rule *domain.RecurrenceRule
	err := s.tx.WithinTx(ctx, func(ctx context.Context, stores store.Stores) error {
		current, err := stores.Rules.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !current.Active {
			rule = current
			return nil
		}

		now := s.clock()
		if err := stores.Rules.Deactivate(ctx, id, now); err != nil {
			return err
		}
		current.Deactivate(now)
		rule = current
		return nil
	})
	if err != nil {
		if !errors.Is(err, store.ErrRuleNotFound) {
			log.Error("failed to deactivate recurrence rule",
				slog.String("rule_id", id.String()),
				slog.String("error", err.Error()))
		}
		return nil, NewServiceError("rule", "deactivate_rule", "failed to deactivate recurrence rule", err)
	}

	log.Info("recurrence rule deactivated", slog.String("rule_id", id.String()))
	return rule, nil
}

func (s *ruleServiceImpl) ListRuleTasks(ctx context.Context, id uuid.UUID) ([]*domain.Task, error) {
	if _, err := s.stores.Rules.GetByID(ctx, id); err != nil {
		return nil, NewServiceError("rule", "list_rule_tasks", "failed to retrieve recurrence rule", err)
	}

	tasks, err := s.stores.Tasks.ListByOriginRule(ctx, id)
	if err != nil {
		return nil, NewServiceError("rule", "list_rule_tasks", "failed to list generated tasks", err)
	}
	return tasks, nil
}
