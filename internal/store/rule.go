package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/practice-scheduler/internal/domain"
)

// RuleStore defines persistence for recurrence rules.
type RuleStore interface {
	// Create saves a new rule. Returns a validation error if the rule is invalid.
	Create(ctx context.Context, rule *domain.RecurrenceRule) error

	// GetByID retrieves a rule by ID.
	// Returns ErrRuleNotFound if the rule does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.RecurrenceRule, error)

	// GetForUpdate retrieves a rule and locks it until the surrounding
	// transaction ends. Outside a transaction it behaves like GetByID.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.RecurrenceRule, error)

	// ListEligible returns active rules whose start date is on or before
	// today and whose end date is unset or on or after today, ordered by
	// creation time.
	ListEligible(ctx context.Context, today time.Time) ([]*domain.RecurrenceRule, error)

	// List returns rules ordered by creation time. Inactive rules are only
	// included when includeInactive is true.
	List(ctx context.Context, includeInactive bool) ([]*domain.RecurrenceRule, error)

	// AdvanceWatermark sets last_generated to at.
	// Returns ErrRuleNotFound if the rule does not exist and
	// ErrWatermarkRegression if at is before the stored watermark.
	AdvanceWatermark(ctx context.Context, id uuid.UUID, at time.Time) error

	// Update writes the editable fields and the active flag of an existing
	// rule. last_generated is never written.
	// Returns ErrRuleNotFound if the rule does not exist.
	Update(ctx context.Context, rule *domain.RecurrenceRule) error

	// Deactivate clears the active flag.
	// Returns ErrRuleNotFound if the rule does not exist.
	Deactivate(ctx context.Context, id uuid.UUID, now time.Time) error
}
