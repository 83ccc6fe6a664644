package recurrence

import (
	"errors"
	"time"

	"github.com/phrazzld/practice-scheduler/internal/domain"
)

// ErrNilRule is returned when Evaluate is called without a rule.
var ErrNilRule = errors.New("recurrence rule cannot be nil")

// Reason explains an evaluation result. It is meant for logs.
type Reason string

// Evaluation reasons.
const (
	ReasonDue        Reason = "due"
	ReasonNotDue     Reason = "not_due"
	ReasonInactive   Reason = "inactive"
	ReasonNotStarted Reason = "not_started"
	ReasonEnded      Reason = "ended"
)

// Decision is the outcome of evaluating one rule at one instant.
type Decision struct {
	Generate bool
	DueDate  time.Time
	Reason   Reason
}

// Evaluator decides whether a rule should produce a task.
type Evaluator interface {
	// Evaluate applies eligibility and then the frequency arithmetic.
	Evaluate(rule *domain.RecurrenceRule, now time.Time) (Decision, error)
}

type defaultEvaluator struct{}

// NewEvaluator returns the standard Evaluator.
func NewEvaluator() Evaluator {
	return defaultEvaluator{}
}

// Evaluate implements Evaluator.
func (defaultEvaluator) Evaluate(rule *domain.RecurrenceRule, now time.Time) (Decision, error) {
	if rule == nil {
		return Decision{}, ErrNilRule
	}

	if reason := eligibility(rule, now); reason != "" {
		return Decision{Reason: reason}, nil
	}

	generate, due := ShouldGenerate(rule, now)
	if !generate {
		return Decision{Reason: ReasonNotDue}, nil
	}

	return Decision{Generate: true, DueDate: due, Reason: ReasonDue}, nil
}
