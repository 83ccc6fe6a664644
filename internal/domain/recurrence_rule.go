package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Frequency is how often a recurrence rule produces a task.
type Frequency string

// Supported frequencies.
const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// DefaultQuarterlyDayOfMonth is the due day used by quarterly rules that do
// not configure one.
const DefaultQuarterlyDayOfMonth = 30

// Validation errors for RecurrenceRule.
var (
	ErrRuleIDEmpty          = fmt.Errorf("%w: recurrence rule ID cannot be empty", ErrValidation)
	ErrRuleNameEmpty        = fmt.Errorf("%w: recurrence rule name cannot be empty", ErrValidation)
	ErrRuleFrequencyInvalid = fmt.Errorf("%w: invalid recurrence frequency", ErrValidation)
	ErrRuleDayOfMonth       = fmt.Errorf("%w: day_of_month must be between 1 and 31", ErrValidation)
	ErrRuleDayOfMonthNeeded = fmt.Errorf("%w: monthly rules require day_of_month", ErrValidation)
	ErrRuleDayOfWeek        = fmt.Errorf("%w: day_of_week must be between 0 and 6", ErrValidation)
	ErrRuleStartDateEmpty   = fmt.Errorf("%w: recurrence rule start date cannot be empty", ErrValidation)
	ErrRuleEndBeforeStart   = fmt.Errorf("%w: end date cannot be before start date", ErrValidation)
)

// RecurrenceRule is a declarative template describing how often, and for
// whom, a task is created automatically.
//
// LastGenerated is the watermark of the most recent generation. It only ever
// moves forward and is advanced exclusively by the scheduler.
type RecurrenceRule struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	ClientID      *uuid.UUID `json:"client_id,omitempty"`
	ServiceID     *uuid.UUID `json:"service_id,omitempty"`
	AssignedTo    *uuid.UUID `json:"assigned_to,omitempty"`
	Frequency     Frequency  `json:"frequency"`
	DayOfMonth    *int       `json:"day_of_month,omitempty"`
	DayOfWeek     *int       `json:"day_of_week,omitempty"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	Active        bool       `json:"active"`
	LastGenerated *time.Time `json:"last_generated,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// RuleParams carries the administrator-supplied fields of a new rule.
type RuleParams struct {
	Name       string
	ClientID   *uuid.UUID
	ServiceID  *uuid.UUID
	AssignedTo *uuid.UUID
	Frequency  Frequency
	DayOfMonth *int
	DayOfWeek  *int
	StartDate  time.Time
	EndDate    *time.Time
}

// NewRecurrenceRule creates an active rule with a fresh ID and no watermark.
// Dates are normalized to civil dates. Returns an error if validation fails.
func NewRecurrenceRule(p RuleParams, now time.Time) (*RecurrenceRule, error) {
	rule := &RecurrenceRule{
		ID:         uuid.New(),
		Name:       strings.TrimSpace(p.Name),
		ClientID:   copyID(p.ClientID),
		ServiceID:  copyID(p.ServiceID),
		AssignedTo: copyID(p.AssignedTo),
		Frequency:  p.Frequency,
		DayOfMonth: copyInt(p.DayOfMonth),
		DayOfWeek:  copyInt(p.DayOfWeek),
		StartDate:  CivilDate(p.StartDate),
		Active:     true,
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}
	if p.StartDate.IsZero() {
		rule.StartDate = time.Time{}
	}
	if p.EndDate != nil {
		end := CivilDate(*p.EndDate)
		rule.EndDate = &end
	}

	if err := rule.Validate(); err != nil {
		return nil, err
	}

	return rule, nil
}

// Validate checks the rule's fields.
func (r *RecurrenceRule) Validate() error {
	if r.ID == uuid.Nil {
		return ErrRuleIDEmpty
	}

	if strings.TrimSpace(r.Name) == "" {
		return ErrRuleNameEmpty
	}

	if !r.Frequency.IsValid() {
		return ErrRuleFrequencyInvalid
	}

	if r.DayOfMonth != nil && (*r.DayOfMonth < 1 || *r.DayOfMonth > 31) {
		return ErrRuleDayOfMonth
	}

	if r.Frequency == FrequencyMonthly && r.DayOfMonth == nil {
		return ErrRuleDayOfMonthNeeded
	}

	if r.DayOfWeek != nil && (*r.DayOfWeek < 0 || *r.DayOfWeek > 6) {
		return ErrRuleDayOfWeek
	}

	if r.StartDate.IsZero() {
		return ErrRuleStartDateEmpty
	}

	if r.EndDate != nil && CivilDate(*r.EndDate).Before(CivilDate(r.StartDate)) {
		return ErrRuleEndBeforeStart
	}

	return nil
}

// Update replaces the administrator-editable fields and the active flag.
// The ID, creation time and LastGenerated are kept. The rule is left
// unchanged if the result fails validation.
func (r *RecurrenceRule) Update(p RuleParams, active bool, now time.Time) error {
	next := *r
	next.Name = strings.TrimSpace(p.Name)
	next.ClientID = copyID(p.ClientID)
	next.ServiceID = copyID(p.ServiceID)
	next.AssignedTo = copyID(p.AssignedTo)
	next.Frequency = p.Frequency
	next.DayOfMonth = copyInt(p.DayOfMonth)
	next.DayOfWeek = copyInt(p.DayOfWeek)
	next.StartDate = time.Time{}
	if !p.StartDate.IsZero() {
		next.StartDate = CivilDate(p.StartDate)
	}
	next.EndDate = nil
	if p.EndDate != nil {
		end := CivilDate(*p.EndDate)
		next.EndDate = &end
	}
	next.Active = active
	next.UpdatedAt = now.UTC()

	if err := next.Validate(); err != nil {
		return err
	}

	*r = next
	return nil
}

// Deactivate switches the rule off. Rules are never deleted by the
// scheduler; deactivation is the only way to retire one.
func (r *RecurrenceRule) Deactivate(now time.Time) {
	r.Active = false
	r.UpdatedAt = now.UTC()
}

// ProvenanceNote is the human-readable note attached to tasks generated from
// this rule. The structured link is Task.OriginRuleID.
func (r *RecurrenceRule) ProvenanceNote() string {
	return "Auto-generated from recurring rule: " + r.Name
}

// IsValid reports whether f is one of the supported frequencies.
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly,
		FrequencyQuarterly, FrequencyYearly:
		return true
	default:
		return false
	}
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
