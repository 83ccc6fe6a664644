package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

// Possible task status values.
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusOverdue    TaskStatus = "overdue"
)

// TaskPriority ranks tasks for the people working them.
type TaskPriority string

// Possible task priorities.
const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

// Validation errors for Task.
var (
	ErrTaskIDEmpty         = fmt.Errorf("%w: task ID cannot be empty", ErrValidation)
	ErrTaskTitleEmpty      = fmt.Errorf("%w: task title cannot be empty", ErrValidation)
	ErrTaskStatusInvalid   = fmt.Errorf("%w: invalid task status", ErrValidation)
	ErrTaskPriorityInvalid = fmt.Errorf("%w: invalid task priority", ErrValidation)
	ErrTaskDueDateEmpty    = fmt.Errorf("%w: task due date cannot be empty", ErrValidation)
)

// taskTransitions lists the statuses reachable from each status. Completed
// is terminal.
var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusPending:    {TaskStatusInProgress, TaskStatusCompleted, TaskStatusOverdue},
	TaskStatusInProgress: {TaskStatusCompleted, TaskStatusOverdue},
	TaskStatusOverdue:    {TaskStatusCompleted},
	TaskStatusCompleted:  {},
}

// Task is a unit of billable work, either entered by staff or materialized
// from a recurrence rule.
type Task struct {
	ID             uuid.UUID    `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description,omitempty"`
	ClientID       *uuid.UUID   `json:"client_id,omitempty"`
	ServiceID      *uuid.UUID   `json:"service_id,omitempty"`
	AssignedTo     *uuid.UUID   `json:"assigned_to,omitempty"`
	Status         TaskStatus   `json:"status"`
	Priority       TaskPriority `json:"priority"`
	DueDate        time.Time    `json:"due_date"`
	CompletionDate *time.Time   `json:"completion_date,omitempty"`
	Notes          string       `json:"notes,omitempty"`
	OriginRuleID   *uuid.UUID   `json:"origin_rule_id,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// NewTaskFromRule builds the pending task a rule produces for one period.
// References are copied from the rule; dueDate is normalized to a civil date.
func NewTaskFromRule(rule *RecurrenceRule, dueDate time.Time, now time.Time) (*Task, error) {
	ruleID := rule.ID
	task := &Task{
		ID:           uuid.New(),
		Title:        rule.Name,
		ClientID:     copyID(rule.ClientID),
		ServiceID:    copyID(rule.ServiceID),
		AssignedTo:   copyID(rule.AssignedTo),
		Status:       TaskStatusPending,
		Priority:     TaskPriorityMedium,
		DueDate:      CivilDate(dueDate),
		Notes:        rule.ProvenanceNote(),
		OriginRuleID: &ruleID,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks the task's fields.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}

	if strings.TrimSpace(t.Title) == "" {
		return ErrTaskTitleEmpty
	}

	if !t.Status.IsValid() {
		return ErrTaskStatusInvalid
	}

	if !t.Priority.IsValid() {
		return ErrTaskPriorityInvalid
	}

	if t.DueDate.IsZero() {
		return ErrTaskDueDateEmpty
	}

	return nil
}

// ClearReferences drops the client, service and assignee links. Used when a
// referenced record no longer exists.
func (t *Task) ClearReferences() {
	t.ClientID = nil
	t.ServiceID = nil
	t.AssignedTo = nil
}

// TransitionTo moves the task to status, enforcing the task state machine.
// Moving to completed stamps CompletionDate with now.
func (t *Task) TransitionTo(status TaskStatus, now time.Time) error {
	if !status.IsValid() {
		return ErrTaskStatusInvalid
	}

	if !t.Status.CanTransitionTo(status) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, t.Status, status)
	}

	t.Status = status
	t.UpdatedAt = now.UTC()
	if status == TaskStatusCompleted {
		completed := now.UTC()
		t.CompletionDate = &completed
	}

	return nil
}

// IsOverdueAt reports whether the sweeper would flag the task at now.
func (t *Task) IsOverdueAt(now time.Time) bool {
	open := t.Status == TaskStatusPending || t.Status == TaskStatusInProgress
	return open && CivilDate(t.DueDate).Before(CivilDate(now))
}

// IsValid reports whether s is a known task status.
func (s TaskStatus) IsValid() bool {
	_, ok := taskTransitions[s]
	return ok
}

// CanTransitionTo reports whether the state machine allows s -> next.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	for _, allowed := range taskTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsValid reports whether p is a known priority.
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	default:
		return false
	}
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
