package api

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/practice-scheduler/internal/domain"
	"github.com/phrazzld/practice-scheduler/internal/scheduler"
)

// DateLayout is the wire format of civil dates.
const DateLayout = "2006-01-02"

// CreateRuleRequest defines the payload for creating a recurrence rule.
type CreateRuleRequest struct {
	Name       string     `json:"name"                   validate:"required,max=255"`
	ClientID   *uuid.UUID `json:"client_id,omitempty"`
	ServiceID  *uuid.UUID `json:"service_id,omitempty"`
	AssignedTo *uuid.UUID `json:"assigned_to,omitempty"`
	Frequency  string     `json:"frequency"              validate:"required,oneof=daily weekly monthly quarterly yearly"`
	DayOfMonth *int       `json:"day_of_month,omitempty" validate:"omitempty,min=1,max=31"`
	DayOfWeek  *int       `json:"day_of_week,omitempty"  validate:"omitempty,min=0,max=6"`
	StartDate  string     `json:"start_date"             validate:"required,datetime=2006-01-02"`
	EndDate    string     `json:"end_date,omitempty"     validate:"omitempty,datetime=2006-01-02"`
}

// ToParams converts the request into domain rule parameters. The request
// must already have passed validation.
func (r CreateRuleRequest) ToParams() (domain.RuleParams, error) {
	start, err := time.Parse(DateLayout, r.StartDate)
	if err != nil {
		return domain.RuleParams{}, fmt.Errorf("%w: start_date must be YYYY-MM-DD", domain.ErrValidation)
	}

	params := domain.RuleParams{
		Name:       r.Name,
		ClientID:   r.ClientID,
		ServiceID:  r.ServiceID,
		AssignedTo: r.AssignedTo,
		Frequency:  domain.Frequency(r.Frequency),
		DayOfMonth: r.DayOfMonth,
		DayOfWeek:  r.DayOfWeek,
		StartDate:  start,
	}

	if r.EndDate != "" {
		end, err := time.Parse(DateLayout, r.EndDate)
		if err != nil {
			return domain.RuleParams{}, fmt.Errorf("%w: end_date must be YYYY-MM-DD", domain.ErrValidation)
		}
		params.EndDate = &end
	}

	return params, nil
}

// UpdateRuleRequest defines the payload for replacing a recurrence rule's
// editable fields. The watermark cannot be set through the API.
type UpdateRuleRequest struct {
	CreateRuleRequest
	Active *bool `json:"active" validate:"required"`
}

// UpdateTaskStatusRequest defines the payload for changing a task's status.
type UpdateTaskStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress completed overdue"`
}

// RunCycleRequest defines the optional payload for a manual cycle. At
// overrides the cycle's reference time; zero means now.
type RunCycleRequest struct {
	At *time.Time `json:"at,omitempty"`
}

// RuleResponse is the API representation of a recurrence rule.
type RuleResponse struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	ClientID      *uuid.UUID `json:"client_id,omitempty"`
	ServiceID     *uuid.UUID `json:"service_id,omitempty"`
	AssignedTo    *uuid.UUID `json:"assigned_to,omitempty"`
	Frequency     string     `json:"frequency"`
	DayOfMonth    *int       `json:"day_of_month,omitempty"`
	DayOfWeek     *int       `json:"day_of_week,omitempty"`
	StartDate     string     `json:"start_date"`
	EndDate       string     `json:"end_date,omitempty"`
	Active        bool       `json:"active"`
	LastGenerated string     `json:"last_generated,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TaskResponse is the API representation of a task.
type TaskResponse struct {
	ID             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	ClientID       *uuid.UUID `json:"client_id,omitempty"`
	ServiceID      *uuid.UUID `json:"service_id,omitempty"`
	AssignedTo     *uuid.UUID `json:"assigned_to,omitempty"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	DueDate        string     `json:"due_date"`
	CompletionDate *time.Time `json:"completion_date,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	OriginRuleID   *uuid.UUID `json:"origin_rule_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ReminderResponse is the API representation of a reminder.
type ReminderResponse struct {
	ID           uuid.UUID  `json:"id"`
	TaskID       *uuid.UUID `json:"task_id,omitempty"`
	ClientID     *uuid.UUID `json:"client_id,omitempty"`
	UserID       *uuid.UUID `json:"user_id,omitempty"`
	Type         string     `json:"type"`
	Message      string     `json:"message"`
	ReminderDate time.Time  `json:"reminder_date"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
}

// CycleSummaryResponse is the API representation of an automation cycle.
type CycleSummaryResponse struct {
	RunID              uuid.UUID `json:"run_id"`
	StartedAt          time.Time `json:"started_at"`
	Now                time.Time `json:"now"`
	TasksCreated       int       `json:"tasks_created"`
	TasksMarkedOverdue int64     `json:"tasks_marked_overdue"`
	RemindersCreated   int       `json:"reminders_created"`
	Errors             int       `json:"errors"`
	DurationMS         int64     `json:"duration_ms"`
}

func ruleToResponse(rule *domain.RecurrenceRule) RuleResponse {
	resp := RuleResponse{
		ID:         rule.ID,
		Name:       rule.Name,
		ClientID:   rule.ClientID,
		ServiceID:  rule.ServiceID,
		AssignedTo: rule.AssignedTo,
		Frequency:  string(rule.Frequency),
		DayOfMonth: rule.DayOfMonth,
		DayOfWeek:  rule.DayOfWeek,
		StartDate:  rule.StartDate.Format(DateLayout),
		Active:     rule.Active,
		CreatedAt:  rule.CreatedAt,
		UpdatedAt:  rule.UpdatedAt,
	}
	if rule.EndDate != nil {
		resp.EndDate = rule.EndDate.Format(DateLayout)
	}
	if rule.LastGenerated != nil {
		resp.LastGenerated = rule.LastGenerated.Format(DateLayout)
	}
	return resp
}

func rulesToResponse(rules []*domain.RecurrenceRule) []RuleResponse {
	out := make([]RuleResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, ruleToResponse(rule))
	}
	return out
}

func taskToResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:             task.ID,
		Title:          task.Title,
		Description:    task.Description,
		ClientID:       task.ClientID,
		ServiceID:      task.ServiceID,
		AssignedTo:     task.AssignedTo,
		Status:         string(task.Status),
		Priority:       string(task.Priority),
		DueDate:        task.DueDate.Format(DateLayout),
		CompletionDate: task.CompletionDate,
		Notes:          task.Notes,
		OriginRuleID:   task.OriginRuleID,
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
	}
}

func tasksToResponse(tasks []*domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, taskToResponse(task))
	}
	return out
}

func remindersToResponse(reminders []*domain.Reminder) []ReminderResponse {
	out := make([]ReminderResponse, 0, len(reminders))
	for _, r := range reminders {
		out = append(out, ReminderResponse{
			ID:           r.ID,
			TaskID:       r.TaskID,
			ClientID:     r.ClientID,
			UserID:       r.UserID,
			Type:         string(r.Type),
			Message:      r.Message,
			ReminderDate: r.ReminderDate,
			Status:       string(r.Status),
			CreatedAt:    r.CreatedAt,
		})
	}
	return out
}

func summaryToResponse(s scheduler.CycleSummary) CycleSummaryResponse {
	return CycleSummaryResponse{
		RunID:              s.RunID,
		StartedAt:          s.StartedAt,
		Now:                s.Now,
		TasksCreated:       s.TasksCreated,
		TasksMarkedOverdue: s.TasksMarkedOverdue,
		RemindersCreated:   s.RemindersCreated,
		Errors:             s.Errors,
		DurationMS:         s.Duration.Milliseconds(),
	}
}
