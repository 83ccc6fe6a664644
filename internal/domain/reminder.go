package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReminderType classifies what a reminder is about.
type ReminderType string

// Possible reminder types. The scheduler only creates task_due reminders.
const (
	ReminderTypeTaskDue    ReminderType = "task_due"
	ReminderTypeFollowup   ReminderType = "followup"
	ReminderTypeCompliance ReminderType = "compliance"
	ReminderTypeCustom     ReminderType = "custom"
)

// ReminderStatus is the delivery state of a reminder.
type ReminderStatus string

// Possible reminder statuses.
const (
	ReminderStatusPending   ReminderStatus = "pending"
	ReminderStatusSent      ReminderStatus = "sent"
	ReminderStatusDismissed ReminderStatus = "dismissed"
)

// Validation errors for Reminder.
var (
	ErrReminderIDEmpty       = fmt.Errorf("%w: reminder ID cannot be empty", ErrValidation)
	ErrReminderTypeInvalid   = fmt.Errorf("%w: invalid reminder type", ErrValidation)
	ErrReminderStatusInvalid = fmt.Errorf("%w: invalid reminder status", ErrValidation)
	ErrReminderMessageEmpty  = fmt.Errorf("%w: reminder message cannot be empty", ErrValidation)
	ErrReminderDateEmpty     = fmt.Errorf("%w: reminder date cannot be empty", ErrValidation)
)

// Reminder is a notice addressed to the assignee of a task (and its client).
type Reminder struct {
	ID           uuid.UUID      `json:"id"`
	TaskID       *uuid.UUID     `json:"task_id,omitempty"`
	ClientID     *uuid.UUID     `json:"client_id,omitempty"`
	UserID       *uuid.UUID     `json:"user_id,omitempty"`
	Type         ReminderType   `json:"type"`
	Message      string         `json:"message"`
	ReminderDate time.Time      `json:"reminder_date"`
	Status       ReminderStatus `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
}

// NewTaskDueReminder builds the pending reminder for a task due the day after now.
func NewTaskDueReminder(task *Task, now time.Time) (*Reminder, error) {
	taskID := task.ID
	reminder := &Reminder{
		ID:           uuid.New(),
		TaskID:       &taskID,
		ClientID:     copyID(task.ClientID),
		UserID:       copyID(task.AssignedTo),
		Type:         ReminderTypeTaskDue,
		Message:      TaskDueMessage(task.Title),
		ReminderDate: now,
		Status:       ReminderStatusPending,
		CreatedAt:    now.UTC(),
	}

	if err := reminder.Validate(); err != nil {
		return nil, err
	}

	return reminder, nil
}

// TaskDueMessage is the reminder text for a task due tomorrow.
func TaskDueMessage(title string) string {
	return fmt.Sprintf("Task '%s' is due tomorrow", title)
}

// Validate checks the reminder's fields.
func (r *Reminder) Validate() error {
	if r.ID == uuid.Nil {
		return ErrReminderIDEmpty
	}

	switch r.Type {
	case ReminderTypeTaskDue, ReminderTypeFollowup, ReminderTypeCompliance, ReminderTypeCustom:
	default:
		return ErrReminderTypeInvalid
	}

	switch r.Status {
	case ReminderStatusPending, ReminderStatusSent, ReminderStatusDismissed:
	default:
		return ErrReminderStatusInvalid
	}

	if strings.TrimSpace(r.Message) == "" {
		return ErrReminderMessageEmpty
	}

	if r.ReminderDate.IsZero() {
		return ErrReminderDateEmpty
	}

	return nil
}
