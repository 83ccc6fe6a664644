package scheduler

import (
	"time"

	"github.com/google/uuid"
)

// CycleSummary reports what one automation cycle did.
type CycleSummary struct {
	RunID              uuid.UUID     `json:"run_id"`
	StartedAt          time.Time     `json:"started_at"`
	Now                time.Time     `json:"now"`
	TasksCreated       int           `json:"tasks_created"`
	TasksMarkedOverdue int64         `json:"tasks_marked_overdue"`
	RemindersCreated   int           `json:"reminders_created"`
	Errors             int           `json:"errors"`
	Duration           time.Duration `json:"duration_ns"`
}
