package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types published by the scheduler.
const (
	// TypeCycleCompleted is emitted once per cycle; the payload is the cycle summary.
	TypeCycleCompleted = "automation.cycle_completed"

	// TypeTaskMaterialized is emitted after a generated task is committed.
	TypeTaskMaterialized = "automation.task_materialized"
)

// Event is a notification with a JSON-encoded payload.
type Event struct {
	// ID uniquely identifies this event.
	ID uuid.UUID `json:"id"`

	// Type tells handlers how to decode the payload.
	Type string `json:"type"`

	// Payload holds event-specific data.
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the scheduler time the event refers to, not the wall clock.
	CreatedAt time.Time `json:"created_at"`
}

// NewEvent creates an event, marshaling payload to JSON.
func NewEvent(eventType string, payload any, at time.Time) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   data,
		CreatedAt: at.UTC(),
	}, nil
}

// UnmarshalPayload decodes the event payload into v.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// TaskMaterializedPayload describes a task generated from a rule.
type TaskMaterializedPayload struct {
	RuleID  uuid.UUID `json:"rule_id"`
	TaskID  uuid.UUID `json:"task_id"`
	DueDate time.Time `json:"due_date"`
	// ReferencesCleared is true when the task was created without the
	// rule's client, service or assignee because one no longer existed.
	ReferencesCleared bool `json:"references_cleared"`
}

// EventHandler reacts to events.
type EventHandler interface {
	// HandleEvent processes one event. Errors are reported to the emitter's
	// caller but do not stop delivery to other handlers.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter publishes events.
type EventEmitter interface {
	// EmitEvent delivers event to every registered handler.
	EmitEvent(ctx context.Context, event *Event) error
}
