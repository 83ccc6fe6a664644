package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/phrazzld/practice-scheduler/internal/events"
)

// LastRunRecorder remembers the summary of the most recent cycle. It is an
// events.EventHandler for TypeCycleCompleted events.
type LastRunRecorder struct {
	mu      sync.RWMutex
	last    CycleSummary
	hasLast bool
}

var _ events.EventHandler = (*LastRunRecorder)(nil)

// NewLastRunRecorder creates an empty recorder.
func NewLastRunRecorder() *LastRunRecorder {
	return &LastRunRecorder{}
}

// HandleEvent implements events.EventHandler. Other event types are ignored.
func (r *LastRunRecorder) HandleEvent(_ context.Context, event *events.Event) error {
	if event.Type != events.TypeCycleCompleted {
		return nil
	}

	var summary CycleSummary
	if err := event.UnmarshalPayload(&summary); err != nil {
		return fmt.Errorf("decode cycle summary: %w", err)
	}

	r.Record(summary)
	return nil
}

// Record stores summary as the latest run.
func (r *LastRunRecorder) Record(summary CycleSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = summary
	r.hasLast = true
}

// Last returns the latest summary and whether any cycle has completed.
func (r *LastRunRecorder) Last() (CycleSummary, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last, r.hasLast
}
