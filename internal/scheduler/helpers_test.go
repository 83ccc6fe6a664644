package scheduler

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/practice-scheduler/internal/domain"
	"github.com/phrazzld/practice-scheduler/internal/mocks"
	"github.com/stretchr/testify/require"
)

var fixedClock = func() time.Time {
	return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestScheduler(mem *mocks.MemoryStore, opts ...Option) (*Scheduler, *mocks.MockEventEmitter) {
	emitter := &mocks.MockEventEmitter{}
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	return New(mem.Stores(), mem, emitter, discardLogger(), opts...), emitter
}

func at(year int, month time.Month, d, hour int) time.Time {
	return time.Date(year, month, d, hour, 0, 0, 0, time.UTC)
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int {
	return &v
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func newRule(
	t *testing.T,
	name string,
	freq domain.Frequency,
	dom *int,
	last *time.Time,
) *domain.RecurrenceRule {
	t.Helper()
	rule := &domain.RecurrenceRule{
		ID:            uuid.New(),
		Name:          name,
		Frequency:     freq,
		DayOfMonth:    dom,
		StartDate:     day(2023, time.January, 1),
		Active:        true,
		LastGenerated: last,
		CreatedAt:     day(2023, time.January, 1),
		UpdatedAt:     day(2023, time.January, 1),
	}
	require.NoError(t, rule.Validate())
	return rule
}

func newTask(t *testing.T, title string, status domain.TaskStatus, due time.Time) *domain.Task {
	t.Helper()
	task := &domain.Task{
		ID:        uuid.New(),
		Title:     title,
		Status:    status,
		Priority:  domain.TaskPriorityMedium,
		DueDate:   due,
		CreatedAt: day(2024, time.January, 1),
		UpdatedAt: day(2024, time.January, 1),
	}
	require.NoError(t, task.Validate())
	return task
}
