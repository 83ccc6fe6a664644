package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/practice-scheduler/internal/domain"
	"github.com/phrazzld/practice-scheduler/internal/domain/recurrence"
	"github.com/phrazzld/practice-scheduler/internal/events"
	"github.com/phrazzld/practice-scheduler/internal/mocks"
	"github.com/phrazzld/practice-scheduler/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCycleScenarios(t *testing.T) {
	t.Parallel()

	t.Run("monthly rule generated earlier in the month materializes once", func(t *testing.T) {
		t.Parallel()
		mem := mocks.NewMemoryStore()
		rule := newRule(t, "Monthly GST Returns", domain.FrequencyMonthly, intPtr(20),
			timePtr(day(2024, time.January, 5)))
		mem.PutRule(rule)
		s, _ := newTestScheduler(mem)
		now := at(2024, time.January, 22, 6)

		first := s.RunCycle(context.Background(), now)
		second := s.RunCycle(context.Background(), now)

		assert.Equal(t, 1, first.TasksCreated)
		assert.Zero(t, first.Errors)
		assert.Zero(t, second.TasksCreated)
		tasks := mem.AllTasks()
		require.Len(t, tasks, 1)
		assert.True(t, tasks[0].DueDate.Equal(day(2024, time.February, 20)))
		assert.True(t, mem.Rule(rule.ID).LastGenerated.Equal(now))
	})

	t.Run("overdue sweep is idempotent", func(t *testing.T) {
		t.Parallel()
		mem := mocks.NewMemoryStore()
		task := newTask(t, "Audit Prep", domain.TaskStatusPending, day(2024, time.January, 10))
		mem.PutTask(task)
		s, _ := newTestScheduler(mem)
		now := at(2024, time.January, 15, 6)

		first := s.RunCycle(context.Background(), now)
		second := s.RunCycle(context.Background(), now)

		assert.EqualValues(t, 1, first.TasksMarkedOverdue)
		assert.Zero(t, second.TasksMarkedOverdue)
		assert.Equal(t, domain.TaskStatusOverdue, mem.Task(task.ID).Status)
	})

	t.Run("reminder deduplicated within a day", func(t *testing.T) {
		t.Parallel()
		mem := mocks.NewMemoryStore()
		mem.PutTask(newTask(t, "TDS Return", domain.TaskStatusPending, day(2024, time.January, 16)))
		s, _ := newTestScheduler(mem)

		first := s.RunCycle(context.Background(), at(2024, time.January, 15, 6))
		second := s.RunCycle(context.Background(), at(2024, time.January, 15, 18))

		assert.Equal(t, 1, first.RemindersCreated)
		assert.Zero(t, second.RemindersCreated)
		reminders := mem.AllReminders()
		require.Len(t, reminders, 1)
		assert.Equal(t, "Task 'TDS Return' is due tomorrow", reminders[0].Message)
	})

	t.Run("ended rule is ignored", func(t *testing.T) {
		t.Parallel()
		mem := mocks.NewMemoryStore()
		rule := newRule(t, "Old Engagement", domain.FrequencyDaily, nil, nil)
		rule.EndDate = timePtr(day(2024, time.January, 10))
		mem.PutRule(rule)
		s, _ := newTestScheduler(mem)

		summary := s.RunCycle(context.Background(), at(2024, time.January, 15, 6))

		assert.Zero(t, summary.TasksCreated)
		assert.Empty(t, mem.AllTasks())
		assert.Nil(t, mem.Rule(rule.ID).LastGenerated)
	})
}

func TestRunCycleOrdersSteps(t *testing.T) {
	t.Parallel()
	mem := mocks.NewMemoryStore()
	rule := newRule(t, "Daily Bookkeeping", domain.FrequencyDaily, nil, nil)
	mem.PutRule(rule)
	s, _ := newTestScheduler(mem)
	now := at(2024, time.January, 15, 6)

	summary := s.RunCycle(context.Background(), now)

	// The new task is due tomorrow: it is not swept, and it gets its reminder
	// in the same cycle.
	assert.Equal(t, 1, summary.TasksCreated)
	assert.Zero(t, summary.TasksMarkedOverdue)
	assert.Equal(t, 1, summary.RemindersCreated)
	tasks := mem.AllTasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, domain.TaskStatusPending, tasks[0].Status)
	assert.True(t, tasks[0].DueDate.Equal(day(2024, time.January, 16)))
}

func TestRunCycleSummary(t *testing.T) {
	t.Parallel()
	mem := mocks.NewMemoryStore()
	s, emitter := newTestScheduler(mem)
	now := at(2024, time.January, 15, 6)

	summary := s.RunCycle(context.Background(), now)

	assert.NotEqual(t, uuid.Nil, summary.RunID)
	assert.True(t, summary.StartedAt.Equal(fixedClock()))
	assert.True(t, summary.Now.Equal(now))
	assert.Zero(t, summary.Duration)
	assert.Zero(t, summary.Errors)

	completed := emitter.EventsOfType(events.TypeCycleCompleted)
	require.Len(t, completed, 1)
	var decoded CycleSummary
	require.NoError(t, completed[0].UnmarshalPayload(&decoded))
	assert.Equal(t, summary.RunID, decoded.RunID)
	assert.True(t, decoded.Now.Equal(now))
	assert.True(t, completed[0].CreatedAt.Equal(now))
}

func TestRunCycleEmitsTaskMaterializedEvents(t *testing.T) {
	t.Parallel()
	mem := mocks.NewMemoryStore()
	mem.EnforceReferences = true
	missing := uuid.New()
	rule := newRule(t, "TDS Return", domain.FrequencyMonthly, intPtr(7), nil)
	rule.ServiceID = &missing
	mem.PutRule(rule)
	s, emitter := newTestScheduler(mem)

	summary := s.RunCycle(context.Background(), at(2024, time.January, 8, 6))

	assert.Equal(t, 1, summary.TasksCreated)
	assert.Zero(t, summary.Errors)

	materialized := emitter.EventsOfType(events.TypeTaskMaterialized)
	require.Len(t, materialized, 1)
	var payload events.TaskMaterializedPayload
	require.NoError(t, materialized[0].UnmarshalPayload(&payload))
	assert.Equal(t, rule.ID, payload.RuleID)
	assert.True(t, payload.ReferencesCleared)
	assert.True(t, payload.DueDate.Equal(day(2024, time.February, 7)))

	all := emitter.Events()
	require.Len(t, all, 2)
	assert.Equal(t, events.TypeCycleCompleted, all[1].Type)
}

func TestRunCycleContinuesAfterStepFailures(t *testing.T) {
	t.Parallel()
	mem := mocks.NewMemoryStore()
	mem.PutRule(newRule(t, "Daily Bookkeeping", domain.FrequencyDaily, nil, nil))
	mem.PutTask(newTask(t, "Audit Prep", domain.TaskStatusPending, day(2024, time.January, 10)))
	mem.PutTask(newTask(t, "TDS Return", domain.TaskStatusPending, day(2024, time.January, 16)))
	mem.ListEligibleFn = func() error { return errors.New("connection refused") }
	s, _ := newTestScheduler(mem)

	summary := s.RunCycle(context.Background(), at(2024, time.January, 15, 6))

	assert.Equal(t, 1, summary.Errors)
	assert.Zero(t, summary.TasksCreated)
	assert.EqualValues(t, 1, summary.TasksMarkedOverdue)
	assert.Equal(t, 1, summary.RemindersCreated)
}

func TestRunCycleCountsEveryFailure(t *testing.T) {
	t.Parallel()
	mem := mocks.NewMemoryStore()
	mem.PutRule(newRule(t, "First", domain.FrequencyDaily, nil, nil))
	mem.PutRule(newRule(t, "Second", domain.FrequencyDaily, nil, nil))
	mem.CreateTaskFn = func(*domain.Task) error { return errors.New("disk full") }
	mem.MarkOverdueFn = func() error { return errors.New("statement timeout") }
	s, emitter := newTestScheduler(mem)

	summary := s.RunCycle(context.Background(), at(2024, time.January, 15, 6))

	assert.Equal(t, 3, summary.Errors)
	assert.Zero(t, summary.TasksCreated)
	assert.Len(t, emitter.EventsOfType(events.TypeCycleCompleted), 1)
}

func TestRunCycleRecoversFromPanickingStep(t *testing.T) {
	t.Parallel()
	mem := mocks.NewMemoryStore()
	mem.PutTask(newTask(t, "TDS Return", domain.TaskStatusPending, day(2024, time.January, 16)))
	mem.MarkOverdueFn = func() error { panic("driver bug") }
	s, _ := newTestScheduler(mem)

	var summary CycleSummary
	require.NotPanics(t, func() {
		summary = s.RunCycle(context.Background(), at(2024, time.January, 15, 6))
	})

	assert.Equal(t, 1, summary.Errors)
	assert.Equal(t, 1, summary.RemindersCreated)
}

func TestRunCycleIgnoresEmitterFailure(t *testing.T) {
	t.Parallel()
	mem := mocks.NewMemoryStore()
	s, emitter := newTestScheduler(mem)
	emitter.EmitEventFn = func(context.Context, *events.Event) error {
		return errors.New("handler failed")
	}

	summary := s.RunCycle(context.Background(), at(2024, time.January, 15, 6))

	assert.Zero(t, summary.Errors)
	assert.Len(t, emitter.Events(), 1)
}

func TestRunCycleWithoutEmitter(t *testing.T) {
	t.Parallel()
	mem := mocks.NewMemoryStore()
	mem.PutRule(newRule(t, "Daily Bookkeeping", domain.FrequencyDaily, nil, nil))
	s := New(mem.Stores(), mem, nil, nil)

	summary := s.RunCycle(context.Background(), at(2024, time.January, 15, 6))

	assert.Equal(t, 1, summary.TasksCreated)
}

func TestRunCycleConcurrentCyclesCreateOneTask(t *testing.T) {
	t.Parallel()
	mem := mocks.NewMemoryStore()
	mem.PutRule(newRule(t, "Daily Bookkeeping", domain.FrequencyDaily, nil, nil))
	s, _ := newTestScheduler(mem)
	now := at(2024, time.January, 15, 6)

	const cycles = 4
	summaries := make([]CycleSummary, cycles)
	var wg sync.WaitGroup
	for i := 0; i < cycles; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			summaries[i] = s.RunCycle(context.Background(), now)
		}(i)
	}
	wg.Wait()

	created, reminders := 0, 0
	for _, summary := range summaries {
		created += summary.TasksCreated
		reminders += summary.RemindersCreated
		assert.Zero(t, summary.Errors)
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, reminders)
	assert.Len(t, mem.AllTasks(), 1)
	assert.Len(t, mem.AllReminders(), 1)
}

func TestRunCycleLogsCorrelateWithRunID(t *testing.T) {
	mem := mocks.NewMemoryStore()
	mem.PutTask(newTask(t, "Audit Prep", domain.TaskStatusPending, day(2024, time.January, 10)))
	log, buf := logger.GetTestLogger(t)
	s := New(mem.Stores(), mem, nil, log, WithClock(fixedClock))

	summary := s.RunCycle(context.Background(), at(2024, time.January, 15, 6))

	entries := buf.EntriesWithMessage(t, "tasks marked overdue")
	require.Len(t, entries, 1)
	assert.Equal(t, "overdue_sweeper", entries[0]["component"])
	assert.Equal(t, summary.RunID.String(), entries[0]["request_id"])
}

type failingEvaluator struct{}

func (failingEvaluator) Evaluate(*domain.RecurrenceRule, time.Time) (recurrence.Decision, error) {
	return recurrence.Decision{}, errors.New("evaluator unavailable")
}

func TestRunCycleWithEvaluator(t *testing.T) {
	t.Parallel()
	mem := mocks.NewMemoryStore()
	mem.PutRule(newRule(t, "Daily Bookkeeping", domain.FrequencyDaily, nil, nil))
	s, _ := newTestScheduler(mem, WithEvaluator(failingEvaluator{}))

	summary := s.RunCycle(context.Background(), at(2024, time.January, 15, 6))

	assert.Equal(t, 1, summary.Errors)
	assert.Empty(t, mem.AllTasks())
}
