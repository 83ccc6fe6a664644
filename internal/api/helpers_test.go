package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/practice-scheduler/internal/domain"
	"github.com/phrazzld/practice-scheduler/internal/mocks"
	"github.com/phrazzld/practice-scheduler/internal/scheduler"
	"github.com/phrazzld/practice-scheduler/internal/service"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.January, 15, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeRunner records manual cycle requests.
type fakeRunner struct {
	mu      sync.Mutex
	nowRuns int
	atRuns  []time.Time
	summary scheduler.CycleSummary
}

func (f *fakeRunner) RunNow(_ context.Context) scheduler.CycleSummary {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nowRuns++
	return f.summary
}

func (f *fakeRunner) RunAt(_ context.Context, now time.Time) scheduler.CycleSummary {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.atRuns = append(f.atRuns, now)
	s := f.summary
	s.Now = now
	return s
}

type testServer struct {
	mem      *mocks.MemoryStore
	runner   *fakeRunner
	recorder *scheduler.LastRunRecorder
	router   http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mem := mocks.NewMemoryStore()

	ruleSvc, err := service.NewRuleService(mem.Stores(), mem, fixedClock, discardLogger())
	require.NoError(t, err)
	taskSvc, err := service.NewTaskService(mem.Stores(), mem, fixedClock, discardLogger())
	require.NoError(t, err)

	runner := &fakeRunner{summary: scheduler.CycleSummary{
		RunID:        uuid.New(),
		TasksCreated: 2,
		Duration:     1500 * time.Millisecond,
	}}
	recorder := scheduler.NewLastRunRecorder()

	rules := NewRuleHandler(ruleSvc, discardLogger())
	tasks := NewTaskHandler(taskSvc, discardLogger())
	automation := NewAutomationHandler(runner, recorder, discardLogger())

	r := chi.NewRouter()
	r.Route("/recurring-rules", func(r chi.Router) {
		r.Get("/", rules.ListRules)
		r.Post("/", rules.CreateRule)
		r.Get("/{id}", rules.GetRule)
		r.Put("/{id}", rules.UpdateRule)
		r.Delete("/{id}", rules.DeactivateRule)
		r.Post("/{id}/deactivate", rules.DeactivateRule)
		r.Get("/{id}/tasks", rules.ListRuleTasks)
	})
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/{id}", tasks.GetTask)
		r.Put("/{id}/status", tasks.UpdateStatus)
		r.Get("/{id}/reminders", tasks.ListReminders)
	})
	r.Post("/automation/run", automation.RunCycle)
	r.Get("/automation/last-run", automation.LastRun)

	return &testServer{mem: mem, runner: runner, recorder: recorder, router: r}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func intPtr(v int) *int { return &v }

func seedRule(t *testing.T, mem *mocks.MemoryStore, name string) *domain.RecurrenceRule {
	t.Helper()
	rule, err := domain.NewRecurrenceRule(domain.RuleParams{
		Name:       name,
		Frequency:  domain.FrequencyMonthly,
		DayOfMonth: intPtr(20),
		StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}, fixedNow)
	require.NoError(t, err)
	mem.PutRule(rule)
	return rule
}

func seedTask(t *testing.T, mem *mocks.MemoryStore, rule *domain.RecurrenceRule, due time.Time) *domain.Task {
	t.Helper()
	task, err := domain.NewTaskFromRule(rule, due, fixedNow)
	require.NoError(t, err)
	mem.PutTask(task)
	return task
}
