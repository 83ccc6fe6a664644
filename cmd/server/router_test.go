package main

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/phrazzld/practice-scheduler/internal/api"
	"github.com/phrazzld/practice-scheduler/internal/api/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	t.Parallel()
	app, _ := newTestApp(t)

	rec := serve(t, app.setupRouter(), http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.TraceIDHeader))
}

func TestLastRunBeforeAnyCycle(t *testing.T) {
	t.Parallel()
	app, _ := newTestApp(t)

	rec := serve(t, app.setupRouter(), http.MethodGet, "/api/automation/last-run", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()
	app, _ := newTestApp(t)

	rec := serve(t, app.setupRouter(), http.MethodGet, "/api/clients", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestAutomationFlow creates a rule, runs a cycle for a fixed date and reads
// the generated task and reminder back through the API.
func TestAutomationFlow(t *testing.T) {
	t.Parallel()
	app, _ := newTestApp(t)
	router := app.setupRouter()

	rec := serve(t, router, http.MethodPost, "/api/recurring-rules", map[string]any{
		"name":       "Daily bank reconciliation",
		"frequency":  "daily",
		"start_date": "2024-01-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var rule api.RuleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rule))
	assert.True(t, rule.Active)

	rec = serve(t, router, http.MethodPost, "/api/automation/run", map[string]string{
		"at": "2024-01-19T06:00:00Z",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var summary api.CycleSummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.TasksCreated)
	assert.Equal(t, 1, summary.RemindersCreated)
	assert.Zero(t, summary.Errors)

	rec = serve(t, router, http.MethodGet, "/api/automation/last-run", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var last api.CycleSummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &last))
	assert.Equal(t, summary.RunID, last.RunID)

	rec = serve(t, router, http.MethodGet, "/api/recurring-rules/"+rule.ID.String()+"/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var tasks []api.TaskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "2024-01-20", tasks[0].DueDate)
	assert.Equal(t, "pending", tasks[0].Status)

	rec = serve(t, router, http.MethodGet, "/api/tasks/"+tasks[0].ID.String()+"/reminders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var reminders []api.ReminderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reminders))
	require.Len(t, reminders, 1)
	assert.Equal(t, "Task 'Daily bank reconciliation' is due tomorrow", reminders[0].Message)

	rec = serve(t, router, http.MethodPut, "/api/recurring-rules/"+rule.ID.String(), map[string]any{
		"name":       "Daily bank and card reconciliation",
		"frequency":  "daily",
		"start_date": "2024-01-01",
		"active":     true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rule))
	assert.Equal(t, "Daily bank and card reconciliation", rule.Name)
	assert.True(t, rule.Active)
	assert.Equal(t, "2024-01-19", rule.LastGenerated)

	rec = serve(t, router, http.MethodDelete, "/api/recurring-rules/"+rule.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rule))
	assert.False(t, rule.Active)
}
