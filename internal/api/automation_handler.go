package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/practice-scheduler/internal/api/shared"
	"github.com/phrazzld/practice-scheduler/internal/platform/logger"
	"github.com/phrazzld/practice-scheduler/internal/scheduler"
)

// CycleRunner runs automation cycles on demand. It is implemented by
// *trigger.Trigger, which serializes manual and scheduled runs.
type CycleRunner interface {
	RunNow(ctx context.Context) scheduler.CycleSummary
	RunAt(ctx context.Context, now time.Time) scheduler.CycleSummary
}

// RunHistory reports the most recent completed cycle.
type RunHistory interface {
	Last() (scheduler.CycleSummary, bool)
}

// AutomationHandler exposes manual cycle runs and the last run's summary.
type AutomationHandler struct {
	runner  CycleRunner
	history RunHistory
	logger  *slog.Logger
}

// NewAutomationHandler creates a new AutomationHandler.
func NewAutomationHandler(runner CycleRunner, history RunHistory, logger *slog.Logger) *AutomationHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AutomationHandler")
	}

	return &AutomationHandler{
		runner:  runner,
		history: history,
		logger:  logger.With(slog.String("component", "automation_handler")),
	}
}

// RunCycle handles POST /automation/run. The body is optional; an "at"
// timestamp replays the cycle as of that instant.
func (h *AutomationHandler) RunCycle(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req RunCycleRequest
	if err := shared.DecodeJSON(r, &req); err != nil && !errors.Is(err, shared.ErrEmptyBody) {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	var summary scheduler.CycleSummary
	if req.At != nil && !req.At.IsZero() {
		summary = h.runner.RunAt(r.Context(), *req.At)
	} else {
		summary = h.runner.RunNow(r.Context())
	}

	log.Info("manual automation cycle finished",
		slog.String("run_id", summary.RunID.String()),
		slog.Int("errors", summary.Errors))

	shared.RespondWithJSON(w, r, http.StatusOK, summaryToResponse(summary))
}

// LastRun handles GET /automation/last-run. Returns 404 until a cycle has
// completed.
func (h *AutomationHandler) LastRun(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.history.Last()
	if !ok {
		shared.RespondWithError(w, r, http.StatusNotFound, "No automation cycle has run yet")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, summaryToResponse(summary))
}
