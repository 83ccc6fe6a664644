package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/practice-scheduler/internal/api/shared"
	"github.com/phrazzld/practice-scheduler/internal/platform/logger"
	"github.com/phrazzld/practice-scheduler/internal/service"
)

// RuleHandler handles recurrence rule HTTP requests.
type RuleHandler struct {
	ruleService service.RuleService
	logger      *slog.Logger
}

// NewRuleHandler creates a new RuleHandler.
func NewRuleHandler(ruleService service.RuleService, logger *slog.Logger) *RuleHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for RuleHandler")
	}

	return &RuleHandler{
		ruleService: ruleService,
		logger:      logger.With(slog.String("component", "rule_handler")),
	}
}

// ListRules handles GET /recurring-rules. Inactive rules are included when the
// include_inactive query parameter is true.
func (h *RuleHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	includeInactive, err := getQueryBool(r, "include_inactive")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("listing recurrence rules",
		slog.Bool("include_inactive", includeInactive))

	rules, err := h.ruleService.ListRules(r.Context(), includeInactive)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list recurrence rules")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, rulesToResponse(rules))
}

// CreateRule handles POST /recurring-rules.
func (h *RuleHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req CreateRuleRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	params, err := req.ToParams()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	rule, err := h.ruleService.CreateRule(r.Context(), params)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, ruleToResponse(rule))
}

// GetRule handles GET /recurring-rules/{id}.
func (h *RuleHandler) GetRule(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	rule, err := h.ruleService.GetRule(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ruleToResponse(rule))
}

// UpdateRule handles PUT /recurring-rules/{id}.
func (h *RuleHandler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req UpdateRuleRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	params, err := req.ToParams()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	rule, err := h.ruleService.UpdateRule(r.Context(), id, params, *req.Active)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ruleToResponse(rule))
}

// DeactivateRule handles POST /recurring-rules/{id}/deactivate and
// DELETE /recurring-rules/{id}. Rules are switched off rather than removed
// so that generated tasks keep their origin.
func (h *RuleHandler) DeactivateRule(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	rule, err := h.ruleService.DeactivateRule(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ruleToResponse(rule))
}

// ListRuleTasks handles GET /recurring-rules/{id}/tasks.
func (h *RuleHandler) ListRuleTasks(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	tasks, err := h.ruleService.ListRuleTasks(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks))
}
