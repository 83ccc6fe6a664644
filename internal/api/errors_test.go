package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/practice-scheduler/internal/api/shared"
	"github.com/phrazzld/practice-scheduler/internal/domain"
	"github.com/phrazzld/practice-scheduler/internal/service"
	"github.com/phrazzld/practice-scheduler/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"nil error", nil, http.StatusInternalServerError},
		{"rule not found", service.ErrRuleNotFound, http.StatusNotFound},
		{"task not found", service.ErrTaskNotFound, http.StatusNotFound},
		{"store not found", fmt.Errorf("lookup: %w", store.ErrNotFound), http.StatusNotFound},
		{"lock conflict", store.ErrLockConflict, http.StatusConflict},
		{"invalid transition", fmt.Errorf("%w: completed to pending", domain.ErrInvalidTransition), http.StatusConflict},
		{"duplicate", store.ErrDuplicate, http.StatusConflict},
		{"validation", domain.ErrRuleNameEmpty, http.StatusBadRequest},
		{"invalid id", domain.ErrInvalidID, http.StatusBadRequest},
		{"missing reference", store.ErrMissingReference, http.StatusBadRequest},
		{
			"wrapped in service error",
			&service.ServiceError{Service: "rule", Operation: "create_rule", Err: domain.ErrRuleDayOfWeek},
			http.StatusBadRequest,
		},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedStatus, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "An unexpected error occurred"},
		{"rule not found", service.ErrRuleNotFound, "Recurrence rule not found"},
		{"task not found", store.ErrTaskNotFound, "Task not found"},
		{"transition", domain.ErrInvalidTransition, "Status change not allowed"},
		{"missing reference", store.ErrMissingReference, "Referenced client, service or user does not exist"},
		{"validation", domain.ErrRuleDayOfMonth, "Invalid input: day_of_month must be between 1 and 31"},
		{"bare validation", domain.ErrValidation, "Validation error"},
		{
			"internal details hidden",
			errors.New("pq: password authentication failed for user admin"),
			"An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetSafeErrorMessage(tt.err))
		})
	}
}

func TestSanitizeValidationErrorFallback(t *testing.T) {
	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("Key: 'x' Error: secret")))
}

func TestHandleAPIError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/rules/x", nil)
	req = req.WithContext(shared.SetTraceID(req.Context(), "trace-123"))
	rec := httptest.NewRecorder()

	HandleAPIError(rec, req, fmt.Errorf("select failed at /var/lib/db: %w", service.ErrRuleNotFound), "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var resp shared.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Recurrence rule not found", resp.Error)
	assert.Equal(t, "trace-123", resp.TraceID)
	assert.NotContains(t, rec.Body.String(), "/var/lib")
}
