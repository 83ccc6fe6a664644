package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/phrazzld/practice-scheduler/internal/domain"
	"github.com/phrazzld/practice-scheduler/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServiceError(t *testing.T) {
	t.Parallel()

	assert.NoError(t, NewServiceError("rule", "get_rule", "msg", nil))
	assert.Same(t, ErrRuleNotFound, NewServiceError("rule", "get_rule", "msg", store.ErrRuleNotFound))
	assert.Same(t, ErrTaskNotFound,
		NewServiceError("task", "get_task", "msg", fmt.Errorf("lookup: %w", store.ErrTaskNotFound)))

	err := NewServiceError("task", "update_status", "failed to update task status", domain.ErrInvalidTransition)
	var serviceErr *ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "task", serviceErr.Service)
	assert.Equal(t, "update_status", serviceErr.Operation)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t,
		"task service update_status failed: failed to update task status: invalid status transition",
		err.Error())

	assert.Same(t, err, NewServiceError("task", "other", "other", err), "already wrapped errors are kept")
}

func TestServiceErrorWithoutCause(t *testing.T) {
	t.Parallel()
	err := &ServiceError{Service: "rule", Operation: "create_service", Message: "transactor cannot be nil"}
	assert.Equal(t, "rule service create_service failed: transactor cannot be nil", err.Error())
	assert.Nil(t, errors.Unwrap(err))
}
