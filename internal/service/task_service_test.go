package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/practice-scheduler/internal/domain"
	"github.com/phrazzld/practice-scheduler/internal/mocks"
	"github.com/phrazzld/practice-scheduler/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putTask(mem *mocks.MemoryStore, status domain.TaskStatus) *domain.Task {
	task := &domain.Task{
		ID:       uuid.New(),
		Title:    "TDS Return",
		Status:   status,
		Priority: domain.TaskPriorityMedium,
		DueDate:  time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC),
	}
	mem.PutTask(task)
	return task
}

func TestNewTaskServiceValidatesDependencies(t *testing.T) {
	t.Parallel()
	mem := mocks.NewMemoryStore()

	_, err := NewTaskService(store.Stores{}, mem, nil, nil)
	assert.Error(t, err)

	_, err = NewTaskService(mem.Stores(), nil, nil, nil)
	assert.Error(t, err)
}

func TestUpdateStatusCompletesOverdueTask(t *testing.T) {
	t.Parallel()
	mem := mocks.NewMemoryStore()
	task := putTask(mem, domain.TaskStatusOverdue)
	svc := newTestTaskService(t, mem)

	updated, err := svc.UpdateStatus(context.Background(), task.ID, domain.TaskStatusCompleted)

	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, updated.Status)
	require.NotNil(t, updated.CompletionDate)
	assert.True(t, updated.CompletionDate.Equal(fixedNow))

	stored := mem.Task(task.ID)
	assert.Equal(t, domain.TaskStatusCompleted, stored.Status)
	require.NotNil(t, stored.CompletionDate)
	assert.Equal(t, 1, mem.Commits())
}

func TestUpdateStatusRejectsInvalidTransition(t *testing.T) {
	t.Parallel()
	mem := mocks.NewMemoryStore()
	task := putTask(mem, domain.TaskStatusOverdue)
	svc := newTestTaskService(t, mem)

	_, err := svc.UpdateStatus(context.Background(), task.ID, domain.TaskStatusPending)

	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.TaskStatusOverdue, mem.Task(task.ID).Status)
	assert.Equal(t, 1, mem.Rollbacks())
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	t.Parallel()
	mem := mocks.NewMemoryStore()
	task := putTask(mem, domain.TaskStatusPending)
	svc := newTestTaskService(t, mem)

	_, err := svc.UpdateStatus(context.Background(), task.ID, "cancelled")

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, domain.TaskStatusPending, mem.Task(task.ID).Status)
}

func TestUpdateStatusMissingTask(t *testing.T) {
	t.Parallel()
	svc := newTestTaskService(t, mocks.NewMemoryStore())

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), domain.TaskStatusCompleted)

	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestGetTask(t *testing.T) {
	t.Parallel()
	mem := mocks.NewMemoryStore()
	task := putTask(mem, domain.TaskStatusPending)
	svc := newTestTaskService(t, mem)

	got, err := svc.GetTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)

	_, err = svc.GetTask(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestListReminders(t *testing.T) {
	t.Parallel()
	mem := mocks.NewMemoryStore()
	task := putTask(mem, domain.TaskStatusPending)
	other := putTask(mem, domain.TaskStatusPending)
	for _, tk := range []*domain.Task{task, task, other} {
		r, err := domain.NewTaskDueReminder(tk, fixedNow)
		require.NoError(t, err)
		mem.PutReminder(r)
	}
	svc := newTestTaskService(t, mem)

	reminders, err := svc.ListReminders(context.Background(), task.ID)

	require.NoError(t, err)
	assert.Len(t, reminders, 2)
	for _, r := range reminders {
		assert.Equal(t, task.ID, *r.TaskID)
	}

	_, err = svc.ListReminders(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrTaskNotFound)
}
