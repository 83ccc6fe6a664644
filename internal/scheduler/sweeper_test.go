package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/phrazzld/practice-scheduler/internal/domain"
	"github.com/phrazzld/practice-scheduler/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweep(t *testing.T) {
	t.Parallel()
	mem := mocks.NewMemoryStore()
	pastPending := newTask(t, "Audit Prep", domain.TaskStatusPending, day(2024, time.January, 10))
	pastInProgress := newTask(t, "ITR Filing", domain.TaskStatusInProgress, day(2024, time.January, 12))
	pastCompleted := newTask(t, "TDS Return", domain.TaskStatusCompleted, day(2024, time.January, 5))
	dueToday := newTask(t, "GST Return", domain.TaskStatusPending, day(2024, time.January, 15))
	for _, task := range []*domain.Task{pastPending, pastInProgress, pastCompleted, dueToday} {
		mem.PutTask(task)
	}
	sweeper := NewSweeper(mem.Stores().Tasks, discardLogger())
	now := at(2024, time.January, 15, 6)

	n, err := sweeper.Sweep(context.Background(), now)

	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, domain.TaskStatusOverdue, mem.Task(pastPending.ID).Status)
	assert.Equal(t, domain.TaskStatusOverdue, mem.Task(pastInProgress.ID).Status)
	assert.Equal(t, domain.TaskStatusCompleted, mem.Task(pastCompleted.ID).Status)
	assert.Equal(t, domain.TaskStatusPending, mem.Task(dueToday.ID).Status)

	t.Run("second sweep changes nothing", func(t *testing.T) {
		n, err := sweeper.Sweep(context.Background(), now)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Equal(t, domain.TaskStatusOverdue, mem.Task(pastPending.ID).Status)
	})
}

func TestSweepUsesNowLocation(t *testing.T) {
	t.Parallel()
	mem := mocks.NewMemoryStore()
	task := newTask(t, "Advance Tax", domain.TaskStatusPending, day(2024, time.January, 14))
	mem.PutTask(task)
	sweeper := NewSweeper(mem.Stores().Tasks, discardLogger())

	// 20:00 UTC on the 14th is already the 15th in India.
	ist := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2024, time.January, 15, 1, 30, 0, 0, ist)

	n, err := sweeper.Sweep(context.Background(), now)

	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestSweepFailure(t *testing.T) {
	t.Parallel()
	mem := mocks.NewMemoryStore()
	dbErr := errors.New("statement timeout")
	mem.MarkOverdueFn = func() error { return dbErr }

	n, err := NewSweeper(mem.Stores().Tasks, nil).Sweep(context.Background(), at(2024, time.January, 15, 6))

	assert.Zero(t, n)
	assert.ErrorIs(t, err, dbErr)
}
