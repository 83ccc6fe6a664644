package service

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/phrazzld/practice-scheduler/internal/mocks"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.January, 15, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time {
	return fixedNow
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRuleService(t *testing.T, mem *mocks.MemoryStore) RuleService {
	t.Helper()
	svc, err := NewRuleService(mem.Stores(), mem, fixedClock, discardLogger())
	require.NoError(t, err)
	return svc
}

func newTestTaskService(t *testing.T, mem *mocks.MemoryStore) TaskService {
	t.Helper()
	svc, err := NewTaskService(mem.Stores(), mem, fixedClock, discardLogger())
	require.NoError(t, err)
	return svc
}
