package postgres

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var (
	ruleColumnNames = []string{
		"id", "name", "client_id", "service_id", "assigned_to", "frequency",
		"day_of_month", "day_of_week", "start_date", "end_date", "active",
		"last_generated", "created_at", "updated_at",
	}
	taskColumnNames = []string{
		"id", "title", "description", "client_id", "service_id", "assigned_to",
		"status", "priority", "due_date", "completion_date", "notes",
		"origin_rule_id", "created_at", "updated_at",
	}
	reminderColumnNames = []string{
		"id", "task_id", "client_id", "user_id", "type", "message",
		"reminder_date", "status", "created_at",
	}
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newID() string { return uuid.NewString() }
