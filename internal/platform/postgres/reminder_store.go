package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/practice-scheduler/internal/domain"
	"github.com/phrazzld/practice-scheduler/internal/platform/logger"
	"github.com/phrazzld/practice-scheduler/internal/store"
)

const reminderColumns = `id, task_id, client_id, user_id, type, message,
	reminder_date, status, created_at`

// PostgresReminderStore implements store.ReminderStore.
type PostgresReminderStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.ReminderStore = (*PostgresReminderStore)(nil)

// NewPostgresReminderStore creates a reminder store on db. If logger is nil
// the default logger is used.
func NewPostgresReminderStore(db store.DBTX, logger *slog.Logger) *PostgresReminderStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReminderStore{
		db:     db,
		logger: logger.With(slog.String("component", "reminder_store")),
	}
}

// WithTx returns a store that runs its queries on tx.
func (s *PostgresReminderStore) WithTx(tx *sql.Tx) *PostgresReminderStore {
	return &PostgresReminderStore{db: tx, logger: s.logger}
}

// Create implements store.ReminderStore.
func (s *PostgresReminderStore) Create(ctx context.Context, reminder *domain.Reminder) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := reminder.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO reminders (` + reminderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		reminder.ID,
		nullUUID(reminder.TaskID),
		nullUUID(reminder.ClientID),
		nullUUID(reminder.UserID),
		string(reminder.Type),
		reminder.Message,
		reminder.ReminderDate,
		string(reminder.Status),
		reminder.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create reminder",
			slog.String("error", err.Error()),
			slog.String("reminder_id", reminder.ID.String()))
		return MapError(err)
	}

	return nil
}

// ExistsForTask implements store.ReminderStore.
func (s *PostgresReminderStore) ExistsForTask(
	ctx context.Context,
	taskID uuid.UUID,
	reminderType domain.ReminderType,
	from, to time.Time,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM reminders
			WHERE task_id = $1 AND type = $2
			  AND reminder_date >= $3 AND reminder_date < $4
		)
	`
	var exists bool
	if err := s.db.QueryRowContext(ctx, query, taskID, string(reminderType), from, to).Scan(&exists); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to check for existing reminder",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return false, MapError(err)
	}

	return exists, nil
}

// ListByTask implements store.ReminderStore.
func (s *PostgresReminderStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.Reminder, error) {
	query := `
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE task_id = $1
		ORDER BY reminder_date, created_at
	`
	rows, err := s.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, store.NewStoreError("reminder", "list_by_task", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var reminders []*domain.Reminder
	for rows.Next() {
		var (
			r                        domain.Reminder
			rType, status            string
			taskRef, client, userRef uuid.NullUUID
		)
		if err := rows.Scan(
			&r.ID,
			&taskRef,
			&client,
			&userRef,
			&rType,
			&r.Message,
			&r.ReminderDate,
			&status,
			&r.CreatedAt,
		); err != nil {
			return nil, store.NewStoreError("reminder", "list_by_task", "scan failed", err)
		}
		r.TaskID = uuidPtr(taskRef)
		r.ClientID = uuidPtr(client)
		r.UserID = uuidPtr(userRef)
		r.Type = domain.ReminderType(rType)
		r.Status = domain.ReminderStatus(status)
		reminders = append(reminders, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("reminder", "list_by_task", "row iteration failed", err)
	}

	return reminders, nil
}
