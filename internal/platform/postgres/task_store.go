package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/practice-scheduler/internal/domain"
	"github.com/phrazzld/practice-scheduler/internal/platform/logger"
	"github.com/phrazzld/practice-scheduler/internal/store"
)

const taskColumns = `id, title, description, client_id, service_id, assigned_to,
	status, priority, due_date, completion_date, notes, origin_rule_id,
	created_at, updated_at`

// PostgresTaskStore implements store.TaskStore.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

// NewPostgresTaskStore creates a task store on db. If logger is nil the
// default logger is used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// WithTx returns a store that runs its queries on tx.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) *PostgresTaskStore {
	return &PostgresTaskStore{db: tx, logger: s.logger}
}

// Create implements store.TaskStore.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.Title,
		task.Description,
		nullUUID(task.ClientID),
		nullUUID(task.ServiceID),
		nullUUID(task.AssignedTo),
		string(task.Status),
		string(task.Priority),
		domain.CivilDate(task.DueDate),
		nullTime(task.CompletionDate),
		task.Notes,
		nullUUID(task.OriginRuleID),
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during task creation",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()))
		} else {
			log.Error("failed to create task",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()))
		}
		return MapError(err)
	}

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.Time("due_date", task.DueDate))
	return nil
}

// GetByID implements store.TaskStore.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return s.get(ctx, id, false)
}

// GetForUpdate implements store.TaskStore.
func (s *PostgresTaskStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return s.get(ctx, id, true)
}

func (s *PostgresTaskStore) get(ctx context.Context, id uuid.UUID, lock bool) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}

	return task, nil
}

// UpdateStatus implements store.TaskStore.
func (s *PostgresTaskStore) UpdateStatus(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = $2, completion_date = $3, updated_at = $4 WHERE id = $1`,
		task.ID,
		string(task.Status),
		nullTime(task.CompletionDate),
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to update task status",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// MarkOverdue implements store.TaskStore.
func (s *PostgresTaskStore) MarkOverdue(ctx context.Context, today time.Time, now time.Time) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET status = $2, updated_at = $3
		WHERE due_date < $1 AND status IN ($4, $5)
	`
	result, err := s.db.ExecContext(ctx, query,
		domain.CivilDate(today),
		string(domain.TaskStatusOverdue),
		now.UTC(),
		string(domain.TaskStatusPending),
		string(domain.TaskStatusInProgress),
	)
	if err != nil {
		log.Error("failed to mark overdue tasks", slog.String("error", err.Error()))
		return 0, store.NewStoreError("task", "mark_overdue", "update failed", MapError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, store.NewStoreError("task", "mark_overdue", "rows affected unavailable", err)
	}

	return affected, nil
}

// ListDueOn implements store.TaskStore.
func (s *PostgresTaskStore) ListDueOn(
	ctx context.Context,
	day time.Time,
	exclude []domain.TaskStatus,
) ([]*domain.Task, error) {
	args := []any{domain.CivilDate(day)}
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE due_date = $1`

	if len(exclude) > 0 {
		placeholders := make([]string, len(exclude))
		for i, status := range exclude {
			args = append(args, string(status))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		query += ` AND status NOT IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY created_at, id`

	return s.list(ctx, "list_due_on", query, args...)
}

// ListByOriginRule implements store.TaskStore.
func (s *PostgresTaskStore) ListByOriginRule(ctx context.Context, ruleID uuid.UUID) ([]*domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE origin_rule_id = $1
		ORDER BY due_date DESC, created_at DESC
	`
	return s.list(ctx, "list_by_origin_rule", query, ruleID)
}

func (s *PostgresTaskStore) list(
	ctx context.Context,
	operation string,
	query string,
	args ...any,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks",
			slog.String("operation", operation),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("task", operation, "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, store.NewStoreError("task", operation, "scan failed", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("task", operation, "row iteration failed", err)
	}

	return tasks, nil
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task                 domain.Task
		status, priority     string
		clientID, serviceID  uuid.NullUUID
		assignedTo, originID uuid.NullUUID
		completion           sql.NullTime
	)

	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&clientID,
		&serviceID,
		&assignedTo,
		&status,
		&priority,
		&task.DueDate,
		&completion,
		&task.Notes,
		&originID,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	task.Priority = domain.TaskPriority(priority)
	task.ClientID = uuidPtr(clientID)
	task.ServiceID = uuidPtr(serviceID)
	task.AssignedTo = uuidPtr(assignedTo)
	task.OriginRuleID = uuidPtr(originID)
	task.DueDate = domain.CivilDate(task.DueDate)
	task.CompletionDate = timePtr(completion)

	return &task, nil
}
