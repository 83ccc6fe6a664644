package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/practice-scheduler/internal/domain"
	"github.com/phrazzld/practice-scheduler/internal/platform/logger"
	"github.com/phrazzld/practice-scheduler/internal/store"
)

const ruleColumns = `id, name, client_id, service_id, assigned_to, frequency,
	day_of_month, day_of_week, start_date, end_date, active, last_generated,
	created_at, updated_at`

// PostgresRuleStore implements store.RuleStore.
type PostgresRuleStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.RuleStore = (*PostgresRuleStore)(nil)

// NewPostgresRuleStore creates a rule store on db. If logger is nil the
// default logger is used.
func NewPostgresRuleStore(db store.DBTX, logger *slog.Logger) *PostgresRuleStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresRuleStore{
		db:     db,
		logger: logger.With(slog.String("component", "rule_store")),
	}
}

// WithTx returns a store that runs its queries on tx.
func (s *PostgresRuleStore) WithTx(tx *sql.Tx) *PostgresRuleStore {
	return &PostgresRuleStore{db: tx, logger: s.logger}
}

// Create implements store.RuleStore.
func (s *PostgresRuleStore) Create(ctx context.Context, rule *domain.RecurrenceRule) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := rule.Validate(); err != nil {
		log.Warn("recurrence rule validation failed during create",
			slog.String("error", err.Error()),
			slog.String("rule_id", rule.ID.String()))
		return err
	}

	query := `
		INSERT INTO recurrence_rules (` + ruleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		rule.ID,
		rule.Name,
		nullUUID(rule.ClientID),
		nullUUID(rule.ServiceID),
		nullUUID(rule.AssignedTo),
		string(rule.Frequency),
		nullInt(rule.DayOfMonth),
		nullInt(rule.DayOfWeek),
		domain.CivilDate(rule.StartDate),
		nullTime(civilPtr(rule.EndDate)),
		rule.Active,
		nullTime(rule.LastGenerated),
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create recurrence rule",
			slog.String("error", err.Error()),
			slog.String("rule_id", rule.ID.String()))
		return MapError(err)
	}

	log.Info("recurrence rule created",
		slog.String("rule_id", rule.ID.String()),
		slog.String("frequency", string(rule.Frequency)))
	return nil
}

// GetByID implements store.RuleStore.
func (s *PostgresRuleStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.RecurrenceRule, error) {
	return s.get(ctx, id, false)
}

// GetForUpdate implements store.RuleStore.
func (s *PostgresRuleStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.RecurrenceRule, error) {
	return s.get(ctx, id, true)
}

func (s *PostgresRuleStore) get(ctx context.Context, id uuid.UUID, lock bool) (*domain.RecurrenceRule, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + ruleColumns + ` FROM recurrence_rules WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	rule, err := scanRule(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("recurrence rule not found", slog.String("rule_id", id.String()))
			return nil, store.ErrRuleNotFound
		}
		log.Error("failed to get recurrence rule",
			slog.String("error", err.Error()),
			slog.String("rule_id", id.String()))
		return nil, MapError(err)
	}

	return rule, nil
}

// ListEligible implements store.RuleStore.
func (s *PostgresRuleStore) ListEligible(ctx context.Context, today time.Time) ([]*domain.RecurrenceRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM recurrence_rules
		WHERE active
		  AND start_date <= $1
		  AND (end_date IS NULL OR end_date >= $1)
		ORDER BY created_at, id
	`
	return s.list(ctx, "list_eligible", query, domain.CivilDate(today))
}

// List implements store.RuleStore.
func (s *PostgresRuleStore) List(ctx context.Context, includeInactive bool) ([]*domain.RecurrenceRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM recurrence_rules
		WHERE active OR $1
		ORDER BY created_at, id
	`
	return s.list(ctx, "list", query, includeInactive)
}

func (s *PostgresRuleStore) list(
	ctx context.Context,
	operation string,
	query string,
	args ...any,
) ([]*domain.RecurrenceRule, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query recurrence rules",
			slog.String("operation", operation),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("recurrence_rule", operation, "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var rules []*domain.RecurrenceRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, store.NewStoreError("recurrence_rule", operation, "scan failed", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("recurrence_rule", operation, "row iteration failed", err)
	}

	return rules, nil
}

// AdvanceWatermark implements store.RuleStore. The WHERE clause keeps the
// watermark monotonic even if two writers race.
func (s *PostgresRuleStore) AdvanceWatermark(ctx context.Context, id uuid.UUID, at time.Time) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE recurrence_rules
		SET last_generated = $2, updated_at = $2
		WHERE id = $1 AND (last_generated IS NULL OR last_generated <= $2)
	`
	result, err := s.db.ExecContext(ctx, query, id, at)
	if err != nil {
		log.Error("failed to advance watermark",
			slog.String("error", err.Error()),
			slog.String("rule_id", id.String()))
		return MapError(err)
	}

	if affected, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	} else if affected > 0 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM recurrence_rules WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return MapError(err)
	}
	if !exists {
		return store.ErrRuleNotFound
	}

	log.Warn("refused to move watermark backward",
		slog.String("rule_id", id.String()),
		slog.Time("requested", at))
	return store.ErrWatermarkRegression
}

// Update implements store.RuleStore. The watermark column is left alone.
func (s *PostgresRuleStore) Update(ctx context.Context, rule *domain.RecurrenceRule) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := rule.Validate(); err != nil {
		log.Warn("recurrence rule validation failed during update",
			slog.String("error", err.Error()),
			slog.String("rule_id", rule.ID.String()))
		return err
	}

	query := `
		UPDATE recurrence_rules
		SET name = $2, client_id = $3, service_id = $4, assigned_to = $5,
			frequency = $6, day_of_month = $7, day_of_week = $8,
			start_date = $9, end_date = $10, active = $11, updated_at = $12
		WHERE id = $1
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		rule.ID,
		rule.Name,
		nullUUID(rule.ClientID),
		nullUUID(rule.ServiceID),
		nullUUID(rule.AssignedTo),
		string(rule.Frequency),
		nullInt(rule.DayOfMonth),
		nullInt(rule.DayOfWeek),
		domain.CivilDate(rule.StartDate),
		nullTime(civilPtr(rule.EndDate)),
		rule.Active,
		rule.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to update recurrence rule",
			slog.String("error", err.Error()),
			slog.String("rule_id", rule.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrRuleNotFound); err != nil {
		return err
	}

	log.Info("recurrence rule updated", slog.String("rule_id", rule.ID.String()))
	return nil
}

// Deactivate implements store.RuleStore.
func (s *PostgresRuleStore) Deactivate(ctx context.Context, id uuid.UUID, now time.Time) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`UPDATE recurrence_rules SET active = FALSE, updated_at = $2 WHERE id = $1`,
		id, now.UTC(),
	)
	if err != nil {
		log.Error("failed to deactivate recurrence rule",
			slog.String("error", err.Error()),
			slog.String("rule_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrRuleNotFound); err != nil {
		return err
	}

	log.Info("recurrence rule deactivated", slog.String("rule_id", id.String()))
	return nil
}

func scanRule(row rowScanner) (*domain.RecurrenceRule, error) {
	var (
		rule                  domain.RecurrenceRule
		frequency             string
		clientID, serviceID   uuid.NullUUID
		assignedTo            uuid.NullUUID
		dayOfMonth, dayOfWeek sql.NullInt32
		endDate, lastGen      sql.NullTime
	)

	err := row.Scan(
		&rule.ID,
		&rule.Name,
		&clientID,
		&serviceID,
		&assignedTo,
		&frequency,
		&dayOfMonth,
		&dayOfWeek,
		&rule.StartDate,
		&endDate,
		&rule.Active,
		&lastGen,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rule.Frequency = domain.Frequency(frequency)
	rule.ClientID = uuidPtr(clientID)
	rule.ServiceID = uuidPtr(serviceID)
	rule.AssignedTo = uuidPtr(assignedTo)
	rule.DayOfMonth = intPtr(dayOfMonth)
	rule.DayOfWeek = intPtr(dayOfWeek)
	rule.StartDate = domain.CivilDate(rule.StartDate)
	rule.EndDate = civilPtr(timePtr(endDate))
	rule.LastGenerated = timePtr(lastGen)

	return &rule, nil
}

func civilPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := domain.CivilDate(*t)
	return &d
}
