package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/phrazzld/practice-scheduler/internal/store"
)

// NewStores returns rule, task and reminder stores sharing db.
func NewStores(db store.DBTX, logger *slog.Logger) store.Stores {
	return store.Stores{
		Rules:     NewPostgresRuleStore(db, logger),
		Tasks:     NewPostgresTaskStore(db, logger),
		Reminders: NewPostgresReminderStore(db, logger),
	}
}

// Transactor implements store.Transactor with database/sql transactions.
type Transactor struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ store.Transactor = (*Transactor)(nil)

// NewTransactor creates a Transactor on db.
func NewTransactor(db *sql.DB, logger *slog.Logger) *Transactor {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transactor{db: db, logger: logger}
}

// WithinTx implements store.Transactor. Each call gets fresh stores bound
// to its own transaction.
func (t *Transactor) WithinTx(ctx context.Context, fn store.TxFunc) error {
	return store.RunInTransaction(ctx, t.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, NewStores(tx, t.logger))
	})
}
