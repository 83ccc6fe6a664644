package store

import "context"

// Stores groups the stores the scheduler works with. Inside a Transactor
// callback every member is bound to the same transaction.
type Stores struct {
	Rules     RuleStore
	Tasks     TaskStore
	Reminders ReminderStore
}

// TxFunc is the unit of work passed to a Transactor.
type TxFunc func(ctx context.Context, stores Stores) error

// Transactor runs units of work atomically.
type Transactor interface {
	// WithinTx runs fn in a transaction. The transaction commits if fn
	// returns nil and rolls back otherwise; fn's error is returned as is.
	WithinTx(ctx context.Context, fn TxFunc) error
}
