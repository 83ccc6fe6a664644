// Package postgres implements the internal/store interfaces on PostgreSQL
// through database/sql and the pgx driver, and owns the schema migrations
// (embedded SQL run with goose).
//
// Stores accept a store.DBTX so the same code runs against the connection
// pool or inside a transaction. Transactor binds all three stores to one
// transaction for the scheduler's atomic units of work. Row locks taken by
// GetForUpdate make concurrent cycles on separate replicas safe.
package postgres
