//go:build integration

// Package testdb provides helpers for PostgreSQL integration tests.
//
// Tests run inside a transaction that is rolled back when the test ends, so
// they can share one database and run in parallel:
//
//	func TestRuleStore(t *testing.T) {
//	    db := testdb.GetTestDBWithT(t) // skips when DATABASE_URL is unset
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        rules := postgres.NewPostgresRuleStore(tx, nil)
//	        ...
//	    })
//	}
//
// The schema is brought up to date with the embedded migrations once per
// test binary.
package testdb
