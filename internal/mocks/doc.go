// Package mocks provides shared test doubles.
//
// MemoryStore is an in-memory implementation of every store interface plus
// store.Transactor. Transactions are serialized and roll back by restoring a
// snapshot, which gives tests the same all-or-nothing behaviour as the
// Postgres implementation. Function fields (CreateTaskFn and friends) inject
// failures at specific points:
//
//	mem := mocks.NewMemoryStore()
//	mem.AdvanceWatermarkFn = func(id uuid.UUID, at time.Time) error {
//	    return errors.New("connection reset")
//	}
//
// MockEventEmitter records emitted events.
package mocks
