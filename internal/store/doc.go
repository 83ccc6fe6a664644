// Package store defines the persistence contracts used by the scheduler and
// the services around it.
//
// The scheduler only ever touches three collections: recurrence rules,
// tasks and reminders. Each has an interface here. Implementations live in
// internal/platform/postgres (production) and internal/mocks (tests).
//
// Operations that must be atomic, such as creating a task and advancing the
// rule watermark, run through a Transactor, which hands the callback a
// Stores value bound to a single transaction.
package store
