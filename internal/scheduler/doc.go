// Package scheduler runs the automation cycle: it materializes tasks from
// recurrence rules, flags overdue tasks and creates due-tomorrow reminders.
//
// A cycle is a pure function of the stored data and the instant it is given.
// Nothing in this package reads the wall clock for business decisions; the
// caller passes now, already converted to the practice's time zone, and every
// calendar comparison uses now's location.
//
// Each rule and each reminder candidate is handled in its own transaction
// with the relevant row locked, so two replicas running the same cycle at
// the same time produce each task and each reminder at most once. A failure
// on one rule or task is logged and counted; it never stops the rest of the
// cycle.
package scheduler
