// Package domain contains the core business entities of the practice
// scheduler: recurrence rules, the tasks they materialize and the reminders
// emitted for tasks that are coming due. It is independent of storage and
// transport; the recurrence arithmetic itself lives in the recurrence
// subpackage.
package domain
