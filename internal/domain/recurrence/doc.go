// Package recurrence decides when a recurrence rule is due to produce its
// next task and what that task's due date is.
//
// Everything here is a pure function of a rule and an instant. The caller
// supplies "now" and the location it is read in; nothing in this package
// reads the system clock or touches storage. Calendar dates derived from
// now (today, the current month) are taken in now's location, and the
// rule's watermark is converted to that location before comparison.
//
// When a rule's day_of_month does not exist in the target month (31 in
// April, 30 in February) the date is clamped to the last day of that month.
// The same clamp applies to the monthly firing threshold, so a rule for the
// 31st still fires once in a 30-day month.
package recurrence
