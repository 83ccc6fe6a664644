// Package trigger decides when automation cycles run.
//
// A Trigger owns the only wall clock the scheduler sees. It runs a cycle on
// a cron schedule, optionally once at startup, and on demand, converting the
// current time into the practice's time zone before handing it to the
// scheduler. At most one cycle runs at a time in a process.
package trigger
