// Package events carries notifications out of the scheduler without tying it
// to whoever consumes them.
//
// The scheduler emits an Event after each piece of committed work (a task
// materialized from a rule) and once per cycle with the cycle summary.
// Handlers registered on an emitter receive every event; the HTTP layer uses
// one to remember the latest cycle summary.
//
// The primary components are:
// - Event: a typed envelope around a JSON payload
// - EventHandler: interface for components that react to events
// - EventEmitter: interface for components that publish events
package events
