// Package api exposes recurrence rules, tasks and the automation cycle over
// HTTP. Handlers decode and validate requests, call the service layer and
// translate domain and store errors into status codes with safe messages.
package api
