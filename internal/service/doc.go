// Package service contains the administrative use cases that sit next to the
// scheduler: managing recurrence rules and moving tasks through their
// status machine.
//
// Services coordinate the stores defined in internal/store and apply
// transactional boundaries where a read and a write must agree, such as
// locking a task before changing its status. They depend only on store
// interfaces, never on a particular database.
//
// Error handling:
//   - Missing entities are reported as the sentinels ErrRuleNotFound and
//     ErrTaskNotFound.
//   - Everything else is wrapped in *ServiceError, which keeps the domain or
//     store error reachable through errors.Is and errors.As so the API layer
//     can map it to a status code.
package service
