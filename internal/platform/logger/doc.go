// Package logger provides structured logging for the application.
//
// It builds JSON log/slog loggers at a configured level and carries loggers
// and request IDs through context.Context so that stores, services and the
// scheduler log with the same correlation fields as the request or cycle
// that called them.
package logger
