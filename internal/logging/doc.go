// Package logging assembles structured slog loggers and formatting helpers used
// across mgdl.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so planner code can automatically tag log
// lines with the manga being processed, the operation, and a correlation ID.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail.
package logging
