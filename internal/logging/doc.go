// Package logging assembles structured slog loggers and formatting helpers used
// across arheritage.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so request handlers and scan sessions
// tag log lines with correlation, session and user fields. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
