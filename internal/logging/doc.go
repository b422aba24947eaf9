// Package logging builds slog loggers from application configuration and
// standardizes the attribute vocabulary used across components.
//
// Loggers write to stdout plus an optional log file, in either json or text
// format. Field-name constants keep structured keys consistent, and
// WithContext derives correlation attributes from a request-scoped context so
// every log line produced while handling one event carries the same
// identifiers.
package logging
