// Package logger provides structured logging for jobrunner.
//
//   - logger.go: slog handler setup, global default and dynamic level
//   - context.go: Context-aware logging with request IDs
//   - redact.go: Sensitive data redaction
//
// Components that take a *slog.Logger use slog.Default() once SetDefault
// has run, so they share the level, format and redaction configured here.
package logger
