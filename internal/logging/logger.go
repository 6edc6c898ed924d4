// Package logging defines the context-aware structured logger used by both
// the portal client and the backend. The only shipped implementation wraps
// log/slog; anything with the same method set can be injected in tests.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "code sent", "email", email, "redirect_to", target)
type Logger interface {
	// Debug logs low-level diagnostics that are off by default.
	Debug(ctx context.Context, msg string, args ...any)
	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)
	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)
	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)
	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}
