package pg

import "context"

// logger is the minimal structured-logging surface this package needs.
// Compatible with *slog.Logger.
type logger interface {
	InfoContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}
