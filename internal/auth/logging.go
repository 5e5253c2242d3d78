package auth

import (
	"context"
	"log/slog"
)

// LogAuthAttempt records an authentication attempt.
// status is Success or Fail; identifier is whatever names the caller.
func LogAuthAttempt(ctx context.Context, level slog.Level, status, identifier, message string) {
	attrs := []any{"status", status}
	if identifier != "" {
		attrs = append(attrs, "identifier", identifier)
	}
	if message != "" {
		attrs = append(attrs, "message", message)
	}
	slog.Log(ctx, level, "auth attempt", attrs...)
}
