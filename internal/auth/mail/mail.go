// Package mail defines the outbound email boundary. Delivery itself is an
// external system; the auth service only constructs tokens and hands off.
package mail

import (
	"context"
	"log/slog"
)

// Sender delivers transactional auth emails. Implementations must treat
// delivery as fire-and-forget from the caller's perspective: a failed send
// never aborts the triggering operation.
type Sender interface {
	SendVerificationEmail(ctx context.Context, email, name, token string) error
	SendPasswordResetEmail(ctx context.Context, email, token string) error
}

// LogSender stands in for a real delivery backend: it records the send in the
// service log. Useful for dev and as the default wiring until an SMTP or API
// backed sender is plugged in.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) SendVerificationEmail(ctx context.Context, email, name, token string) error {
	s.logger().InfoContext(ctx, "verification email queued",
		"email", email,
		"name", name,
	)
	return nil
}

func (s *LogSender) SendPasswordResetEmail(ctx context.Context, email, token string) error {
	s.logger().InfoContext(ctx, "password reset email queued",
		"email", email,
	)
	return nil
}

func (s *LogSender) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
