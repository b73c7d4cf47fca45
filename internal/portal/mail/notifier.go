// Package mail delivers account emails: verification and password reset
// links.
package mail

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
)

const (
	VerificationSubject  = "Verify Your Email - College Management System"
	PasswordResetSubject = "Reset Your Password - College Management System"
)

// Notifier delivers single-use links. Implementations must not log or
// persist the token beyond the outgoing message.
type Notifier interface {
	SendVerification(ctx context.Context, to, token, name string) error
	SendPasswordReset(ctx context.Context, to, token, name string) error
}

// VerificationURL returns the link a verification email carries.
func VerificationURL(baseURL, token string) string {
	return link(baseURL, "/verify-email", token)
}

// PasswordResetURL returns the link a reset email carries.
func PasswordResetURL(baseURL, token string) string {
	return link(baseURL, "/reset-password", token)
}

func link(baseURL, path, token string) string {
	return strings.TrimRight(baseURL, "/") + path + "?token=" + url.QueryEscape(token)
}

// LogNotifier writes links to the log instead of sending mail. It is used
// when no SMTP server is configured, which only makes sense in development.
type LogNotifier struct {
	Logger  *slog.Logger
	BaseURL string
}

func (n LogNotifier) SendVerification(ctx context.Context, to, token, name string) error {
	n.Logger.InfoContext(ctx, "verification email (not sent)",
		slog.String("to", to),
		slog.String("name", name),
		slog.String("link", VerificationURL(n.BaseURL, token)),
	)
	return nil
}

func (n LogNotifier) SendPasswordReset(ctx context.Context, to, token, name string) error {
	n.Logger.InfoContext(ctx, "password reset email (not sent)",
		slog.String("to", to),
		slog.String("name", name),
		slog.String("link", PasswordResetURL(n.BaseURL, token)),
	)
	return nil
}
