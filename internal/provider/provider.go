// Package provider defines the interface for email delivery backends.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shineum/form-mailer/internal/email"
)

// Provider is the interface that email delivery backends must implement.
// Each provider handles the actual sending of composed email messages
// to the target service (e.g., stdout, SES, Microsoft Graph, SMTP).
type Provider interface {
	// Send delivers an email message through this provider.
	// It returns an error if the delivery fails.
	Send(ctx context.Context, msg *email.Email) error

	// Name returns the human-readable name of this provider.
	Name() string
}

// Fallback sends through a primary provider and, when that fails, through a
// secondary one.
type Fallback struct {
	primary   Provider
	secondary Provider
	logger    *slog.Logger
}

// NewFallback creates a Fallback. A nil logger uses slog.Default().
func NewFallback(primary, secondary Provider, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{primary: primary, secondary: secondary, logger: logger}
}

// Send tries the primary provider, then the secondary provider.
func (f *Fallback) Send(ctx context.Context, msg *email.Email) error {
	err := f.primary.Send(ctx, msg)
	if err == nil {
		return nil
	}

	f.logger.Warn("primary provider failed, trying fallback",
		"primary", f.primary.Name(),
		"fallback", f.secondary.Name(),
		"to", msg.To,
		"error", err,
	)

	fallbackErr := f.secondary.Send(ctx, msg)
	if fallbackErr == nil {
		f.logger.Info("fallback provider succeeded",
			"fallback", f.secondary.Name(),
			"to", msg.To,
		)
		return nil
	}

	return fmt.Errorf("%s and fallback %s failed: %w",
		f.primary.Name(), f.secondary.Name(), errors.Join(err, fallbackErr))
}

// Name returns the provider name.
func (f *Fallback) Name() string {
	return f.primary.Name() + "+" + f.secondary.Name()
}
