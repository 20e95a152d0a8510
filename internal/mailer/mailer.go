// Package mailer composes notification emails from form submissions and
// dispatches them through a provider.
//
// A Send call validates the mailer settings, composes the primary message,
// sends one copy per destination address, and then sends the optional
// acknowledgement to the submitter. Each call is independent; a Mailer is
// safe for concurrent use.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shineum/form-mailer/internal/attach"
	"github.com/shineum/form-mailer/internal/config"
	"github.com/shineum/form-mailer/internal/email"
	"github.com/shineum/form-mailer/internal/form"
	"github.com/shineum/form-mailer/internal/provider"
	"github.com/shineum/form-mailer/internal/view"
)

// SendIDHeader carries the ID shared by every message of one Send call.
const SendIDHeader = "X-Form-Mailer-Send-Id"

// AttachmentLoader reads a local file into an attachment. Errors wrapping
// attach.ErrNotFound are reported in the body instead of failing the send.
type AttachmentLoader interface {
	Load(path, name string) (email.Attachment, error)
}

// Mailer composes and dispatches form submission emails.
type Mailer struct {
	settings    config.Settings
	resolver    *config.Resolver
	views       view.Renderer
	provider    provider.Provider
	loader      AttachmentLoader
	logger      *slog.Logger
	concurrency int
}

// Option configures a Mailer.
type Option func(*Mailer)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Mailer) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithLoader replaces the attachment loader.
func WithLoader(l AttachmentLoader) Option {
	return func(m *Mailer) {
		if l != nil {
			m.loader = l
		}
	}
}

// WithConcurrency sets how many fan-out copies may be in flight at once,
// overriding the settings value.
func WithConcurrency(n int) Option {
	return func(m *Mailer) {
		m.concurrency = n
	}
}

// New creates a Mailer. layered is copied; later changes to it are not seen.
func New(settings config.Settings, layered config.Layered, views view.Renderer, p provider.Provider, opts ...Option) *Mailer {
	m := &Mailer{
		settings: settings,
		resolver: config.NewResolver(layered, map[string]any{
			config.PathFrom: settings.From(),
		}),
		views:       views,
		provider:    p,
		loader:      attach.NewLoader(nil),
		logger:      slog.Default(),
		concurrency: settings.Concurrency,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Send composes the primary message for sub, delivers one copy to each
// destination address and then sends the acknowledgement if the form asks
// for one.
//
// Settings problems return an error wrapping ErrConfiguration and template
// failures abort before anything is sent. Failed primary copies are
// collected in a *FanoutError while the remaining addresses are still
// tried. The acknowledgement is skipped when every primary copy failed.
func (m *Mailer) Send(ctx context.Context, f *form.Form, sub form.Submission, hooks Hooks) error {
	if err := m.settings.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	sendID := uuid.NewString()
	logger := m.logger.With("send_id", sendID, "form_id", f.ID)

	c, err := m.compose(f, sub, sendID, hooks, logger)
	if err != nil {
		return err
	}
	c.msg.Headers = map[string]string{SendIDHeader: sendID}

	if len(c.msg.To) == 0 {
		logger.Warn("form has no destination addresses")
	}

	fanoutErr := m.fanout(ctx, c.msg, logger)

	after := c.event
	after.SendID = sendID
	after.Subject = c.msg.Subject
	after.To = c.msg.To
	if fanoutErr != nil {
		after.Failed = fanoutErr.Recipients()
	}
	hooks.afterSend(after)

	var errs []error
	if fanoutErr != nil {
		errs = append(errs, fanoutErr)
		if fanoutErr.Total() {
			logger.Warn("skipping notification, no primary copy was delivered")
			return fanoutErr
		}
	}

	note, err := m.notification(f, c, hooks)
	if err != nil {
		return errors.Join(append(errs, err)...)
	}
	if note != nil {
		note.Headers = map[string]string{SendIDHeader: sendID}
		if err := m.deliver(ctx, note, note.To[0], logger.With("kind", "notification")); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}

// fanout sends one copy of msg per address in msg.To. Every address is
// tried; with concurrency above one, copies are sent in parallel.
func (m *Mailer) fanout(ctx context.Context, msg *email.Email, logger *slog.Logger) *FanoutError {
	failures := make([]*TransportError, len(msg.To))

	if m.concurrency <= 1 {
		for i, addr := range msg.To {
			failures[i] = m.deliver(ctx, msg.WithRecipient(addr), addr, logger)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(m.concurrency)
		for i, addr := range msg.To {
			g.Go(func() error {
				failures[i] = m.deliver(ctx, msg.WithRecipient(addr), addr, logger)
				return nil
			})
		}
		_ = g.Wait()
	}

	var errs []*TransportError
	for _, err := range failures {
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &FanoutError{Attempted: len(msg.To), Errors: errs}
}

// deliver makes a single provider call and logs its outcome.
func (m *Mailer) deliver(ctx context.Context, msg *email.Email, recipient string, logger *slog.Logger) *TransportError {
	if err := m.provider.Send(ctx, msg); err != nil {
		var temp interface{ Temporary() bool }
		logger.Error("failed to send message",
			"recipient", recipient,
			"provider", m.provider.Name(),
			"temporary", errors.As(err, &temp) && temp.Temporary(),
			"error", err,
		)
		return &TransportError{Recipient: recipient, Provider: m.provider.Name(), Err: err}
	}

	logger.Info("message sent",
		"recipient", recipient,
		"provider", m.provider.Name(),
		"subject", msg.Subject,
		"attachments", len(msg.Attachments),
	)
	return nil
}
