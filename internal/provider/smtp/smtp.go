// Package smtp implements a Provider that relays emails through an SMTP server.
package smtp

import (
	"bytes"
	"context"
	"fmt"
	netmail "net/mail"
	"sort"
	"sync"

	"github.com/wneessen/go-mail"

	"github.com/shineum/form-mailer/internal/email"
)

// SMTPProviderConfig holds the configuration for creating a SMTPProvider.
type SMTPProviderConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// TLS requires STARTTLS; otherwise it is used when the server offers it.
	TLS bool
	// Sender is used when a message has no From address.
	Sender string
}

// Dialer is the part of *mail.Client used to deliver messages.
type Dialer interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPProvider relays messages to a single SMTP server. One connection is
// opened per Send.
type SMTPProvider struct {
	mu     sync.Mutex
	sender string
	client Dialer
}

// New creates a new SMTPProvider with the given configuration.
func New(cfg SMTPProviderConfig) (*SMTPProvider, error) {
	policy := mail.TLSOpportunistic
	if cfg.TLS {
		policy = mail.TLSMandatory
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(policy),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return &SMTPProvider{sender: cfg.Sender, client: client}, nil
}

// NewWithDialer creates a SMTPProvider with a custom dialer, used for testing.
func NewWithDialer(sender string, d Dialer) *SMTPProvider {
	return &SMTPProvider{sender: sender, client: d}
}

// Send delivers an email message through the configured SMTP server.
func (s *SMTPProvider) Send(ctx context.Context, msg *email.Email) error {
	m, err := buildMsg(s.sender, msg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// Name returns the provider name.
func (s *SMTPProvider) Name() string {
	return "smtp"
}

// buildMsg converts an email.Email into a go-mail message.
func buildMsg(sender string, msg *email.Email) (*mail.Msg, error) {
	m := mail.NewMsg()

	from := msg.From
	if from == "" {
		from = sender
	}
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("invalid from address %q: %w", from, err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}

	if len(msg.ReplyTo) > 0 {
		replyTo := make([]string, 0, len(msg.ReplyTo))
		for _, addr := range msg.ReplyTo {
			parsed, err := netmail.ParseAddress(addr)
			if err != nil {
				return nil, fmt.Errorf("invalid reply-to address %q: %w", addr, err)
			}
			replyTo = append(replyTo, parsed.String())
		}
		m.SetGenHeader(mail.HeaderReplyTo, replyTo...)
	}

	keys := make([]string, 0, len(msg.Headers))
	for k := range msg.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		m.SetGenHeader(mail.Header(k), msg.Headers[k])
	}

	m.Subject(msg.Subject)

	switch {
	case msg.TextBody != "" && msg.HtmlBody != "":
		m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
		m.AddAlternativeString(mail.TypeTextHTML, msg.HtmlBody)
	case msg.HtmlBody != "":
		m.SetBodyString(mail.TypeTextHTML, msg.HtmlBody)
	default:
		m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
	}

	for _, att := range msg.Attachments {
		opts := []mail.FileOption{}
		if att.ContentType != "" {
			opts = append(opts, mail.WithFileContentType(mail.ContentType(att.ContentType)))
		}
		if err := m.AttachReader(att.Filename, bytes.NewReader(att.Content), opts...); err != nil {
			return nil, fmt.Errorf("failed to attach %q: %w", att.Filename, err)
		}
	}

	return m, nil
}
