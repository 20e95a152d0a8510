// Package resend implements a Provider that sends emails via the Resend API.
package resend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/resend/resend-go/v2"

	"github.com/shineum/form-mailer/internal/email"
)

// EmailsAPI is the part of the Resend client used to send email.
type EmailsAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendProvider sends emails using the Resend API.
type ResendProvider struct {
	sender string
	emails EmailsAPI
}

// New creates a new ResendProvider. sender is used when a message has no
// From address.
func New(apiKey, sender string) *ResendProvider {
	return &ResendProvider{
		sender: sender,
		emails: resend.NewClient(apiKey).Emails,
	}
}

// NewWithClient creates a ResendProvider with a custom client, used for testing.
func NewWithClient(sender string, emails EmailsAPI) *ResendProvider {
	return &ResendProvider{sender: sender, emails: emails}
}

// Send sends an email using the Resend API.
func (p *ResendProvider) Send(ctx context.Context, msg *email.Email) error {
	resp, err := p.emails.SendWithContext(ctx, buildRequest(p.sender, msg))
	if err != nil {
		return fmt.Errorf("resend: failed to send email: %w", err)
	}
	if resp != nil {
		slog.Debug("resend accepted message", "id", resp.Id, "to", msg.To)
	}
	return nil
}

// Name returns the provider name.
func (p *ResendProvider) Name() string {
	return "resend"
}

func buildRequest(sender string, msg *email.Email) *resend.SendEmailRequest {
	from := msg.From
	if from == "" {
		from = sender
	}

	params := &resend.SendEmailRequest{
		From:    from,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HtmlBody,
		Text:    msg.TextBody,
		ReplyTo: strings.Join(msg.ReplyTo, ", "),
	}

	if len(msg.Headers) > 0 {
		params.Headers = make(map[string]string, len(msg.Headers))
		for k, v := range msg.Headers {
			params.Headers[k] = v
		}
	}

	for _, att := range msg.Attachments {
		params.Attachments = append(params.Attachments, &resend.Attachment{
			Content:  att.Content,
			Filename: att.Filename,
		})
	}

	return params
}
