package mailer

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shineum/form-mailer/internal/attach"
	"github.com/shineum/form-mailer/internal/config"
	"github.com/shineum/form-mailer/internal/email"
	"github.com/shineum/form-mailer/internal/fields"
	"github.com/shineum/form-mailer/internal/form"
	"github.com/shineum/form-mailer/internal/tags"
	"github.com/shineum/form-mailer/internal/view"
)

// composition is a primary message ready for fan-out together with the data
// the notification step reuses.
type composition struct {
	msg    *email.Email
	event  SendEvent
	fields []view.Field
	tags   tags.Tags
}

// compose builds the primary message. Nothing is sent and every attachment
// file is closed by the time it returns.
func (m *Mailer) compose(f *form.Form, sub form.Submission, sendID string, hooks Hooks, logger *slog.Logger) (*composition, error) {
	subject := f.Options.EmailSubject
	if strings.TrimSpace(subject) == "" {
		subject = f.Name + " - Submission"
	}

	ev := &SendEvent{
		SendID:  sendID,
		FormID:  f.ID,
		Subject: subject,
		Fields:  sub.Clone(),
		From:    m.resolver.String(config.PathFrom, f.ID),
		To:      f.Recipients(),
		ReplyTo: replyToAddress(f, sub),
	}
	hooks.beforeSend(ev)

	t := tags.Extract(
		ev.Subject,
		f.Options.UserNotificationSubject,
		f.Options.UserNotificationMessage,
	)

	policy := fields.Policy{
		SkipAttachments: m.resolver.Bool(config.PathSkipAttachments, f.ID),
	}
	rendered := fields.RenderAll(ev.Fields, policy)

	var attachments []email.Attachment
	for i, r := range rendered {
		if r.TagValue != "" {
			t.Populate(r.Entry.Name, r.TagValue)
		}
		if r.Attach == nil {
			continue
		}

		att, err := m.loader.Load(r.Attach.Path, r.Attach.Name)
		switch {
		case errors.Is(err, attach.ErrNotFound):
			logger.Warn("attachment not found",
				"field", r.Entry.Name,
				"path", r.Attach.Path,
			)
			rendered[i].Text = fields.FileNotFoundText
		case err != nil:
			return nil, fmt.Errorf("failed to attach field %q: %w", r.Entry.Name, err)
		default:
			attachments = append(attachments, att)
		}
	}

	viewFields := toViewFields(rendered)

	html := ev.HTML
	if html == "" {
		var err error
		html, err = m.renderTemplate(config.PathTemplate, view.DefaultTemplate, f.ID, map[string]any{
			"fields": viewFields,
		})
		if err != nil {
			return nil, err
		}
	}

	ev.Subject = tags.Resolve(ev.Subject, t)

	var replyTo []string
	if r := strings.TrimSpace(ev.ReplyTo); r != "" {
		replyTo = []string{r}
	}

	msg := &email.Email{
		From:        ev.From,
		To:          cleanAddresses(ev.To),
		ReplyTo:     replyTo,
		Subject:     ev.Subject,
		TextBody:    fields.Body(rendered),
		HtmlBody:    html,
		Attachments: attachments,
	}

	return &composition{
		msg:    msg,
		event:  *ev,
		fields: viewFields,
		tags:   t,
	}, nil
}

// renderTemplate renders the template configured at path. A configured
// template is looked up in site mode; otherwise fallback is rendered from the
// admin defaults.
func (m *Mailer) renderTemplate(path, fallback, destination string, vars map[string]any) (string, error) {
	name := m.resolver.String(path, destination)
	mode := view.ModeSite
	if name == "" {
		name, mode = fallback, view.ModeAdmin
	}

	html, err := m.views.Render(name, mode, vars)
	if err != nil {
		return "", fmt.Errorf("failed to render %s template %q: %w", mode, name, err)
	}
	return html, nil
}

// replyToAddress returns the value of the first email field flagged as
// reply-to that has a non-empty submitted value.
func replyToAddress(f *form.Form, sub form.Submission) string {
	for _, field := range f.Fields {
		if field.Type != form.KindEmail || !field.Options.IsReplyTo {
			continue
		}
		if v := strings.TrimSpace(sub.Value(field.Name)); v != "" {
			return v
		}
	}
	return ""
}

func toViewFields(rendered []fields.Rendered) []view.Field {
	out := make([]view.Field, 0, len(rendered))
	for _, r := range rendered {
		out = append(out, view.Field{
			Name:  r.Entry.Name,
			Label: r.Entry.Label,
			Type:  r.Entry.Type,
			Value: r.HTMLValue(),
			Text:  r.Text,
		})
	}
	return out
}

// cleanAddresses trims addresses and drops empty ones.
func cleanAddresses(addrs []string) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
