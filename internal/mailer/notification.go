package mailer

import (
	"strings"

	"github.com/shineum/form-mailer/internal/config"
	"github.com/shineum/form-mailer/internal/email"
	"github.com/shineum/form-mailer/internal/form"
	"github.com/shineum/form-mailer/internal/tags"
	"github.com/shineum/form-mailer/internal/view"
)

// notification builds the acknowledgement message for the submitter. It
// returns nil when the form does not ask for one or no recipient was
// submitted.
func (m *Mailer) notification(f *form.Form, c *composition, hooks Hooks) (*email.Email, error) {
	if !f.Options.UserNotification {
		return nil, nil
	}

	to := notificationRecipient(f, c.event.Fields)
	if to == "" {
		return nil, nil
	}

	text := ""
	if f.Options.UserNotificationMessage != "" {
		text = tags.Resolve(f.Options.UserNotificationMessage, c.tags)
	}

	html, err := m.renderTemplate(config.PathNotificationTemplate, view.NotificationTemplate, f.ID, map[string]any{
		"notification_message": text,
		"fields":               c.fields,
	})
	if err != nil {
		return nil, err
	}

	ev := &NotificationEvent{
		FormID:  f.ID,
		Subject: m.notificationSubject(f, c.tags),
		From:    c.msg.From,
		ReplyTo: append([]string(nil), c.msg.To...),
	}
	hooks.beforeNotificationSend(ev)

	return &email.Email{
		From:     ev.From,
		To:       []string{to},
		ReplyTo:  cleanAddresses(ev.ReplyTo),
		Subject:  ev.Subject,
		TextBody: text,
		HtmlBody: html,
	}, nil
}

// notificationSubject picks the acknowledgement subject. A per-form
// configured subject is tag-resolved, the global one is used verbatim, and
// the form option is tag-resolved.
func (m *Mailer) notificationSubject(f *form.Form, t tags.Tags) string {
	v, layer := m.resolver.Lookup(config.PathNotificationSubject, f.ID)
	configured, _ := v.(string)

	switch {
	case layer == config.LayerDestination:
		return tags.Resolve(configured, t)
	case layer == config.LayerGlobal:
		return configured
	case strings.TrimSpace(f.Options.UserNotificationSubject) != "":
		return tags.Resolve(f.Options.UserNotificationSubject, t)
	default:
		return f.Name + " - Notification"
	}
}

// notificationRecipient returns the submitted value of the email field
// flagged as the notification recipient. When several fields carry the flag
// the last one with a value wins.
func notificationRecipient(f *form.Form, sub form.Submission) string {
	var to string
	for _, field := range f.Fields {
		if field.Type != form.KindEmail || !field.Options.IsUserNotificationField {
			continue
		}
		if v := strings.TrimSpace(sub.Value(field.Name)); v != "" {
			to = v
		}
	}
	return to
}
