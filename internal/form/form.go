// Package form defines the form definitions and submission data consumed by
// the mailer. The host owns these values; the mailer only reads them.
package form

import (
	"encoding/json"
	"strings"
)

// Kind identifies how a submitted field value is shaped and rendered.
type Kind string

const (
	KindText     Kind = "text"
	KindEmail    Kind = "email"
	KindNumber   Kind = "number"
	KindCheckbox Kind = "checkbox"
	KindSelect   Kind = "select"
	KindConsent  Kind = "consent"
	KindList     Kind = "list"
	KindFile     Kind = "file"
)

// Form is a form definition. ID doubles as the destination key used for
// per-form configuration overrides.
type Form struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	ToEmail string  `json:"to_email"`
	Fields  []Field `json:"fields"`
	Options Options `json:"options"`
}

// Field describes one field of a form.
type Field struct {
	Name    string       `json:"name"`
	Type    Kind         `json:"type"`
	Options FieldOptions `json:"options"`
}

// FieldOptions holds the per-field flags the mailer cares about.
type FieldOptions struct {
	IsReplyTo               bool `json:"is_reply_to"`
	IsUserNotificationField bool `json:"is_user_notification_field"`
}

// Options are the free-form form settings.
type Options struct {
	EmailSubject            string `json:"email_subject"`
	UserNotification        bool   `json:"user_notification"`
	UserNotificationSubject string `json:"user_notification_subject"`
	UserNotificationMessage string `json:"user_notification_message"`
}

// Recipients splits the form's destination string on commas and semicolons,
// trimming whitespace and dropping empty entries.
func (f *Form) Recipients() []string {
	return SplitAddresses(f.ToEmail)
}

// SplitAddresses splits a delimited address list. Empty entries are dropped.
func SplitAddresses(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Attachment is the descriptor stored in a file field's value.
type Attachment struct {
	Name     string `json:"name"`
	FilePath string `json:"filePath,omitempty"`
	URL      string `json:"url,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// DecodeAttachment decodes a file field value. It returns false when the
// value is not a JSON string holding a non-empty descriptor object.
func DecodeAttachment(v any) (*Attachment, bool) {
	var raw []byte
	switch val := v.(type) {
	case string:
		raw = []byte(val)
	case []byte:
		raw = val
	case map[string]any:
		b, err := json.Marshal(val)
		if err != nil {
			return nil, false
		}
		raw = b
	default:
		return nil, false
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, false
	}

	var att Attachment
	if err := json.Unmarshal(raw, &att); err != nil {
		return nil, false
	}
	if att == (Attachment{}) {
		return nil, false
	}
	return &att, true
}
