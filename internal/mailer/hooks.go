package mailer

import "github.com/shineum/form-mailer/internal/form"

// SendEvent carries the in-flight primary message. BeforeSend may change any
// field; the mailer reads them back once the hook returns.
type SendEvent struct {
	// SendID is shared by every message of one Send call.
	SendID  string
	FormID  string
	Subject string
	// Fields is a copy of the submission. Changes affect rendering, tags and
	// the notification recipient.
	Fields  form.Submission
	From    string
	To      []string
	ReplyTo string
	// HTML replaces the rendered template body when non-empty.
	HTML string

	// Failed lists recipients whose copy could not be delivered. It is only
	// set on the event passed to AfterSend.
	Failed []string
}

// NotificationEvent carries the acknowledgement message settings a
// BeforeNotificationSend hook may override.
type NotificationEvent struct {
	FormID  string
	Subject string
	From    string
	ReplyTo []string
}

// Hooks are the extension points of one Send call. Nil funcs are skipped.
type Hooks struct {
	BeforeSend             func(*SendEvent)
	AfterSend              func(SendEvent)
	BeforeNotificationSend func(*NotificationEvent)
}

func (h Hooks) beforeSend(e *SendEvent) {
	if h.BeforeSend != nil {
		h.BeforeSend(e)
	}
}

func (h Hooks) afterSend(e SendEvent) {
	if h.AfterSend != nil {
		h.AfterSend(e)
	}
}

func (h Hooks) beforeNotificationSend(e *NotificationEvent) {
	if h.BeforeNotificationSend != nil {
		h.BeforeNotificationSend(e)
	}
}

// Chain returns Hooks that run each of hooks in order.
func Chain(hooks ...Hooks) Hooks {
	return Hooks{
		BeforeSend: func(e *SendEvent) {
			for _, h := range hooks {
				h.beforeSend(e)
			}
		},
		AfterSend: func(e SendEvent) {
			for _, h := range hooks {
				h.afterSend(e)
			}
		},
		BeforeNotificationSend: func(e *NotificationEvent) {
			for _, h := range hooks {
				h.beforeNotificationSend(e)
			}
		},
	}
}
