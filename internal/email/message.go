// Package email defines the outbound message model handed to delivery providers.
package email

// Email is a fully composed message. The mailer fans a composed message out
// by cloning it with a single address in To for each provider call.
type Email struct {
	From        string
	To          []string
	ReplyTo     []string
	Subject     string
	TextBody    string
	HtmlBody    string
	Attachments []Attachment
	Headers     map[string]string
}

// Attachment represents a file attached to an email message.
// Path is the local file the content was read from, if any.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
	Path        string
}

// WithRecipient returns a shallow copy of e addressed to a single recipient.
// Bodies, attachments and headers are shared, so every copy carries
// byte-identical content.
func (e *Email) WithRecipient(addr string) *Email {
	c := *e
	c.To = []string{addr}
	return &c
}
