package stdout

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shineum/form-mailer/internal/email"
)

func TestSend_BasicEmail(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	msg := &email.Email{
		From:     "forms@example.com",
		To:       []string{"staff@example.com"},
		Subject:  "Contact - Submission",
		TextBody: "- **Name:** Jo",
	}

	err := p.Send(context.Background(), msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "From: forms@example.com") {
		t.Error("output missing From header")
	}
	if !strings.Contains(output, "To: staff@example.com") {
		t.Error("output missing To header")
	}
	if !strings.Contains(output, "Subject: Contact - Submission") {
		t.Error("output missing Subject header")
	}
	if !strings.Contains(output, "- **Name:** Jo") {
		t.Error("output missing body text")
	}
	if strings.Contains(output, "Attachments:") {
		t.Error("output should not contain Attachments line when there are none")
	}
	if strings.Contains(output, "Reply-To:") {
		t.Error("output should not contain Reply-To line when there is none")
	}
	if !strings.HasPrefix(output, "========================================\n") {
		t.Error("output should start with separator line")
	}
	if !strings.HasSuffix(output, "========================================\n") {
		t.Error("output should end with separator line")
	}
}

func TestSend_WithReplyToAndHeaders(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	msg := &email.Email{
		From:     "forms@example.com",
		To:       []string{"jo@example.com"},
		ReplyTo:  []string{"staff@example.com", "sales@example.com"},
		Subject:  "Thanks",
		TextBody: "Hello",
		HtmlBody: "<p>Hello</p>",
		Headers:  map[string]string{"X-Form-Mailer-Send-Id": "abc"},
	}

	if err := p.Send(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Reply-To: staff@example.com, sales@example.com") {
		t.Error("output missing Reply-To header")
	}
	if !strings.Contains(output, "X-Form-Mailer-Send-Id: abc") {
		t.Error("output missing custom header")
	}
	if !strings.Contains(output, "HTML: 12 B") {
		t.Error("output missing HTML size line")
	}
}

func TestSend_WithAttachments(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	msg := &email.Email{
		From:     "forms@example.com",
		To:       []string{"staff@example.com"},
		Subject:  "Application",
		TextBody: "- **CV:** cv.pdf",
		Attachments: []email.Attachment{
			{
				Filename:    "cv.pdf",
				ContentType: "application/pdf",
				Content:     make([]byte, 1258291), // ~1.2 MB
			},
			{
				Filename:    "portfolio.zip",
				ContentType: "application/zip",
				Content:     make([]byte, 46080), // ~45 KB
			},
		},
	}

	err := p.Send(context.Background(), msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Attachments: cv.pdf (1.2 MB), portfolio.zip (45.0 KB)") {
		t.Errorf("unexpected attachments line in output:\n%s", output)
	}
}

func TestSend_HTMLBodyFallback(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewWithWriter(&buf)

	msg := &email.Email{
		From:     "forms@example.com",
		To:       []string{"recipient@example.com"},
		Subject:  "HTML Only",
		HtmlBody: "<p>HTML content</p>",
	}

	err := p.Send(context.Background(), msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "<p>HTML content</p>") {
		t.Error("output should display HTML body when text body is empty")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestSend_WriteError(t *testing.T) {
	t.Parallel()

	p := NewWithWriter(failingWriter{})
	if err := p.Send(context.Background(), &email.Email{}); err == nil {
		t.Fatal("expected write error, got nil")
	}
}

func TestName(t *testing.T) {
	t.Parallel()

	p := New()
	if p.Name() != "stdout" {
		t.Errorf("Name: got %q, want %q", p.Name(), "stdout")
	}
}

func TestFormatSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		bytes int
		want  string
	}{
		{name: "zero bytes", bytes: 0, want: "0 B"},
		{name: "small bytes", bytes: 512, want: "512 B"},
		{name: "kilobytes", bytes: 46080, want: "45.0 KB"},
		{name: "megabytes", bytes: 1258291, want: "1.2 MB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := formatSize(tt.bytes)
			if got != tt.want {
				t.Errorf("formatSize(%d): got %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}
