package resend

import (
	"context"
	"errors"
	"testing"

	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shineum/form-mailer/internal/email"
)

type mockEmails struct {
	err  error
	last *resend.SendEmailRequest
}

func (m *mockEmails) SendWithContext(_ context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	m.last = params
	if m.err != nil {
		return nil, m.err
	}
	return &resend.SendEmailResponse{Id: "re_123"}, nil
}

func TestSend(t *testing.T) {
	t.Parallel()

	mock := &mockEmails{}
	p := NewWithClient("forms@example.com", mock)

	err := p.Send(context.Background(), &email.Email{
		To:       []string{"jo@example.com"},
		ReplyTo:  []string{"staff@example.com", "sales@example.com"},
		Subject:  "Thanks",
		TextBody: "Hello",
		HtmlBody: "<p>Hello</p>",
		Headers:  map[string]string{"X-Form-Mailer-Send-Id": "abc"},
		Attachments: []email.Attachment{
			{Filename: "cv.pdf", ContentType: "application/pdf", Content: []byte("%PDF")},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, mock.last)

	assert.Equal(t, "forms@example.com", mock.last.From)
	assert.Equal(t, []string{"jo@example.com"}, mock.last.To)
	assert.Equal(t, "staff@example.com, sales@example.com", mock.last.ReplyTo)
	assert.Equal(t, "Thanks", mock.last.Subject)
	assert.Equal(t, "Hello", mock.last.Text)
	assert.Equal(t, "<p>Hello</p>", mock.last.Html)
	assert.Equal(t, map[string]string{"X-Form-Mailer-Send-Id": "abc"}, mock.last.Headers)
	require.Len(t, mock.last.Attachments, 1)
	assert.Equal(t, "cv.pdf", mock.last.Attachments[0].Filename)
	assert.Equal(t, []byte("%PDF"), mock.last.Attachments[0].Content)
}

func TestSend_MessageFromWins(t *testing.T) {
	t.Parallel()

	mock := &mockEmails{}
	p := NewWithClient("forms@example.com", mock)

	require.NoError(t, p.Send(context.Background(), &email.Email{From: "other@example.com", To: []string{"a@example.com"}}))
	assert.Equal(t, "other@example.com", mock.last.From)
	assert.Empty(t, mock.last.ReplyTo)
	assert.Nil(t, mock.last.Headers)
}

func TestSend_Error(t *testing.T) {
	t.Parallel()

	apiErr := errors.New("validation_error")
	p := NewWithClient("forms@example.com", &mockEmails{err: apiErr})

	err := p.Send(context.Background(), &email.Email{To: []string{"a@example.com"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, apiErr)
	assert.Contains(t, err.Error(), "resend:")
}

func TestName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "resend", NewWithClient("", &mockEmails{}).Name())
}
