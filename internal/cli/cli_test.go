package cli

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shineum/form-mailer/internal/config"
)

var allEnvVars = []string{
	"PROVIDER", "FALLBACK_PROVIDER",
	"FROM_EMAIL", "FROM_NAME", "TEMPLATES_DIR", "SEND_CONCURRENCY",
	"SES_REGION", "SES_ACCESS_KEY_ID", "SES_SECRET_ACCESS_KEY", "SES_SENDER",
	"GRAPH_TENANT_ID", "GRAPH_CLIENT_ID", "GRAPH_CLIENT_SECRET", "GRAPH_SENDER",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "SMTP_TLS",
	"RESEND_API_KEY", "LOG_LEVEL", "LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range allEnvVars {
		t.Setenv(env, "")
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const stdoutConfig = `
provider: stdout
settings:
  from_email: forms@example.com
  from_name: Acme Forms
logging:
  level: error
`

const contactPayload = `{
  "form": {
    "id": "5",
    "name": "Contact",
    "to_email": "staff@example.com, sales@example.com",
    "fields": [
      {"name": "name", "type": "text"},
      {"name": "email", "type": "email", "options": {"is_reply_to": true}}
    ]
  },
  "submission": {
    "name": {"label": "Name", "type": "text", "value": "Jo"},
    "email": {"label": "Email", "type": "email", "value": "jo@example.com"}
  }
}`

func runRoot(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), "level %q", in)
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := newLogger(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
		logger.Debug("hidden")
		logger.Info("hello", "form_id", "5")

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, `"msg":"hello"`)
		assert.Contains(t, out, `"form_id":"5"`)
	})

	t.Run("text", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := newLogger(config.LoggingConfig{Level: "warn", Format: "text"}, &buf)
		logger.Info("hidden")
		logger.Warn("careful", "form_id", "5")

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, "careful")
		assert.Contains(t, out, "form_id=5")
		assert.False(t, strings.HasPrefix(strings.TrimSpace(out), "{"))
	})
}

func TestSelectProvider(t *testing.T) {
	t.Parallel()

	settings := config.Settings{FromEmail: "forms@example.com"}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	tests := []struct {
		name     string
		cfg      config.Config
		wantName string
		wantErr  string
	}{
		{name: "stdout", cfg: config.Config{Provider: "stdout", Settings: settings}, wantName: "stdout"},
		{name: "auto stdout", cfg: config.Config{Settings: settings}, wantName: "stdout"},
		{
			name:     "auto graph",
			cfg:      config.Config{Settings: settings, Graph: config.GraphConfig{TenantID: "t", ClientID: "c", ClientSecret: "s", Sender: "a@b.c"}},
			wantName: "msgraph",
		},
		{name: "resend", cfg: config.Config{Provider: "resend", Settings: settings, Resend: config.ResendConfig{APIKey: "re_123"}}, wantName: "resend"},
		{
			name: "smtp with fallback",
			cfg: config.Config{
				Provider:         "smtp",
				FallbackProvider: "stdout",
				Settings:         settings,
				SMTP:             config.SMTPConfig{Host: "mail.example.com", Port: 587},
			},
			wantName: "smtp+stdout",
		},
		{name: "unknown", cfg: config.Config{Provider: "pigeon", Settings: settings}, wantErr: `unknown provider "pigeon"`},
		{name: "ses missing", cfg: config.Config{Provider: "ses", Settings: settings}, wantErr: "SES_REGION"},
		{name: "fallback missing", cfg: config.Config{Provider: "stdout", FallbackProvider: "smtp", Settings: settings}, wantErr: "fallback: SMTP provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := selectProvider(context.Background(), &tt.cfg, &bytes.Buffer{}, logger)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
		})
	}
}

func TestSendCommand(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "form-mailer.yaml", stdoutConfig)
	payloadPath := writeFile(t, dir, "payload.json", contactPayload)

	out, err := runRoot(t, "", "send", "--config", cfgPath, "--payload", payloadPath)
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(out, "Subject: Contact - Submission"))
	assert.Contains(t, out, "To: staff@example.com\n")
	assert.Contains(t, out, "To: sales@example.com\n")
	assert.Contains(t, out, "Reply-To: jo@example.com")
	assert.Contains(t, out, `From: "Acme Forms" <forms@example.com>`)
	assert.Contains(t, out, "- **Name:** Jo")
}

func TestSendCommand_StdinWithEvents(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "form-mailer.yaml", stdoutConfig)

	out, err := runRoot(t, contactPayload, "send", "--config", cfgPath, "--payload", "-", "--events")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "Subject: Contact - Submission"))
}

func TestSendCommand_Errors(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "form-mailer.yaml", stdoutConfig)
	badPayload := writeFile(t, dir, "bad.json", `{"form": {"id": "5"}, "submission": {"a": {"value": "1"}, "a": {"value": "2"}}}`)
	noSender := writeFile(t, dir, "no-sender.yaml", "provider: stdout\n")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "missing payload flag", args: []string{"send", "--config", cfgPath}, wantErr: "payload"},
		{name: "missing payload file", args: []string{"send", "--config", cfgPath, "--payload", filepath.Join(dir, "nope.json")}, wantErr: "failed to read payload"},
		{name: "duplicate field", args: []string{"send", "--config", cfgPath, "--payload", badPayload}, wantErr: "failed to parse payload"},
		{name: "invalid config", args: []string{"send", "--config", noSender, "--payload", badPayload}, wantErr: "from_email is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runRoot(t, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCheckCommand(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	valid := writeFile(t, dir, "valid.yaml", stdoutConfig)
	invalid := writeFile(t, dir, "invalid.yaml", "provider: ses\nsettings:\n  from_email: forms@example.com\n")

	out, err := runRoot(t, "", "check", "--config", valid)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")

	_, err = runRoot(t, "", "check", "--config", invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ses provider requires")
}
