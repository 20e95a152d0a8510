package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/shineum/form-mailer/internal/config"
	"github.com/shineum/form-mailer/internal/provider"
	"github.com/shineum/form-mailer/internal/provider/graph"
	"github.com/shineum/form-mailer/internal/provider/resend"
	"github.com/shineum/form-mailer/internal/provider/ses"
	"github.com/shineum/form-mailer/internal/provider/smtp"
	"github.com/shineum/form-mailer/internal/provider/stdout"
)

// selectProvider chooses the delivery backend based on configuration and
// wraps it with the fallback provider when one is configured. out is where
// the stdout provider writes.
func selectProvider(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) (provider.Provider, error) {
	primary, err := newProvider(ctx, cfg, cfg.Provider, out, logger)
	if err != nil {
		return nil, err
	}
	if cfg.FallbackProvider == "" {
		return primary, nil
	}

	secondary, err := newProvider(ctx, cfg, cfg.FallbackProvider, out, logger)
	if err != nil {
		return nil, fmt.Errorf("fallback: %w", err)
	}
	logger.Info("fallback provider enabled", "fallback", secondary.Name())
	return provider.NewFallback(primary, secondary, logger), nil
}

// newProvider creates the named provider. An empty name auto-detects:
// Graph if configured, then SES, SMTP and Resend, else stdout.
func newProvider(ctx context.Context, cfg *config.Config, name string, out io.Writer, logger *slog.Logger) (provider.Provider, error) {
	if name == "" {
		name = detectProvider(cfg)
		logger.Info("provider auto-detected", "provider", name)
	}

	switch name {
	case "ses":
		if !cfg.SESConfigured() {
			return nil, errors.New("SES provider selected but SES_REGION and SES_SENDER are required")
		}
		logger.Info("using AWS SES provider",
			"region", cfg.SES.Region,
			"sender", cfg.SES.Sender,
		)
		p, err := ses.New(ctx, ses.SESProviderConfig{
			Region:          cfg.SES.Region,
			AccessKeyID:     cfg.SES.AccessKeyID,
			SecretAccessKey: cfg.SES.SecretAccessKey,
			Sender:          cfg.SES.Sender,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create SES provider: %w", err)
		}
		return p, nil

	case "graph":
		if !cfg.GraphConfigured() {
			return nil, errors.New("Graph provider selected but GRAPH_TENANT_ID, GRAPH_CLIENT_ID, GRAPH_CLIENT_SECRET, and GRAPH_SENDER are required")
		}
		logger.Info("using Microsoft Graph provider",
			"sender", cfg.Graph.Sender,
		)
		return graph.New(graph.GraphProviderConfig{
			TenantID:     cfg.Graph.TenantID,
			ClientID:     cfg.Graph.ClientID,
			ClientSecret: cfg.Graph.ClientSecret,
			Sender:       cfg.Graph.Sender,
		}), nil

	case "smtp":
		if !cfg.SMTPConfigured() {
			return nil, errors.New("SMTP provider selected but SMTP_HOST is required")
		}
		logger.Info("using SMTP relay provider",
			"host", cfg.SMTP.Host,
			"port", cfg.SMTP.Port,
			"tls", cfg.SMTP.TLS,
		)
		p, err := smtp.New(smtp.SMTPProviderConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			TLS:      cfg.SMTP.TLS,
			Sender:   cfg.Settings.From(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create SMTP provider: %w", err)
		}
		return p, nil

	case "resend":
		if !cfg.ResendConfigured() {
			return nil, errors.New("Resend provider selected but RESEND_API_KEY is required")
		}
		logger.Info("using Resend provider")
		return resend.New(cfg.Resend.APIKey, cfg.Settings.From()), nil

	case "stdout":
		logger.Info("using stdout provider")
		return stdout.NewWithWriter(out), nil

	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

func detectProvider(cfg *config.Config) string {
	switch {
	case cfg.GraphConfigured():
		return "graph"
	case cfg.SESConfigured():
		return "ses"
	case cfg.SMTPConfigured():
		return "smtp"
	case cfg.ResendConfigured():
		return "resend"
	default:
		return "stdout"
	}
}
