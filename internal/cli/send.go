package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/spf13/cobra"

	"github.com/shineum/form-mailer/internal/events"
	"github.com/shineum/form-mailer/internal/form"
	"github.com/shineum/form-mailer/internal/mailer"
	"github.com/shineum/form-mailer/internal/view"
)

// Payload is the input of the send command.
type Payload struct {
	Form       form.Form       `json:"form"`
	Submission form.Submission `json:"submission"`
}

type sendOptions struct {
	payloadPath string
	events      bool
	timeout     time.Duration
}

func newSendCmd(root *rootOptions) *cobra.Command {
	opts := &sendOptions{}

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send the emails for one form submission",
		Long: `Send reads a JSON payload holding a form definition and a submission,
composes the notification email and delivers it.

The payload looks like:
  {
    "form": {"id": "5", "name": "Contact", "to_email": "staff@example.com", "fields": [...]},
    "submission": {"email": {"label": "Email", "type": "email", "value": "jo@example.com"}}
  }

Use --payload - to read the payload from standard input.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.payloadPath, "payload", "p", "", "path to the JSON payload, or - for stdin")
	cmd.Flags().BoolVar(&opts.events, "events", false, "publish and log a record of each send")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", time.Minute, "timeout for the whole send")
	_ = cmd.MarkFlagRequired("payload")

	return cmd
}

func runSend(cmd *cobra.Command, root *rootOptions, opts *sendOptions) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	logger := setupLogger(cfg.Logging)

	payload, err := readPayload(opts.payloadPath, cmd.InOrStdin())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	prov, err := selectProvider(ctx, cfg, cmd.OutOrStdout(), logger)
	if err != nil {
		return err
	}

	m := mailer.New(cfg.Settings, cfg.Mail, view.New(cfg.Settings.TemplatesDir), prov,
		mailer.WithLogger(logger),
	)

	var hooks mailer.Hooks
	if opts.events {
		pubsub, done, err := startEventLog(ctx, logger)
		if err != nil {
			return err
		}
		defer func() {
			_ = pubsub.Close()
			<-done
		}()
		hooks = events.NewPublisher(pubsub, logger).Hooks()
	}

	logger.Info("sending form submission",
		"form_id", payload.Form.ID,
		"provider", prov.Name(),
		"fields", len(payload.Submission),
	)

	if err := m.Send(ctx, &payload.Form, payload.Submission, hooks); err != nil {
		return fmt.Errorf("send failed: %w", err)
	}
	return nil
}

func readPayload(path string, stdin io.Reader) (*Payload, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse payload: %w", err)
	}
	return &p, nil
}

// startEventLog creates an in-process pub/sub and logs every record
// published on it. done is closed once the pub/sub is closed and drained.
func startEventLog(ctx context.Context, logger *slog.Logger) (*gochannel.GoChannel, <-chan struct{}, error) {
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		BlockPublishUntilSubscriberAck: true,
	}, watermill.NewSlogLogger(logger))

	msgs, err := pubsub.Subscribe(ctx, events.TopicMessageSent)
	if err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to events: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range msgs {
			logEvent(logger, msg)
			msg.Ack()
		}
	}()

	return pubsub, done, nil
}

func logEvent(logger *slog.Logger, msg *message.Message) {
	ev, err := events.Decode(msg)
	if err != nil {
		logger.Warn("invalid send event", "error", err)
		return
	}
	logger.Info("send event",
		"event_id", msg.UUID,
		"send_id", ev.SendID,
		"form_id", ev.FormID,
		"recipients", len(ev.To),
		"failed", len(ev.Failed),
	)
}
