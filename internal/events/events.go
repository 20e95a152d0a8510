// Package events publishes a record of every dispatched submission to a
// watermill publisher so other processes can observe deliveries.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/shineum/form-mailer/internal/mailer"
)

// TopicMessageSent is the topic records are published on.
const TopicMessageSent = "form_mailer.message_sent"

// MessageSent is the payload of a published record.
type MessageSent struct {
	SendID  string    `json:"send_id"`
	FormID  string    `json:"form_id"`
	Subject string    `json:"subject"`
	From    string    `json:"from"`
	To      []string  `json:"to"`
	ReplyTo string    `json:"reply_to,omitempty"`
	Failed  []string  `json:"failed,omitempty"`
	SentAt  time.Time `json:"sent_at"`
}

// Publisher turns AfterSend events into watermill messages.
type Publisher struct {
	publisher message.Publisher
	topic     string
	logger    *slog.Logger
	now       func() time.Time
}

// NewPublisher creates a Publisher writing to pub on TopicMessageSent.
func NewPublisher(pub message.Publisher, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		publisher: pub,
		topic:     TopicMessageSent,
		logger:    logger,
		now:       time.Now,
	}
}

// Hooks returns mailer hooks that publish after every primary fan-out.
func (p *Publisher) Hooks() mailer.Hooks {
	return mailer.Hooks{AfterSend: p.afterSend}
}

// Publish publishes one record for e.
func (p *Publisher) Publish(e mailer.SendEvent) error {
	payload, err := json.Marshal(MessageSent{
		SendID:  e.SendID,
		FormID:  e.FormID,
		Subject: e.Subject,
		From:    e.From,
		To:      e.To,
		ReplyTo: e.ReplyTo,
		Failed:  e.Failed,
		SentAt:  p.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set("send_id", e.SendID)
	msg.Metadata.Set("form_id", e.FormID)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// afterSend runs inside Send, which has no way to report hook errors.
func (p *Publisher) afterSend(e mailer.SendEvent) {
	if err := p.Publish(e); err != nil {
		p.logger.Warn("failed to publish send event",
			"send_id", e.SendID,
			"error", err,
		)
	}
}

// Decode parses the payload of a published record.
func Decode(msg *message.Message) (MessageSent, error) {
	var out MessageSent
	if err := json.Unmarshal(msg.Payload, &out); err != nil {
		return MessageSent{}, fmt.Errorf("failed to decode event %s: %w", msg.UUID, err)
	}
	return out, nil
}
