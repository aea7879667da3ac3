// Package notify delivers messages to the responsible person.
package notify

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"alert-monitor/internal/models"
)

// Message is a single notification.
type Message struct {
	Level models.ThreatLevel
	Text  string
}

// Notifier sends messages through one backend.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
	Name() string
}

// MessageSender is implemented by telegram.Client.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Telegram sends direct messages to one chat.
type Telegram struct {
	sender MessageSender
	chatID int64
}

func NewTelegram(sender MessageSender, chatID int64) *Telegram {
	return &Telegram{sender: sender, chatID: chatID}
}

func (t *Telegram) Notify(ctx context.Context, msg Message) error {
	return t.sender.SendMessage(ctx, t.chatID, msg.Text)
}

func (t *Telegram) Name() string {
	return "telegram"
}

// smsMaxLength is the longest body Twilio accepts for a single message.
const smsMaxLength = 1600

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// SMS sends text messages through Twilio.
type SMS struct {
	api  messageCreator
	from string
	to   string
}

// NewSMS returns an SMS notifier backed by the given Twilio client.
func NewSMS(client *twilio.RestClient, from, to string) *SMS {
	return &SMS{api: client.Api, from: from, to: to}
}

func (s *SMS) Notify(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrTransport, err)
	}
	body := truncate(msg.Text, smsMaxLength)
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(s.to)
	params.SetFrom(s.from)
	params.SetBody(body)

	if _, err := s.api.CreateMessage(params); err != nil {
		return fmt.Errorf("%w: failed to send SMS to %s: %v", models.ErrTransport, s.to, err)
	}
	return nil
}

func (s *SMS) Name() string {
	return "sms"
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// Multi sends a message to every backend, one after another in order.
// It returns the first error encountered but still sends to every backend.
type Multi struct {
	notifiers []Notifier
}

func NewMulti(notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers}
}

func (m *Multi) Notify(ctx context.Context, msg Message) error {
	var firstErr error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, msg); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", n.Name(), err)
		}
	}
	return firstErr
}

func (m *Multi) Name() string {
	return "multi"
}

// Config selects and parameterizes notification backends.
type Config struct {
	Backends []string

	Telegram MessageSender
	ChatID   int64

	Twilio  *twilio.RestClient
	SMSFrom string
	SMSTo   string
}

// FromConfig builds a Notifier from the configured backend names.
func FromConfig(cfg Config) (Notifier, error) {
	var notifiers []Notifier
	for _, backend := range cfg.Backends {
		switch backend {
		case "telegram":
			if cfg.Telegram == nil || cfg.ChatID == 0 {
				return nil, fmt.Errorf("%w: telegram backend requires a bot and chat id", models.ErrConfiguration)
			}
			notifiers = append(notifiers, NewTelegram(cfg.Telegram, cfg.ChatID))
		case "sms":
			if cfg.Twilio == nil || cfg.SMSFrom == "" || cfg.SMSTo == "" {
				return nil, fmt.Errorf("%w: sms backend requires Twilio credentials and numbers", models.ErrConfiguration)
			}
			notifiers = append(notifiers, NewSMS(cfg.Twilio, cfg.SMSFrom, cfg.SMSTo))
		default:
			return nil, fmt.Errorf("%w: unknown notification backend: %s", models.ErrConfiguration, backend)
		}
	}

	switch len(notifiers) {
	case 0:
		return nil, fmt.Errorf("%w: no notification backends configured", models.ErrConfiguration)
	case 1:
		return notifiers[0], nil
	}
	return NewMulti(notifiers...), nil
}
