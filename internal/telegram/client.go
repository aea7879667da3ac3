// Package telegram is the Bot API transport: it feeds channel posts into a
// stream.Buffer and delivers direct messages to the recipient.
package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"golang.org/x/time/rate"

	"alert-monitor/internal/logging"
	"alert-monitor/internal/models"
	"alert-monitor/internal/stream"
	"alert-monitor/internal/utils"
)

// messageAPI is the subset of *bot.Bot used for outbound messages.
type messageAPI interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error)
}

// Client wraps a Telegram bot.
type Client struct {
	bot       *bot.Bot
	api       messageAPI
	channelID int64
	buffer    *stream.Buffer
	limiter   *rate.Limiter
	logger    *logging.Logger
}

// Options configures a Client.
type Options struct {
	Token string
	// ChannelID is the chat whose posts are monitored; 0 disables intake.
	ChannelID int64
	// RateLimit is the number of outbound messages per second.
	RateLimit int
}

// New creates the bot. Channel posts from opts.ChannelID are pushed into buffer.
func New(opts Options, buffer *stream.Buffer, logger *logging.Logger) (*Client, error) {
	c := newClient(opts, buffer, logger)

	b, err := bot.New(opts.Token,
		bot.WithDefaultHandler(c.handleUpdate),
		bot.WithAllowedUpdates(bot.AllowedUpdates{"channel_post", "message"}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to initialize Telegram bot: %v", models.ErrTransport, err)
	}
	c.bot = b
	c.api = b
	return c, nil
}

func newClient(opts Options, buffer *stream.Buffer, logger *logging.Logger) *Client {
	if opts.RateLimit <= 0 {
		opts.RateLimit = 1
	}
	return &Client{
		channelID: opts.ChannelID,
		buffer:    buffer,
		limiter:   rate.NewLimiter(rate.Limit(float64(opts.RateLimit)), opts.RateLimit),
		logger:    logger,
	}
}

// Start runs long polling until ctx is cancelled.
func (c *Client) Start(ctx context.Context) {
	c.logger.WithField("channel_id", c.channelID).Info("Telegram long polling started")
	c.bot.Start(ctx)
	c.logger.Info("Telegram long polling stopped")
}

func (c *Client) handleUpdate(ctx context.Context, b *bot.Bot, update *tgmodels.Update) {
	post := update.ChannelPost
	if post == nil {
		// Private messages to the bot, e.g. /start from the recipient.
		if update.Message != nil {
			c.logger.WithField("chat_id", update.Message.Chat.ID).Debug("Ignoring direct message to bot")
		}
		return
	}
	if c.channelID == 0 || post.Chat.ID != c.channelID {
		return
	}
	c.buffer.Push(itemFromMessage(post))
}

func itemFromMessage(m *tgmodels.Message) models.StreamItem {
	text := m.Text
	if strings.TrimSpace(text) == "" {
		text = m.Caption
	}
	return models.StreamItem{
		ID:         int64(m.ID),
		Text:       text,
		ObservedAt: time.Unix(int64(m.Date), 0),
	}
}

// SendMessage delivers text to chatID, retrying transient failures.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: telegram rate limit: %v", models.ErrTransport, err)
	}
	err := utils.Retry(ctx, c.logger, 3, time.Second, func(ctx context.Context) error {
		_, err := c.api.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
		if err != nil {
			return fmt.Errorf("failed to send Telegram message to chat_id %d: %w", chatID, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrTransport, err)
	}
	return nil
}
