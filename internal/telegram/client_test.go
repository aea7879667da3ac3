package telegram

import (
	"context"
	"errors"
	"testing"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alert-monitor/internal/logging"
	"alert-monitor/internal/models"
	"alert-monitor/internal/stream"
)

type fakeAPI struct {
	failures int
	sent     []*bot.SendMessageParams
}

func (f *fakeAPI) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error) {
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("bad gateway")
	}
	f.sent = append(f.sent, params)
	return &tgmodels.Message{ID: len(f.sent)}, nil
}

func TestHandleUpdate_OnlyMonitoredChannel(t *testing.T) {
	buf := stream.NewBuffer(10)
	c := newClient(Options{ChannelID: -100}, buf, logging.Discard())

	c.handleUpdate(context.Background(), nil, &tgmodels.Update{ChannelPost: &tgmodels.Message{
		ID: 5, Chat: tgmodels.Chat{ID: -100}, Date: 1700000000, Text: "Дніпро червоний",
	}})
	c.handleUpdate(context.Background(), nil, &tgmodels.Update{ChannelPost: &tgmodels.Message{
		ID: 6, Chat: tgmodels.Chat{ID: -200}, Text: "інший канал",
	}})
	c.handleUpdate(context.Background(), nil, &tgmodels.Update{Message: &tgmodels.Message{
		ID: 7, Chat: tgmodels.Chat{ID: 42}, Text: "/start",
	}})

	items, err := buf.FetchSince(context.Background(), nil, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(5), items[0].ID)
	assert.Equal(t, "Дніпро червоний", items[0].Text)
	assert.Equal(t, int64(1700000000), items[0].ObservedAt.Unix())
}

func TestItemFromMessage_UsesCaptionForMedia(t *testing.T) {
	item := itemFromMessage(&tgmodels.Message{ID: 9, Caption: "фото: Дніпро помаранчевий"})
	assert.Equal(t, "фото: Дніпро помаранчевий", item.Text)
}

func TestSendMessage_RetriesThenSucceeds(t *testing.T) {
	api := &fakeAPI{failures: 1}
	c := newClient(Options{RateLimit: 10}, stream.NewBuffer(1), logging.Discard())
	c.api = api

	require.NoError(t, c.SendMessage(context.Background(), 42, "увага"))
	require.Len(t, api.sent, 1)
	assert.Equal(t, int64(42), api.sent[0].ChatID)
	assert.Equal(t, "увага", api.sent[0].Text)
}

func TestSendMessage_CancelledContextIsTransportError(t *testing.T) {
	c := newClient(Options{RateLimit: 1}, stream.NewBuffer(1), logging.Discard())
	c.api = &fakeAPI{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.SendMessage(ctx, 42, "x")
	assert.ErrorIs(t, err, models.ErrTransport)
}
