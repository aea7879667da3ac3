// Package kafka reads stream items from a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"alert-monitor/internal/logging"
	"alert-monitor/internal/models"
	"alert-monitor/internal/stream"
)

type Config struct {
	Broker string
	Topic  string
	// StartAfter resumes reading after this offset; nil reads from the oldest message.
	StartAfter *int64
}

// Consumer feeds partition 0 of a topic into a stream.Buffer.
// The message offset becomes the item id.
type Consumer struct {
	reader *kafka.Reader
	buffer *stream.Buffer
	logger *logging.Logger
}

func NewConsumer(cfg Config, buffer *stream.Buffer, logger *logging.Logger) (*Consumer, error) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   []string{cfg.Broker},
		Topic:     cfg.Topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1 << 20,
		MaxWait:   time.Second,
	})
	var offset int64 = kafka.FirstOffset
	if cfg.StartAfter != nil {
		offset = *cfg.StartAfter + 1
	}
	if err := r.SetOffset(offset); err != nil {
		r.Close()
		return nil, err
	}
	return &Consumer{reader: r, buffer: buffer, logger: logger}, nil
}

// Start reads messages until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.logger.WithField("topic", c.reader.Config().Topic).Info("Kafka consumer started")
		for {
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || ctx.Err() != nil {
					c.logger.Info("Kafka consumer stopped")
					return
				}
				c.logger.WithError(err).Error("Read message failed")
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Second):
				}
				continue
			}

			item, ok := decode(msg)
			if !ok {
				c.logger.WithField("offset", msg.Offset).Warn("Skipping empty Kafka message")
				continue
			}
			c.buffer.Push(item)
		}
	}()
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

type payload struct {
	Text string `json:"text"`
}

// decode accepts either {"text": "..."} or a raw text body.
func decode(msg kafka.Message) (models.StreamItem, bool) {
	text := string(msg.Value)
	var p payload
	if err := json.Unmarshal(msg.Value, &p); err == nil && p.Text != "" {
		text = p.Text
	}
	if strings.TrimSpace(text) == "" {
		return models.StreamItem{}, false
	}
	observed := msg.Time
	if observed.IsZero() {
		observed = time.Now()
	}
	return models.StreamItem{ID: msg.Offset, Text: text, ObservedAt: observed}, true
}
