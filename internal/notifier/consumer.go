package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/events"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/redisutil"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
)

// Consumer reads document-change events off the redis stream as part of a
// consumer group and hands each one to the Handler. Messages are acked only
// after the handler returns without error, so a crashed consumer leaves them
// pending for redelivery.
type Consumer struct {
	client    *redis.Client
	handler   *Handler
	stream    string
	group     string
	name      string
	batchSize int64
	logger    *zap.Logger
}

func NewConsumer(client *redis.Client, handler *Handler, stream, group, name string, batchSize int64, logger *zap.Logger) *Consumer {
	return &Consumer{
		client:    client,
		handler:   handler,
		stream:    stream,
		group:     group,
		name:      name,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Run blocks until ctx is cancelled. Read errors back the loop off
// exponentially up to maxBackoff; a successful read resets the backoff.
func (c *Consumer) Run(ctx context.Context) error {
	if err := redisutil.CreateConsumerGroup(ctx, c.client, c.stream, c.group); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	c.logger.Info("Notifier consumer started",
		zap.String("stream", c.stream),
		zap.String("group", c.group),
		zap.String("consumer", c.name),
	)

	backoff := initialBackoff
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Notifier consumer stopping")
			return ctx.Err()
		default:
		}

		messages, err := redisutil.ReadFromStream(ctx, c.client, c.stream, c.group, c.name, c.batchSize)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("Failed to read from stream",
				zap.String("stream", c.stream),
				zap.Duration("backoff", backoff),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = initialBackoff

		for _, msg := range messages {
			c.process(ctx, msg)
		}
	}
}

// process handles one message. Malformed payloads are acked and dropped so
// they cannot poison the group; handler failures leave the message pending.
func (c *Consumer) process(ctx context.Context, msg redisutil.StreamMessage) {
	event, err := decodeEvent(msg)
	if err != nil {
		c.logger.Error("Failed to decode event, dropping message",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		c.ack(ctx, msg.ID)
		return
	}

	if err := c.handler.Handle(ctx, event); err != nil {
		c.logger.Error("Failed to handle event",
			zap.String("message_id", msg.ID),
			zap.String("event_type", event.Type),
			zap.Error(err),
		)
		return
	}

	c.ack(ctx, msg.ID)
}

func (c *Consumer) ack(ctx context.Context, messageID string) {
	if err := c.client.XAck(ctx, c.stream, c.group, messageID).Err(); err != nil {
		c.logger.Warn("Failed to ack message",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
	}
}

func decodeEvent(msg redisutil.StreamMessage) (events.DocumentEvent, error) {
	var event events.DocumentEvent

	raw, ok := msg.Values["data"]
	if !ok {
		return event, fmt.Errorf("message has no data field")
	}
	data, ok := raw.(string)
	if !ok {
		return event, fmt.Errorf("data field is not a string")
	}
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return event, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.Type == "" {
		return event, fmt.Errorf("event has no type")
	}
	return event, nil
}
