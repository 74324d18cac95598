package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Consumer reads news items from the stream via a consumer group.
type Consumer struct {
	rdb          *redis.Client
	groupName    string
	consumerName string
	logger       *slog.Logger
}

func NewConsumer(redisURL, consumerName string, logger *slog.Logger) (*Consumer, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	// Read timeout must exceed the XReadGroup Block duration (5s)
	// to avoid spurious i/o timeout errors on idle streams.
	opts.ReadTimeout = 10 * time.Second

	client := redis.NewClient(opts)

	// Start ID "0" means read from beginning if group is new.
	err = client.XGroupCreateMkStream(context.Background(), StreamItems, GroupBot, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &Consumer{
		rdb:          client,
		groupName:    GroupBot,
		consumerName: consumerName,
		logger:       logger,
	}, nil
}

// Consume runs a blocking loop feeding stream items to the handler. Items
// whose handler fails stay in the pending entries list for retry.
func (c *Consumer) Consume(ctx context.Context, handler func(ctx context.Context, item Item) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		streams, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.groupName,
			Consumer: c.consumerName,
			Streams:  []string{StreamItems, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			// Blocking reads return a timeout when no messages arrive
			// within the Block duration — this is normal, not an error.
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if errors.Is(err, context.Canceled) {
				return err
			}
			c.logger.Error("failed to read from stream", "error", err.Error())
			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				payloadStr, ok := message.Values["payload"].(string)
				if !ok {
					c.logger.Error("invalid message payload", "message_id", message.ID)
					_ = c.rdb.XAck(ctx, StreamItems, c.groupName, message.ID).Err()
					continue
				}

				var item Item
				if err := json.Unmarshal([]byte(payloadStr), &item); err != nil {
					c.logger.Error("failed to unmarshal item", "error", err.Error(), "message_id", message.ID)
					_ = c.rdb.XAck(ctx, StreamItems, c.groupName, message.ID).Err()
					continue
				}

				if err := handler(ctx, item); err != nil {
					c.logger.Error("item handler failed", "error", err.Error(), "guid", item.GUID)
					// Message stays in PEL for retry, don't ACK.
					continue
				}

				if err := c.rdb.XAck(ctx, StreamItems, c.groupName, message.ID).Err(); err != nil {
					c.logger.Error("failed to ACK message", "error", err.Error(), "message_id", message.ID)
				}
			}
		}
	}
}

func (c *Consumer) Close() error {
	return c.rdb.Close()
}
