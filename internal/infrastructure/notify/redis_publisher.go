package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/auction-engine/internal/domain/auction"
	"github.com/riskibarqy/auction-engine/internal/platform/logging"
)

const defaultChannel = "auction.events"

// Message is the payload published for each event.
type Message struct {
	auction.Event
	Text string `json:"text"`
}

// RedisPublisher publishes events on a per-venue channel "<channel>:<venueID>".
type RedisPublisher struct {
	rdb     redis.UniversalClient
	channel string
	logger  *logging.Logger
}

func NewRedisPublisher(rdb redis.UniversalClient, channel string, logger *logging.Logger) *RedisPublisher {
	if logger == nil {
		logger = logging.Default()
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = defaultChannel
	}
	return &RedisPublisher{rdb: rdb, channel: channel, logger: logger}
}

func (p *RedisPublisher) Channel(venueID string) string {
	return p.channel + ":" + venueID
}

func (p *RedisPublisher) Notify(ctx context.Context, event auction.Event) {
	if err := p.Publish(ctx, event); err != nil {
		p.logger.WarnContext(ctx, "publish event failed",
			"venue_id", event.VenueID,
			"event", string(event.Type),
			"error", err,
		)
	}
}

func (p *RedisPublisher) Publish(ctx context.Context, event auction.Event) error {
	payload, err := sonic.Marshal(Message{Event: event, Text: FormatEvent(event)})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.Channel(event.VenueID), payload).Err(); err != nil {
		return fmt.Errorf("publish event venue=%s: %w", event.VenueID, err)
	}
	return nil
}
