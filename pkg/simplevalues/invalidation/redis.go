package invalidation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel used when none is configured
const DefaultChannel = "simple-values:invalidate"

// Publisher broadcasts notifications to every subscribed instance
type Publisher struct {
	client  redis.UniversalClient
	channel string
}

// NewPublisher creates a Redis publisher
func NewPublisher(client redis.UniversalClient, channel string) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{client: client, channel: channel}
}

// Notify publishes n. The publishing instance applies it through its own
// subscriber like every other instance.
func (p *Publisher) Notify(ctx context.Context, n Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// Subscriber feeds notifications from Redis into a Handler
type Subscriber struct {
	client  redis.UniversalClient
	channel string
	handler *Handler
	logger  *slog.Logger
}

// NewSubscriber creates a Redis subscriber
func NewSubscriber(client redis.UniversalClient, channel string, handler *Handler, logger *slog.Logger) *Subscriber {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriber{client: client, channel: channel, handler: handler, logger: logger}
}

// Run receives notifications until ctx is done. Malformed messages are
// logged and skipped.
func (s *Subscriber) Run(ctx context.Context) error {
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	// Wait for confirmation that subscription is created
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s: %w", s.channel, err)
	}
	s.logger.Info("Subscribed to invalidation channel", "channel", s.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := s.handler.HandleMessage(ctx, msg.Payload); err != nil {
				s.logger.Warn("Skipping invalidation message", "channel", msg.Channel, "error", err)
			}
		}
	}
}
