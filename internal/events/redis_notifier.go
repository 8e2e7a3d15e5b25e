package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/coop-console/internal/domain"
)

// RedisNotifier delivers events locally and relays them to other console
// instances over a Redis pub/sub channel.
type RedisNotifier struct {
	client   *redis.Client
	channel  string
	local    Notifier
	instance string
	logger   *zap.Logger
}

// NewRedisNotifier wraps local with a Redis relay on channel.
func NewRedisNotifier(client *redis.Client, channel string, local Notifier, logger *zap.Logger) *RedisNotifier {
	return &RedisNotifier{
		client:   client,
		channel:  channel,
		local:    local,
		instance: uuid.NewString(),
		logger:   logger,
	}
}

// Publish notifies local subscribers, then forwards the event to Redis.
func (n *RedisNotifier) Publish(ctx context.Context, event Event) error {
	if err := n.local.Publish(ctx, event); err != nil {
		return err
	}

	event.Source = n.instance
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Subscribe registers a local handler.
func (n *RedisNotifier) Subscribe(client domain.ClientID, handler Handler) func() {
	return n.local.Subscribe(client, handler)
}

// Run relays events from other instances until ctx is cancelled.
func (n *RedisNotifier) Run(ctx context.Context) error {
	pubsub := n.client.Subscribe(ctx, n.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", n.channel, err)
	}
	n.logger.Info("relaying storage notifications", zap.String("channel", n.channel))

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			n.relay(ctx, msg.Payload)
		}
	}
}

func (n *RedisNotifier) relay(ctx context.Context, payload string) {
	var event Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		n.logger.Warn("dropping malformed notification", zap.Error(err))
		return
	}
	if event.Source == n.instance || event.ClientID == "" {
		return
	}
	if err := n.local.Publish(ctx, event); err != nil {
		n.logger.Warn("relay storage change",
			zap.String("client_id", string(event.ClientID)),
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
}
