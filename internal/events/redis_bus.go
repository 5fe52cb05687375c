package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"task-tracker/internal/apperrors"
	"task-tracker/internal/cache"
	"task-tracker/internal/logging"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type relayMessage struct {
	Origin string `json:"origin"`
	Event
}

// RedisBus extends a Hub across instances. Publish delivers locally first and
// then relays through a redis channel; Run feeds events relayed by other
// instances into the local hub.
type RedisBus struct {
	hub     *Hub
	client  *redis.Client
	channel string
	origin  string
	timeout time.Duration
	breaker *cache.CircuitBreaker
	logger  logrus.FieldLogger
}

func NewRedisBus(hub *Hub, client *redis.Client, channel string, timeout time.Duration, breaker *cache.CircuitBreaker, logger logrus.FieldLogger) *RedisBus {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if breaker == nil {
		breaker = cache.NewCircuitBreaker(nil)
	}

	return &RedisBus{
		hub:     hub,
		client:  client,
		channel: channel,
		origin:  uuid.Must(uuid.NewV4()).String(),
		timeout: timeout,
		breaker: breaker,
		logger:  logging.OrDiscard(logger).WithField("component", "redis_bus"),
	}
}

func (b *RedisBus) Publish(ctx context.Context, name string, payload interface{}) error {
	if !b.hub.Started() {
		return ErrNotInitialized
	}

	event, err := NewEvent(name, payload)
	if err != nil {
		return err
	}
	b.hub.Deliver(event)

	data, err := json.Marshal(relayMessage{Origin: b.origin, Event: event})
	if err != nil {
		return fmt.Errorf("failed to encode relay message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	err = b.breaker.Execute(func() error {
		return b.client.Publish(ctx, b.channel, data).Err()
	})
	if err != nil {
		return fmt.Errorf("%w: relay %s: %v", apperrors.ErrTransport, name, err)
	}
	return nil
}

// Run relays events published by other instances until ctx is cancelled.
func (b *RedisBus) Run(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}
	b.logger.WithField("channel", b.channel).Info("Relaying events from redis")

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			b.relay(msg.Payload)
		}
	}
}

func (b *RedisBus) relay(payload string) {
	var msg relayMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		b.logger.WithError(err).Warn("Dropping malformed relay message")
		return
	}
	if msg.Origin == b.origin || !b.hub.Started() {
		return
	}
	b.hub.Deliver(msg.Event)
}
