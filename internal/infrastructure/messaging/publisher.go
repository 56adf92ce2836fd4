package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/linguaromana/engagement/internal/domain/shared"
	redisstore "github.com/linguaromana/engagement/internal/infrastructure/persistence/redis"
	"github.com/linguaromana/engagement/pkg/logger"
)

const envelopeVersion = 1

// correlated is implemented by events that carry a correlation ID.
type correlated interface {
	Correlation() string
}

// NewEnvelope wraps an event for transport.
func NewEnvelope(event shared.Event) (shared.EventEnvelope, error) {
	payload, err := json.Marshal(event.Payload())
	if err != nil {
		return shared.EventEnvelope{}, fmt.Errorf("marshal payload: %w", err)
	}

	envelope := shared.EventEnvelope{
		ID:          uuid.NewString(),
		Type:        event.EventType(),
		AggregateID: event.AggregateID(),
		Timestamp:   event.OccurredAt().UTC(),
		Version:     envelopeVersion,
		Payload:     payload,
	}
	if c, ok := event.(correlated); ok {
		envelope.CorrelationID = c.Correlation()
	}
	return envelope, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REDIS PUBLISHER
// ══════════════════════════════════════════════════════════════════════════════

// RedisPublisher publishes each event as a JSON envelope on the Redis channel
// of its type.
type RedisPublisher struct {
	client  redis.Cmdable
	timeout time.Duration
	logger  *slog.Logger
}

// NewRedisPublisher creates a new RedisPublisher.
func NewRedisPublisher(client redis.Cmdable, timeout time.Duration, log *slog.Logger) *RedisPublisher {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &RedisPublisher{
		client:  client,
		timeout: timeout,
		logger:  logger.OrDefault(log).With(logger.Component("redis_publisher")),
	}
}

// Publish implements shared.EventPublisher.
func (p *RedisPublisher) Publish(event shared.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	envelope, err := NewEnvelope(event)
	if err != nil {
		return err
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	channel := redisstore.EventChannel(string(envelope.Type))
	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}

	p.logger.Debug("event published",
		logger.EventType(string(envelope.Type)),
		slog.String("event_id", envelope.ID),
		logger.CorrelationID(envelope.CorrelationID),
	)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// FAN-OUT
// ══════════════════════════════════════════════════════════════════════════════

// Fanout publishes every event to each publisher in order. All publishers are
// tried even when one fails; the errors are joined.
type Fanout []shared.EventPublisher

// Publish implements shared.EventPublisher.
func (f Fanout) Publish(event shared.Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
