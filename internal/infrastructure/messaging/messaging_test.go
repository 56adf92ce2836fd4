package messaging

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguaromana/engagement/internal/domain/shared"
	"github.com/linguaromana/engagement/pkg/logger"
)

var at = time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC)

func newBus(async bool) *InMemoryEventBus {
	return NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: async, Logger: logger.Discard()})
}

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := newBus(false)
	defer bus.Close()

	var badges, all []shared.EventType
	require.NoError(t, bus.Subscribe(shared.EventBadgeEarned, func(e shared.Event) error {
		badges = append(badges, e.EventType())
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		all = append(all, e.EventType())
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewBadgeEarnedEvent("u1", 1, "Premier Pas", "🎯", at)))
	require.NoError(t, bus.Publish(shared.NewStreakResetEvent("u1", 3, at)))

	assert.Equal(t, []shared.EventType{shared.EventBadgeEarned}, badges)
	assert.Equal(t, []shared.EventType{shared.EventBadgeEarned, shared.EventStreakReset}, all)
}

func TestInMemoryEventBus_HandlerFailuresDoNotReachPublisher(t *testing.T) {
	bus := newBus(false)
	defer bus.Close()

	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { return errors.New("boom") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { panic("handler bug") }))

	assert.NoError(t, bus.Publish(shared.NewStreakResetEvent("u1", 1, at)))

	m := bus.Metrics()
	assert.Equal(t, int64(1), m.Published)
	assert.Equal(t, int64(2), m.HandlerExecutions)
	assert.Equal(t, int64(2), m.HandlerFailures)
}

func TestInMemoryEventBus_AsyncWaitsOnClose(t *testing.T) {
	bus := newBus(true)

	var handled atomic.Int32
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		time.Sleep(5 * time.Millisecond)
		handled.Add(1)
		return nil
	}))

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(shared.NewStreakResetEvent("u1", i, at)))
	}
	require.NoError(t, bus.Close())

	assert.Equal(t, int32(10), handled.Load())
	assert.ErrorIs(t, bus.Publish(shared.NewStreakResetEvent("u1", 0, at)), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventStreakReset, func(shared.Event) error { return nil }), ErrEventBusClosed)
}

func TestInMemoryEventBus_CloseDrainsQueuedHandlers(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: true, WorkerPoolSize: 1, Logger: logger.Discard()})

	var handled atomic.Int32
	require.NoError(t, bus.Subscribe(shared.EventStreakReset, func(shared.Event) error {
		time.Sleep(10 * time.Millisecond)
		handled.Add(1)
		return nil
	}))

	// One worker: all but the first event are still waiting for a slot.
	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(shared.NewStreakResetEvent("u1", i, at)))
	}
	require.NoError(t, bus.Close())

	assert.Equal(t, int32(5), handled.Load())
	assert.Equal(t, int64(5), bus.Metrics().HandlerExecutions)
}

func TestInMemoryEventBus_NilArguments(t *testing.T) {
	bus := newBus(false)
	defer bus.Close()

	assert.Error(t, bus.Publish(nil))
	assert.Error(t, bus.Subscribe(shared.EventStreakReset, nil))
	assert.Error(t, bus.SubscribeAll(nil))
}

func TestNewEnvelope(t *testing.T) {
	event := shared.NewQuizResultAcceptedEvent("u1", "a1", 90, 70, 4, 31, false, at)
	event.CorrelationID = "req-42"

	envelope, err := NewEnvelope(event)
	require.NoError(t, err)

	assert.NotEmpty(t, envelope.ID)
	assert.Equal(t, shared.EventQuizResultAccepted, envelope.Type)
	assert.Equal(t, "u1", envelope.AggregateID)
	assert.Equal(t, "req-42", envelope.CorrelationID)
	assert.True(t, at.Equal(envelope.Timestamp))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.EqualValues(t, 90, payload["score"])

	other, err := NewEnvelope(event)
	require.NoError(t, err)
	assert.NotEqual(t, envelope.ID, other.ID)
}

type capturePublisher struct {
	mu     sync.Mutex
	events []shared.Event
	err    error
}

func (c *capturePublisher) Publish(e shared.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return c.err
}

func TestFanout_TriesEveryPublisher(t *testing.T) {
	failing := &capturePublisher{err: errors.New("down")}
	healthy := &capturePublisher{}

	err := Fanout{failing, healthy}.Publish(shared.NewStreakResetEvent("u1", 2, at))
	require.Error(t, err)
	assert.Len(t, failing.events, 1)
	assert.Len(t, healthy.events, 1)

	assert.NoError(t, Fanout{}.Publish(shared.NewStreakResetEvent("u1", 2, at)))
}

func TestRedisPublisher_ReportsConnectionErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
	defer client.Close()

	p := NewRedisPublisher(client, time.Second, logger.Discard())
	assert.Error(t, p.Publish(shared.NewStreakResetEvent("u1", 2, at)))
	assert.Error(t, p.Publish(nil))
}
