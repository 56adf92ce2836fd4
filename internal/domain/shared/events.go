package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Events are published after the unit of work that
// produced them has committed.
const (
	EventQuizResultAccepted EventType = "quiz.result_accepted"
	EventActivityRecorded   EventType = "activity.recorded"
	EventStreakUpdated      EventType = "streak.updated"
	EventStreakReset        EventType = "streak.reset"
	EventBadgeEarned        EventType = "badge.earned"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string, at time.Time) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   at,
		AggregateId: aggregateID,
		Version:     1,
	}
}

// Correlation returns the correlation ID, empty when none was set.
func (e BaseEvent) Correlation() string {
	return e.CorrelationID
}

// WithCorrelationID returns a copy of the event with correlation ID set.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Quiz & Activity Events
// ═══════════════════════════════════════════════════════════════════════════

// QuizResultAcceptedEvent is emitted when a submission creates or improves a result.
type QuizResultAcceptedEvent struct {
	BaseEvent
	UserID        string `json:"user_id"`
	ItemID        string `json:"item_id"`
	Score         int    `json:"score"`
	PreviousScore int    `json:"previous_score"`
	PointsAwarded int    `json:"points_awarded"`
	TotalPoints   int    `json:"total_points"`
	FirstAttempt  bool   `json:"first_attempt"`
}

// Payload implements Event interface.
func (e QuizResultAcceptedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        e.UserID,
		"item_id":        e.ItemID,
		"score":          e.Score,
		"previous_score": e.PreviousScore,
		"points_awarded": e.PointsAwarded,
		"total_points":   e.TotalPoints,
		"first_attempt":  e.FirstAttempt,
	}
}

// NewQuizResultAcceptedEvent creates a new QuizResultAcceptedEvent.
func NewQuizResultAcceptedEvent(userID UserID, itemID ItemID, score, previousScore, pointsAwarded, totalPoints int, firstAttempt bool, at time.Time) QuizResultAcceptedEvent {
	return QuizResultAcceptedEvent{
		BaseEvent:     NewBaseEvent(EventQuizResultAccepted, userID.String(), at),
		UserID:        userID.String(),
		ItemID:        itemID.String(),
		Score:         score,
		PreviousScore: previousScore,
		PointsAwarded: pointsAwarded,
		TotalPoints:   totalPoints,
		FirstAttempt:  firstAttempt,
	}
}

// ActivityRecordedEvent is emitted when the daily ledger of a user changes.
type ActivityRecordedEvent struct {
	BaseEvent
	UserID           string `json:"user_id"`
	Date             Date   `json:"date"`
	ArticlesRead     int    `json:"articles_read"`
	QuizzesCompleted int    `json:"quizzes_completed"`
	PointsEarned     int    `json:"points_earned"`
}

// Payload implements Event interface.
func (e ActivityRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":           e.UserID,
		"date":              e.Date.String(),
		"articles_read":     e.ArticlesRead,
		"quizzes_completed": e.QuizzesCompleted,
		"points_earned":     e.PointsEarned,
	}
}

// NewActivityRecordedEvent creates a new ActivityRecordedEvent carrying the
// counters of the record after the change.
func NewActivityRecordedEvent(userID UserID, date Date, articles, quizzes, points int, at time.Time) ActivityRecordedEvent {
	return ActivityRecordedEvent{
		BaseEvent:        NewBaseEvent(EventActivityRecorded, userID.String(), at),
		UserID:           userID.String(),
		Date:             date,
		ArticlesRead:     articles,
		QuizzesCompleted: quizzes,
		PointsEarned:     points,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Streak Events
// ═══════════════════════════════════════════════════════════════════════════

// StreakUpdatedEvent is emitted when the first meaningful activity of a day
// changes a user's streak.
type StreakUpdatedEvent struct {
	BaseEvent
	UserID         string `json:"user_id"`
	Date           Date   `json:"date"`
	PreviousStreak int    `json:"previous_streak"`
	CurrentStreak  int    `json:"current_streak"`
	LongestStreak  int    `json:"longest_streak"`
	Broken         bool   `json:"broken"`
}

// Payload implements Event interface.
func (e StreakUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":         e.UserID,
		"date":            e.Date.String(),
		"previous_streak": e.PreviousStreak,
		"current_streak":  e.CurrentStreak,
		"longest_streak":  e.LongestStreak,
		"broken":          e.Broken,
	}
}

// NewStreakUpdatedEvent creates a new StreakUpdatedEvent.
func NewStreakUpdatedEvent(userID UserID, date Date, previous, current, longest int, broken bool, at time.Time) StreakUpdatedEvent {
	return StreakUpdatedEvent{
		BaseEvent:      NewBaseEvent(EventStreakUpdated, userID.String(), at),
		UserID:         userID.String(),
		Date:           date,
		PreviousStreak: previous,
		CurrentStreak:  current,
		LongestStreak:  longest,
		Broken:         broken,
	}
}

// StreakResetEvent is emitted when a streak is explicitly reset to zero.
type StreakResetEvent struct {
	BaseEvent
	UserID         string `json:"user_id"`
	PreviousStreak int    `json:"previous_streak"`
}

// Payload implements Event interface.
func (e StreakResetEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":         e.UserID,
		"previous_streak": e.PreviousStreak,
	}
}

// NewStreakResetEvent creates a new StreakResetEvent.
func NewStreakResetEvent(userID UserID, previous int, at time.Time) StreakResetEvent {
	return StreakResetEvent{
		BaseEvent:      NewBaseEvent(EventStreakReset, userID.String(), at),
		UserID:         userID.String(),
		PreviousStreak: previous,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Badge Events
// ═══════════════════════════════════════════════════════════════════════════

// BadgeEarnedEvent is emitted once per newly granted badge.
type BadgeEarnedEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	BadgeID   int64  `json:"badge_id"`
	BadgeName string `json:"badge_name"`
	Icon      string `json:"icon"`
}

// Payload implements Event interface.
func (e BadgeEarnedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"badge_id":   e.BadgeID,
		"badge_name": e.BadgeName,
		"icon":       e.Icon,
	}
}

// NewBadgeEarnedEvent creates a new BadgeEarnedEvent.
func NewBadgeEarnedEvent(userID UserID, badgeID BadgeID, name, icon string, at time.Time) BadgeEarnedEvent {
	return BadgeEarnedEvent{
		BaseEvent: NewBaseEvent(EventBadgeEarned, userID.String(), at),
		UserID:    userID.String(),
		BadgeID:   int64(badgeID),
		BadgeName: name,
		Icon:      icon,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(Event) error { return nil }
