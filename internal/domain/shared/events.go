// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened in the derived-metrics engine and may trigger best-effort side
// effects (engagement recording, audit trail writes).
const (
	// Progress events
	EventProgressUpdated   EventType = "progress.updated"
	EventMilestoneReached  EventType = "progress.milestone_reached"
	EventCourseCompleted   EventType = "progress.course_completed"
	EventProgressRegressed EventType = "progress.regressed"

	// Assessment events
	EventSubmissionEvaluated EventType = "assessment.submission_evaluated"
	EventSubmissionReviewed  EventType = "assessment.submission_reviewed"

	// Certificate events
	EventCertificateGenerated EventType = "certificate.generated"
	EventCertificateRevoked   EventType = "certificate.revoked"

	// Analytics events
	EventSnapshotRebuilt EventType = "analytics.snapshot_rebuilt"
	EventCacheCleared    EventType = "analytics.cache_cleared"
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
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
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

// Payload implements Event interface with an empty payload.
// Concrete events override this with their data.
func (e BaseEvent) Payload() map[string]interface{} {
	return map[string]interface{}{}
}

// NewBaseEvent creates a new base event stamped with the given time.
func NewBaseEvent(eventType EventType, aggregateID string, at time.Time) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   at,
		AggregateId: aggregateID,
	}
}

// EventHandler processes a single domain event.
type EventHandler interface {
	// Handle processes the event. Errors are logged by the bus, not retried.
	Handle(event Event) error

	// Name returns a handler name for logging.
	Name() string
}

// EventPublisher publishes domain events to interested handlers.
type EventPublisher interface {
	// Publish delivers the event to all subscribed handlers.
	// Publishing is best-effort: handler failures never propagate to the caller.
	Publish(event Event)
}

// NopPublisher discards all events. Useful for tests and for callers that
// do not wire an event bus.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(Event) {}
