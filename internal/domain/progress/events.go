package progress

import (
	"time"

	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

// UpdatedEvent is published after every successful progress write.
type UpdatedEvent struct {
	shared.BaseEvent
	UserID             shared.UserID   `json:"user_id"`
	CourseID           shared.CourseID `json:"course_id"`
	PreviousPercentage float64         `json:"previous_percentage"`
	CurrentPercentage  float64         `json:"current_percentage"`
}

// NewUpdatedEvent builds an UpdatedEvent for the given record transition.
func NewUpdatedEvent(userID shared.UserID, courseID shared.CourseID, previous, current float64, at time.Time) UpdatedEvent {
	return UpdatedEvent{
		BaseEvent:          shared.NewBaseEvent(shared.EventProgressUpdated, Key(userID, courseID), at),
		UserID:             userID,
		CourseID:           courseID,
		PreviousPercentage: previous,
		CurrentPercentage:  current,
	}
}

// Payload implements shared.Event.
func (e UpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":             string(e.UserID),
		"course_id":           string(e.CourseID),
		"previous_percentage": e.PreviousPercentage,
		"current_percentage":  e.CurrentPercentage,
	}
}

// MilestoneReachedEvent is published once per newly crossed milestone.
type MilestoneReachedEvent struct {
	shared.BaseEvent
	UserID    shared.UserID   `json:"user_id"`
	CourseID  shared.CourseID `json:"course_id"`
	Threshold int             `json:"threshold"`
}

// NewMilestoneReachedEvent builds a MilestoneReachedEvent for one threshold.
func NewMilestoneReachedEvent(userID shared.UserID, courseID shared.CourseID, threshold int, at time.Time) MilestoneReachedEvent {
	return MilestoneReachedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventMilestoneReached, Key(userID, courseID), at),
		UserID:    userID,
		CourseID:  courseID,
		Threshold: threshold,
	}
}

// Payload implements shared.Event.
func (e MilestoneReachedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   string(e.UserID),
		"course_id": string(e.CourseID),
		"threshold": e.Threshold,
	}
}

// CourseCompletedEvent is published when a record first reaches completion.
type CourseCompletedEvent struct {
	shared.BaseEvent
	UserID   shared.UserID   `json:"user_id"`
	CourseID shared.CourseID `json:"course_id"`
}

// NewCourseCompletedEvent builds a CourseCompletedEvent.
func NewCourseCompletedEvent(userID shared.UserID, courseID shared.CourseID, at time.Time) CourseCompletedEvent {
	return CourseCompletedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventCourseCompleted, Key(userID, courseID), at),
		UserID:    userID,
		CourseID:  courseID,
	}
}

// Payload implements shared.Event.
func (e CourseCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   string(e.UserID),
		"course_id": string(e.CourseID),
	}
}
