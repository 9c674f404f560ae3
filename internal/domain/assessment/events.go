package assessment

import (
	"time"

	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

// SubmissionEvaluatedEvent is published after a submission is graded.
type SubmissionEvaluatedEvent struct {
	shared.BaseEvent
	SubmissionID string          `json:"submission_id"`
	UserID       shared.UserID   `json:"user_id"`
	CourseID     shared.CourseID `json:"course_id"`
	Passed       bool            `json:"passed"`
	Grade        string          `json:"grade"`
}

// NewSubmissionEvaluatedEvent builds a SubmissionEvaluatedEvent.
func NewSubmissionEvaluatedEvent(submissionID string, userID shared.UserID, courseID shared.CourseID, passed bool, grade string, at time.Time) SubmissionEvaluatedEvent {
	return SubmissionEvaluatedEvent{
		BaseEvent:    shared.NewBaseEvent(shared.EventSubmissionEvaluated, submissionID, at),
		SubmissionID: submissionID,
		UserID:       userID,
		CourseID:     courseID,
		Passed:       passed,
		Grade:        grade,
	}
}

// Payload implements shared.Event.
func (e SubmissionEvaluatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"submission_id": e.SubmissionID,
		"user_id":       string(e.UserID),
		"course_id":     string(e.CourseID),
		"passed":        e.Passed,
		"grade":         e.Grade,
	}
}
