package certificate

import (
	"time"

	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

// GeneratedEvent is published once per newly issued certificate. Idempotent
// re-issues of an existing certificate do not publish it again.
type GeneratedEvent struct {
	shared.BaseEvent
	CertificateID string          `json:"certificate_id"`
	UserID        shared.UserID   `json:"user_id"`
	CourseID      shared.CourseID `json:"course_id"`
}

// NewGeneratedEvent builds a GeneratedEvent.
func NewGeneratedEvent(certificateID string, userID shared.UserID, courseID shared.CourseID, at time.Time) GeneratedEvent {
	return GeneratedEvent{
		BaseEvent:     shared.NewBaseEvent(shared.EventCertificateGenerated, certificateID, at),
		CertificateID: certificateID,
		UserID:        userID,
		CourseID:      courseID,
	}
}

// Payload implements shared.Event.
func (e GeneratedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"certificate_id": e.CertificateID,
		"user_id":        string(e.UserID),
		"course_id":      string(e.CourseID),
	}
}

// RevokedEvent is published when an active certificate is revoked.
type RevokedEvent struct {
	shared.BaseEvent
	CertificateID string          `json:"certificate_id"`
	UserID        shared.UserID   `json:"user_id"`
	CourseID      shared.CourseID `json:"course_id"`
	Reason        string          `json:"reason"`
}

// NewRevokedEvent builds a RevokedEvent.
func NewRevokedEvent(certificateID string, userID shared.UserID, courseID shared.CourseID, reason string, at time.Time) RevokedEvent {
	return RevokedEvent{
		BaseEvent:     shared.NewBaseEvent(shared.EventCertificateRevoked, certificateID, at),
		CertificateID: certificateID,
		UserID:        userID,
		CourseID:      courseID,
		Reason:        reason,
	}
}

// Payload implements shared.Event.
func (e RevokedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"certificate_id": e.CertificateID,
		"user_id":        string(e.UserID),
		"course_id":      string(e.CourseID),
		"reason":         e.Reason,
	}
}
