// Package certificate contains the certificate domain model, its append-only
// audit log, and the repository contracts.
package certificate

import (
	"time"

	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CERTIFICATE
// ══════════════════════════════════════════════════════════════════════════════

// Status of a certificate.
type Status string

const (
	// StatusActive is a valid, issued certificate.
	StatusActive Status = "ACTIVE"

	// StatusRevoked is a certificate withdrawn after issuance.
	StatusRevoked Status = "REVOKED"
)

// ValidityPeriod is how long a certificate stays valid after issuance.
const ValidityPeriod = 365 * 24 * time.Hour

// DefaultRevocationReason is used when a revocation carries no reason.
const DefaultRevocationReason = "Revoked by administrator"

// Metadata carries issuance provenance on a certificate.
type Metadata struct {
	GeneratedBy          string    `json:"generated_by"`
	Version              string    `json:"version"`
	CourseCompletionDate time.Time `json:"course_completion_date"`
}

// Certificate records a course-completion credential for one (user, course)
// pair. At most one ACTIVE certificate may exist per pair; the store enforces
// this with a conditional insert.
type Certificate struct {
	ID                string          `json:"certificate_id"`
	UserID            shared.UserID   `json:"user_id"`
	CourseID          shared.CourseID `json:"course_id"`
	CourseName        string          `json:"course_name"`
	UserName          string          `json:"user_name"`
	CompletionDate    time.Time       `json:"completion_date"`
	IssuedDate        time.Time       `json:"issued_date"`
	Status            Status          `json:"status"`
	CourseCompletion  float64         `json:"course_completion"`
	FinalScore        int             `json:"final_score"`
	AssessmentsPassed int             `json:"assessments_passed"`
	ValidUntil        time.Time       `json:"valid_until"`
	RevokedAt         *time.Time      `json:"revoked_at,omitempty"`
	RevocationReason  string          `json:"revocation_reason,omitempty"`
	Metadata          Metadata        `json:"metadata"`
}

// IsActive reports whether the certificate is currently ACTIVE.
func (c *Certificate) IsActive() bool {
	return c.Status == StatusActive
}

// IsExpired reports whether the certificate's validity window has passed.
func (c *Certificate) IsExpired(now time.Time) bool {
	return now.After(c.ValidUntil)
}

// Revoke marks the certificate REVOKED. Revoking an already revoked
// certificate is a no-op so the operation stays idempotent.
func (c *Certificate) Revoke(reason string, at time.Time) bool {
	if c.Status == StatusRevoked {
		return false
	}
	if reason == "" {
		reason = DefaultRevocationReason
	}
	c.Status = StatusRevoked
	c.RevokedAt = &at
	c.RevocationReason = reason
	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// AUDIT LOG
// ══════════════════════════════════════════════════════════════════════════════

// LogAction is the kind of audit trail entry.
type LogAction string

const (
	// ActionGenerated records certificate issuance.
	ActionGenerated LogAction = "GENERATED"

	// ActionRevoked records certificate revocation.
	ActionRevoked LogAction = "REVOKED"
)

// LogEntry is one append-only audit trail record for a certificate.
type LogEntry struct {
	ID            string          `json:"id"`
	CertificateID string          `json:"certificate_id"`
	UserID        shared.UserID   `json:"user_id"`
	CourseID      shared.CourseID `json:"course_id"`
	Action        LogAction       `json:"action"`
	Timestamp     time.Time       `json:"timestamp"`
	Reason        string          `json:"reason,omitempty"`
}
