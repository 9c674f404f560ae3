package certificate

import (
	"context"

	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

// Repository defines persistence operations for the `certificates` record set.
// Implementations live in infrastructure/persistence.
type Repository interface {
	// Create inserts a certificate. The store enforces at most one ACTIVE
	// certificate per (user, course); a concurrent duplicate insert returns
	// shared.ErrCertificateExists so the caller can re-read the winner.
	Create(ctx context.Context, cert *Certificate) error

	// GetByID returns a certificate by id.
	// Returns shared.ErrCertificateNotFound when no certificate exists.
	GetByID(ctx context.Context, id string) (*Certificate, error)

	// GetActiveByUserAndCourse returns the ACTIVE certificate for the pair.
	// Returns shared.ErrCertificateNotFound when none exists.
	GetActiveByUserAndCourse(ctx context.Context, userID shared.UserID, courseID shared.CourseID) (*Certificate, error)

	// Update persists status changes (revocation).
	Update(ctx context.Context, cert *Certificate) error

	// ListByUser returns all certificates for a user, newest first.
	ListByUser(ctx context.Context, userID shared.UserID) ([]*Certificate, error)

	// ListByUsers returns certificates for up to the store's
	// multi-value-filter limit of user ids. Callers chunk larger inputs.
	ListByUsers(ctx context.Context, userIDs []shared.UserID) ([]*Certificate, error)

	// Count returns the total number of certificates.
	Count(ctx context.Context) (int, error)
}

// LogRepository defines persistence for the append-only `certificate_logs`
// record set. Appends are best-effort secondary writes: failure is reported
// to the caller as a partial failure and never unwinds the certificate write.
type LogRepository interface {
	// Append adds an audit trail entry.
	Append(ctx context.Context, entry *LogEntry) error

	// ListByCertificate returns the audit trail for one certificate,
	// oldest first.
	ListByCertificate(ctx context.Context, certificateID string) ([]*LogEntry, error)
}
