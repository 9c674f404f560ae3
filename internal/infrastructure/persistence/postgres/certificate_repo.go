package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/learnforge/learnforge-hub/internal/domain/certificate"
	"github.com/learnforge/learnforge-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// CERTIFICATE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CertificateRepository implements certificate.Repository for PostgreSQL.
// The idx_certificates_active_pair partial unique index backs the
// one-ACTIVE-per-pair invariant.
type CertificateRepository struct {
	conn *Connection
}

// NewCertificateRepository creates a new CertificateRepository.
func NewCertificateRepository(conn *Connection) *CertificateRepository {
	return &CertificateRepository{conn: conn}
}

const certificateColumns = `
	id, user_id, course_id, course_name, user_name, completion_date,
	issued_date, status, course_completion, final_score, assessments_passed,
	valid_until, revoked_at, revocation_reason, metadata
`

// Create inserts a certificate. A concurrent duplicate for the same
// (user, course) pair surfaces as shared.ErrCertificateExists.
func (r *CertificateRepository) Create(ctx context.Context, cert *certificate.Certificate) error {
	query := `
		INSERT INTO certificates (
			id, user_id, course_id, course_name, user_name, completion_date,
			issued_date, status, course_completion, final_score,
			assessments_passed, valid_until, revoked_at, revocation_reason,
			metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	metadataJSON, err := json.Marshal(cert.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal certificate metadata: %w", err)
	}

	_, err = r.conn.Exec(ctx, query,
		cert.ID,
		string(cert.UserID),
		string(cert.CourseID),
		cert.CourseName,
		cert.UserName,
		cert.CompletionDate,
		cert.IssuedDate,
		string(cert.Status),
		cert.CourseCompletion,
		cert.FinalScore,
		cert.AssessmentsPassed,
		cert.ValidUntil,
		cert.RevokedAt,
		cert.RevocationReason,
		metadataJSON,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrCertificateExists
		}
		return fmt.Errorf("failed to create certificate: %w", err)
	}

	return nil
}

// GetByID returns a certificate by id.
func (r *CertificateRepository) GetByID(ctx context.Context, id string) (*certificate.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE id = $1`

	row := r.conn.QueryRow(ctx, query, id)
	return scanCertificate(row)
}

// GetActiveByUserAndCourse returns the ACTIVE certificate for the pair.
func (r *CertificateRepository) GetActiveByUserAndCourse(ctx context.Context, userID shared.UserID, courseID shared.CourseID) (*certificate.Certificate, error) {
	query := `
		SELECT ` + certificateColumns + `
		FROM certificates
		WHERE user_id = $1 AND course_id = $2 AND status = $3
	`

	row := r.conn.QueryRow(ctx, query, string(userID), string(courseID), string(certificate.StatusActive))
	return scanCertificate(row)
}

// Update persists status changes (revocation).
func (r *CertificateRepository) Update(ctx context.Context, cert *certificate.Certificate) error {
	query := `
		UPDATE certificates SET
			status = $1,
			revoked_at = $2,
			revocation_reason = $3
		WHERE id = $4
	`

	result, err := r.conn.Exec(ctx, query,
		string(cert.Status),
		cert.RevokedAt,
		cert.RevocationReason,
		cert.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update certificate: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrCertificateNotFound
	}

	return nil
}

// ListByUser returns all certificates for a user, newest first.
func (r *CertificateRepository) ListByUser(ctx context.Context, userID shared.UserID) ([]*certificate.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE user_id = $1 ORDER BY issued_date DESC`
	return r.queryCertificates(ctx, query, string(userID))
}

// ListByUsers returns certificates for the given user ids.
func (r *CertificateRepository) ListByUsers(ctx context.Context, userIDs []shared.UserID) ([]*certificate.Certificate, error) {
	if len(userIDs) == 0 {
		return []*certificate.Certificate{}, nil
	}

	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE user_id = ANY($1) ORDER BY user_id, issued_date DESC`
	return r.queryCertificates(ctx, query, userIDStrings(userIDs))
}

// Count returns the total number of certificates.
func (r *CertificateRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM certificates`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count certificates: %w", err)
	}
	return count, nil
}

func (r *CertificateRepository) queryCertificates(ctx context.Context, query string, args ...interface{}) ([]*certificate.Certificate, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query certificates: %w", err)
	}
	defer rows.Close()

	certs := make([]*certificate.Certificate, 0)
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}

	return certs, rows.Err()
}

func scanCertificate(row pgx.Row) (*certificate.Certificate, error) {
	var (
		cert                     certificate.Certificate
		userID, courseID, status string
		metadataJSON             []byte
	)

	err := row.Scan(
		&cert.ID,
		&userID,
		&courseID,
		&cert.CourseName,
		&cert.UserName,
		&cert.CompletionDate,
		&cert.IssuedDate,
		&status,
		&cert.CourseCompletion,
		&cert.FinalScore,
		&cert.AssessmentsPassed,
		&cert.ValidUntil,
		&cert.RevokedAt,
		&cert.RevocationReason,
		&metadataJSON,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrCertificateNotFound
		}
		return nil, fmt.Errorf("failed to scan certificate: %w", err)
	}

	cert.UserID = shared.UserID(userID)
	cert.CourseID = shared.CourseID(courseID)
	cert.Status = certificate.Status(status)

	if err := json.Unmarshal(metadataJSON, &cert.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal certificate metadata: %w", err)
	}

	return &cert, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CERTIFICATE LOG REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CertificateLogRepository implements certificate.LogRepository for
// PostgreSQL. The certificate_logs table is append-only.
type CertificateLogRepository struct {
	conn *Connection
}

// NewCertificateLogRepository creates a new CertificateLogRepository.
func NewCertificateLogRepository(conn *Connection) *CertificateLogRepository {
	return &CertificateLogRepository{conn: conn}
}

// Append adds an audit trail entry.
func (r *CertificateLogRepository) Append(ctx context.Context, entry *certificate.LogEntry) error {
	query := `
		INSERT INTO certificate_logs (
			id, certificate_id, user_id, course_id, action, occurred_at, reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.Exec(ctx, query,
		entry.ID,
		entry.CertificateID,
		string(entry.UserID),
		string(entry.CourseID),
		string(entry.Action),
		entry.Timestamp,
		entry.Reason,
	)
	if err != nil {
		return fmt.Errorf("failed to append certificate log entry: %w", err)
	}

	return nil
}

// ListByCertificate returns the audit trail for one certificate, oldest first.
func (r *CertificateLogRepository) ListByCertificate(ctx context.Context, certificateID string) ([]*certificate.LogEntry, error) {
	query := `
		SELECT id, certificate_id, user_id, course_id, action, occurred_at, reason
		FROM certificate_logs
		WHERE certificate_id = $1
		ORDER BY occurred_at
	`

	rows, err := r.conn.Query(ctx, query, certificateID)
	if err != nil {
		return nil, fmt.Errorf("failed to query certificate logs: %w", err)
	}
	defer rows.Close()

	entries := make([]*certificate.LogEntry, 0)
	for rows.Next() {
		var (
			entry                    certificate.LogEntry
			userID, courseID, action string
		)
		err := rows.Scan(
			&entry.ID,
			&entry.CertificateID,
			&userID,
			&courseID,
			&action,
			&entry.Timestamp,
			&entry.Reason,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan certificate log entry: %w", err)
		}
		entry.UserID = shared.UserID(userID)
		entry.CourseID = shared.CourseID(courseID)
		entry.Action = certificate.LogAction(action)
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
