package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/learnforge/learnforge-hub/internal/domain/certificate"
	"github.com/learnforge/learnforge-hub/internal/domain/shared"
	"github.com/learnforge/learnforge-hub/pkg/logger"
	"github.com/learnforge/learnforge-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// REVOKE CERTIFICATE COMMAND
// Marks a certificate REVOKED and appends an audit trail entry. Revoking an
// already revoked certificate is a no-op, reported on the result.
// ══════════════════════════════════════════════════════════════════════════════

// RevokeCertificateCommand contains the data for certificate revocation.
type RevokeCertificateCommand struct {
	// CertificateID is the certificate to revoke.
	CertificateID string

	// Reason is the free-form revocation reason; a default is applied when
	// empty.
	Reason string
}

// Validate validates the command.
func (c RevokeCertificateCommand) Validate() error {
	if c.CertificateID == "" {
		return shared.ErrInvalidID
	}
	return nil
}

// RevokeCertificateResult contains the outcome of a revocation.
type RevokeCertificateResult struct {
	// Certificate is the certificate after the operation.
	Certificate *certificate.Certificate

	// WasRevoked is false when the certificate was already revoked.
	WasRevoked bool

	// AuditRecorded is false when the best-effort audit append failed.
	AuditRecorded bool
}

// RevokeCertificateHandler handles the RevokeCertificateCommand.
type RevokeCertificateHandler struct {
	certRepo  certificate.Repository
	logRepo   certificate.LogRepository
	publisher shared.EventPublisher
	clock     shared.Clock
	log       *logger.Logger
}

// NewRevokeCertificateHandler creates a new RevokeCertificateHandler.
func NewRevokeCertificateHandler(
	certRepo certificate.Repository,
	logRepo certificate.LogRepository,
	publisher shared.EventPublisher,
	clock shared.Clock,
	log *logger.Logger,
) *RevokeCertificateHandler {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &RevokeCertificateHandler{
		certRepo:  certRepo,
		logRepo:   logRepo,
		publisher: publisher,
		clock:     clock,
		log:       log,
	}
}

// Handle executes the revoke certificate command.
func (h *RevokeCertificateHandler) Handle(ctx context.Context, cmd RevokeCertificateCommand) (*RevokeCertificateResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("revoke_certificate: %w", err)
	}

	cert, err := h.certRepo.GetByID(ctx, cmd.CertificateID)
	if err != nil {
		return nil, fmt.Errorf("revoke_certificate: load certificate: %w", err)
	}

	now := h.clock.Now()
	if !cert.Revoke(cmd.Reason, now) {
		return &RevokeCertificateResult{Certificate: cert, AuditRecorded: true}, nil
	}

	if err := h.certRepo.Update(ctx, cert); err != nil {
		return nil, fmt.Errorf("revoke_certificate: save revocation: %w", err)
	}

	result := &RevokeCertificateResult{
		Certificate:   cert,
		WasRevoked:    true,
		AuditRecorded: true,
	}

	if h.logRepo != nil {
		entry := &certificate.LogEntry{
			ID:            uuid.NewString(),
			CertificateID: cert.ID,
			UserID:        cert.UserID,
			CourseID:      cert.CourseID,
			Action:        certificate.ActionRevoked,
			Timestamp:     now,
			Reason:        cert.RevocationReason,
		}
		err := retry.AuditLogRetrier().Do(ctx, func(ctx context.Context) error {
			return h.logRepo.Append(ctx, entry)
		})
		if err != nil {
			result.AuditRecorded = false
			if h.log != nil {
				h.log.Warn("certificate audit append failed",
					logger.F("certificate_id", cert.ID),
					logger.F("action", string(certificate.ActionRevoked)),
					logger.F("error", err.Error()),
				)
			}
		}
	}

	h.publisher.Publish(certificate.NewRevokedEvent(cert.ID, cert.UserID, cert.CourseID, cert.RevocationReason, now))

	return result, nil
}
