package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/learnforge/learnforge-hub/internal/domain/assessment"
	"github.com/learnforge/learnforge-hub/internal/domain/certificate"
	"github.com/learnforge/learnforge-hub/internal/domain/progress"
	"github.com/learnforge/learnforge-hub/internal/domain/shared"
	"github.com/learnforge/learnforge-hub/pkg/logger"
	"github.com/learnforge/learnforge-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// GENERATE CERTIFICATE COMMAND
// Runs the eligibility gate, then issues at most one ACTIVE certificate per
// (user, course). The operation is idempotent: an existing active certificate
// is returned as-is. Concurrent duplicate generation is resolved by the
// store's conditional insert; the loser re-reads and returns the winner.
// ══════════════════════════════════════════════════════════════════════════════

// GenerateCertificateCommand contains the data for certificate generation.
type GenerateCertificateCommand struct {
	// UserID identifies the learner.
	UserID string

	// CourseID identifies the completed course.
	CourseID string

	// CourseName is the display name stamped onto the certificate.
	CourseName string

	// UserName is the learner's display name stamped onto the certificate.
	UserName string
}

// Validate validates the command.
func (c GenerateCertificateCommand) Validate() error {
	if !shared.UserID(c.UserID).IsValid() {
		return shared.ErrInvalidUserID
	}
	if !shared.CourseID(c.CourseID).IsValid() {
		return shared.ErrInvalidCourseID
	}
	return nil
}

// GenerateCertificateResult contains the outcome of certificate generation.
// Ineligibility is a normal outcome: Certificate is nil and Eligibility
// carries the reason.
type GenerateCertificateResult struct {
	// Certificate is the active certificate, freshly issued or pre-existing.
	// Nil when the user is not eligible.
	Certificate *certificate.Certificate

	// AlreadyExisted is true when an active certificate predated this call.
	AlreadyExisted bool

	// Eligibility is the gate outcome that drove the decision.
	Eligibility certificate.Eligibility

	// AuditRecorded is false when the best-effort audit log append failed
	// after the certificate itself was stored.
	AuditRecorded bool
}

// GenerateCertificateHandler handles the GenerateCertificateCommand.
type GenerateCertificateHandler struct {
	progressRepo   progress.Repository
	submissionRepo assessment.Repository
	certRepo       certificate.Repository
	logRepo        certificate.LogRepository
	publisher      shared.EventPublisher
	clock          shared.Clock
	log            *logger.Logger
}

// NewGenerateCertificateHandler creates a new GenerateCertificateHandler.
// logRepo may be nil when the audit trail is not wired.
func NewGenerateCertificateHandler(
	progressRepo progress.Repository,
	submissionRepo assessment.Repository,
	certRepo certificate.Repository,
	logRepo certificate.LogRepository,
	publisher shared.EventPublisher,
	clock shared.Clock,
	log *logger.Logger,
) *GenerateCertificateHandler {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &GenerateCertificateHandler{
		progressRepo:   progressRepo,
		submissionRepo: submissionRepo,
		certRepo:       certRepo,
		logRepo:        logRepo,
		publisher:      publisher,
		clock:          clock,
		log:            log,
	}
}

// Handle executes the generate certificate command.
func (h *GenerateCertificateHandler) Handle(ctx context.Context, cmd GenerateCertificateCommand) (*GenerateCertificateResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("generate_certificate: %w", err)
	}

	userID := shared.UserID(cmd.UserID)
	courseID := shared.CourseID(cmd.CourseID)
	now := h.clock.Now()

	eligibility, err := h.checkEligibility(ctx, userID, courseID, now)
	if err != nil {
		return nil, fmt.Errorf("generate_certificate: eligibility check: %w", err)
	}
	if !eligibility.Eligible {
		return &GenerateCertificateResult{Eligibility: eligibility, AuditRecorded: true}, nil
	}

	// Idempotency: an existing active certificate is simply returned.
	existing, err := h.certRepo.GetActiveByUserAndCourse(ctx, userID, courseID)
	if err == nil {
		return &GenerateCertificateResult{
			Certificate:    existing,
			AlreadyExisted: true,
			Eligibility:    eligibility,
			AuditRecorded:  true,
		}, nil
	}
	if !shared.IsNotFound(err) {
		return nil, fmt.Errorf("generate_certificate: lookup existing: %w", err)
	}

	cert := certificate.New(uuid.NewString(), eligibility, cmd.CourseName, cmd.UserName, now)
	if err := h.certRepo.Create(ctx, cert); err != nil {
		if shared.IsAlreadyExists(err) {
			// Lost the race. The conditional insert guarantees exactly one
			// winner; return it.
			winner, readErr := h.certRepo.GetActiveByUserAndCourse(ctx, userID, courseID)
			if readErr != nil {
				return nil, fmt.Errorf("generate_certificate: re-read after conflict: %w", readErr)
			}
			return &GenerateCertificateResult{
				Certificate:    winner,
				AlreadyExisted: true,
				Eligibility:    eligibility,
				AuditRecorded:  true,
			}, nil
		}
		return nil, fmt.Errorf("generate_certificate: store certificate: %w", err)
	}

	result := &GenerateCertificateResult{
		Certificate:   cert,
		Eligibility:   eligibility,
		AuditRecorded: true,
	}
	if !h.appendLog(ctx, cert, certificate.ActionGenerated, "", now) {
		result.AuditRecorded = false
	}

	h.publisher.Publish(certificate.NewGeneratedEvent(cert.ID, userID, courseID, now))

	return result, nil
}

// checkEligibility loads the inputs of the gate and evaluates it.
// A missing progress record is mapped to a nil record, not an error.
func (h *GenerateCertificateHandler) checkEligibility(ctx context.Context, userID shared.UserID, courseID shared.CourseID, now time.Time) (certificate.Eligibility, error) {
	record, err := h.progressRepo.Get(ctx, userID, courseID)
	if err != nil {
		if !shared.IsNotFound(err) {
			return certificate.Eligibility{}, err
		}
		record = nil
	}

	var submissions []*assessment.Submission
	if record != nil && record.CompletedPercentage >= 100 {
		// Submissions only matter once the completion gate passes.
		submissions, err = h.submissionRepo.ListByUserAndCourse(ctx, userID, courseID)
		if err != nil {
			return certificate.Eligibility{}, err
		}
	}

	return certificate.EvaluateEligibility(userID, courseID, record, submissions, now), nil
}

// appendLog writes an audit trail entry with a few retries. Returns false
// when the append ultimately failed; the certificate write stands regardless.
func (h *GenerateCertificateHandler) appendLog(ctx context.Context, cert *certificate.Certificate, action certificate.LogAction, reason string, at time.Time) bool {
	if h.logRepo == nil {
		return true
	}

	entry := &certificate.LogEntry{
		ID:            uuid.NewString(),
		CertificateID: cert.ID,
		UserID:        cert.UserID,
		CourseID:      cert.CourseID,
		Action:        action,
		Timestamp:     at,
		Reason:        reason,
	}

	err := retry.AuditLogRetrier().Do(ctx, func(ctx context.Context) error {
		return h.logRepo.Append(ctx, entry)
	})
	if err != nil {
		if h.log != nil {
			h.log.Warn("certificate audit append failed",
				logger.F("certificate_id", cert.ID),
				logger.F("action", string(action)),
				logger.F("error", err.Error()),
			)
		}
		return false
	}
	return true
}
