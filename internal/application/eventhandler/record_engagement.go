// Package eventhandler contains domain event handlers. Handlers are the
// reactive part of the system: they run best-effort side effects off the
// event bus and never feed errors back into the command that published.
package eventhandler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/learnforge/learnforge-hub/internal/domain/analytics"
	"github.com/learnforge/learnforge-hub/internal/domain/assessment"
	"github.com/learnforge/learnforge-hub/internal/domain/certificate"
	"github.com/learnforge/learnforge-hub/internal/domain/progress"
	"github.com/learnforge/learnforge-hub/internal/domain/shared"
	"github.com/learnforge/learnforge-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENGAGEMENT RECORDER
// Turns domain events into entries of the append-only engagement log. The
// log is the durable activity history: the milestone list on a progress
// record loses entries on regression, the engagement log never does.
// ══════════════════════════════════════════════════════════════════════════════

// engagementAppendTimeout bounds one log append so a slow store cannot
// stall event delivery.
const engagementAppendTimeout = 5 * time.Second

// EngagementRecorder translates domain events into engagement log entries.
type EngagementRecorder struct {
	engagementRepo analytics.EngagementRepository
	log            *logger.Logger
}

// NewEngagementRecorder creates a new EngagementRecorder.
func NewEngagementRecorder(engagementRepo analytics.EngagementRepository, log *logger.Logger) *EngagementRecorder {
	return &EngagementRecorder{engagementRepo: engagementRepo, log: log}
}

// Name implements shared.EventHandler.
func (r *EngagementRecorder) Name() string {
	return "engagement_recorder"
}

// EventTypes lists the event types this handler subscribes to.
func (r *EngagementRecorder) EventTypes() []shared.EventType {
	return []shared.EventType{
		shared.EventProgressUpdated,
		shared.EventMilestoneReached,
		shared.EventSubmissionEvaluated,
		shared.EventCertificateGenerated,
	}
}

// Handle implements shared.EventHandler.
func (r *EngagementRecorder) Handle(event shared.Event) error {
	entry, ok := r.translate(event)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), engagementAppendTimeout)
	defer cancel()

	if err := r.engagementRepo.Append(ctx, entry); err != nil {
		if r.log != nil {
			r.log.Warn("engagement append failed",
				logger.F("event_type", string(event.EventType())),
				logger.F("user_id", string(entry.UserID)),
				logger.F("error", err.Error()),
			)
		}
		return fmt.Errorf("engagement_recorder: %w", err)
	}
	return nil
}

// translate maps one domain event onto an engagement log entry. Events this
// recorder does not understand are skipped silently.
func (r *EngagementRecorder) translate(event shared.Event) (*analytics.EngagementEvent, bool) {
	entry := &analytics.EngagementEvent{
		ID:         uuid.NewString(),
		OccurredAt: event.OccurredAt(),
	}

	switch e := event.(type) {
	case progress.UpdatedEvent:
		entry.UserID = e.UserID
		entry.CourseID = e.CourseID
		entry.Type = analytics.EngagementProgressUpdate
		entry.Metadata = map[string]string{
			"previous_percentage": fmt.Sprintf("%.0f", e.PreviousPercentage),
			"current_percentage":  fmt.Sprintf("%.0f", e.CurrentPercentage),
		}
	case progress.MilestoneReachedEvent:
		entry.UserID = e.UserID
		entry.CourseID = e.CourseID
		entry.Type = analytics.EngagementMilestoneReached
		entry.Metadata = map[string]string{
			"threshold": fmt.Sprintf("%d", e.Threshold),
		}
	case assessment.SubmissionEvaluatedEvent:
		entry.UserID = e.UserID
		entry.CourseID = e.CourseID
		entry.Type = analytics.EngagementSubmission
		entry.Metadata = map[string]string{
			"submission_id": e.SubmissionID,
			"grade":         e.Grade,
			"passed":        fmt.Sprintf("%t", e.Passed),
		}
	case certificate.GeneratedEvent:
		entry.UserID = e.UserID
		entry.CourseID = e.CourseID
		entry.Type = analytics.EngagementCertificate
		entry.Metadata = map[string]string{
			"certificate_id": e.CertificateID,
		}
	default:
		return nil, false
	}

	return entry, true
}
