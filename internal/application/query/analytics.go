package query

import (
	"context"
	"fmt"

	"github.com/learnforge/learnforge-hub/internal/domain/analytics"
	"github.com/learnforge/learnforge-hub/internal/domain/assessment"
	"github.com/learnforge/learnforge-hub/internal/domain/certificate"
	"github.com/learnforge/learnforge-hub/internal/domain/progress"
	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AGGREGATOR
// Uncached rollup computation straight from the record sets. The cached read
// paths sit on top of this handler; the scheduled refresh job calls it too.
// ══════════════════════════════════════════════════════════════════════════════

// Aggregator computes rollups from raw records.
type Aggregator struct {
	progressRepo   progress.Repository
	submissionRepo assessment.Repository
	certRepo       certificate.Repository
	engagementRepo analytics.EngagementRepository
	clock          shared.Clock
}

// NewAggregator creates a new Aggregator.
func NewAggregator(
	progressRepo progress.Repository,
	submissionRepo assessment.Repository,
	certRepo certificate.Repository,
	engagementRepo analytics.EngagementRepository,
	clock shared.Clock,
) *Aggregator {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Aggregator{
		progressRepo:   progressRepo,
		submissionRepo: submissionRepo,
		certRepo:       certRepo,
		engagementRepo: engagementRepo,
		clock:          clock,
	}
}

// CourseAnalytics computes the per-course rollup from raw records.
func (a *Aggregator) CourseAnalytics(ctx context.Context, courseID string) (analytics.CourseAnalytics, error) {
	if !shared.CourseID(courseID).IsValid() {
		return analytics.CourseAnalytics{}, fmt.Errorf("course_analytics: %w", shared.ErrInvalidCourseID)
	}

	records, err := a.progressRepo.ListByCourse(ctx, shared.CourseID(courseID))
	if err != nil {
		return analytics.CourseAnalytics{}, fmt.Errorf("course_analytics: load records: %w", err)
	}
	submissions, err := a.submissionRepo.ListByCourse(ctx, shared.CourseID(courseID))
	if err != nil {
		return analytics.CourseAnalytics{}, fmt.Errorf("course_analytics: load submissions: %w", err)
	}

	return analytics.AggregateCourse(courseID, records, submissions, a.clock.Now()), nil
}

// UserAnalytics computes the per-user rollup from raw records.
func (a *Aggregator) UserAnalytics(ctx context.Context, userID string) (analytics.UserAnalytics, error) {
	if !shared.UserID(userID).IsValid() {
		return analytics.UserAnalytics{}, fmt.Errorf("user_analytics: %w", shared.ErrInvalidUserID)
	}

	uid := shared.UserID(userID)
	records, err := a.progressRepo.ListByUser(ctx, uid)
	if err != nil {
		return analytics.UserAnalytics{}, fmt.Errorf("user_analytics: load records: %w", err)
	}
	submissions, err := a.submissionRepo.ListByUser(ctx, uid)
	if err != nil {
		return analytics.UserAnalytics{}, fmt.Errorf("user_analytics: load submissions: %w", err)
	}
	events, err := a.engagementRepo.ListByUser(ctx, uid)
	if err != nil {
		return analytics.UserAnalytics{}, fmt.Errorf("user_analytics: load engagement: %w", err)
	}

	return analytics.AggregateUser(userID, records, submissions, events, a.clock.Now()), nil
}

// PlatformAnalytics computes the platform-wide rollup.
func (a *Aggregator) PlatformAnalytics(ctx context.Context, topN int) (analytics.PlatformAnalytics, error) {
	totalLearners, err := a.progressRepo.CountUsers(ctx)
	if err != nil {
		return analytics.PlatformAnalytics{}, fmt.Errorf("platform_analytics: count users: %w", err)
	}
	totalSubmissions, err := a.submissionRepo.Count(ctx)
	if err != nil {
		return analytics.PlatformAnalytics{}, fmt.Errorf("platform_analytics: count submissions: %w", err)
	}
	totalCertificates, err := a.certRepo.Count(ctx)
	if err != nil {
		return analytics.PlatformAnalytics{}, fmt.Errorf("platform_analytics: count certificates: %w", err)
	}
	completedByCourse, err := a.progressRepo.CountCompletedByCourse(ctx)
	if err != nil {
		return analytics.PlatformAnalytics{}, fmt.Errorf("platform_analytics: count completed: %w", err)
	}
	enrollmentsByCourse, err := a.progressRepo.CountByCourse(ctx)
	if err != nil {
		return analytics.PlatformAnalytics{}, fmt.Errorf("platform_analytics: count enrollments: %w", err)
	}

	return analytics.AggregatePlatform(
		totalLearners, totalSubmissions, totalCertificates,
		completedByCourse, enrollmentsByCourse,
		topN, a.clock.Now(),
	), nil
}
