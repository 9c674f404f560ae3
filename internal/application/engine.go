// Package application composes the command and query handlers into one
// engine facade. Callers embed the engine in-process; there is no network
// surface in front of it.
package application

import (
	"context"

	"github.com/learnforge/learnforge-hub/internal/application/command"
	"github.com/learnforge/learnforge-hub/internal/application/query"
	"github.com/learnforge/learnforge-hub/internal/domain/analytics"
	"github.com/learnforge/learnforge-hub/internal/domain/assessment"
	"github.com/learnforge/learnforge-hub/internal/domain/certificate"
	"github.com/learnforge/learnforge-hub/internal/domain/evaluation"
	"github.com/learnforge/learnforge-hub/internal/domain/progress"
)

// Handlers carries the wired command and query handlers the engine exposes.
type Handlers struct {
	UpdateProgress       *command.UpdateProgressHandler
	EvaluateAssessment   *command.EvaluateAssessmentHandler
	ReviewSubmission     *command.ReviewSubmissionHandler
	GenerateCertificate  *command.GenerateCertificateHandler
	RevokeCertificate    *command.RevokeCertificateHandler
	RecordEngagement     *command.RecordEngagementHandler
	GetProgress          *query.GetProgressHandler
	CheckEligibility     *query.CheckEligibilityHandler
	BulkCheckEligibility *query.BulkCheckEligibilityHandler
	UserPerformance      *query.UserPerformanceHandler
	Analytics            *query.CachedAnalytics
}

// Engine is the single entry point for every derived-metrics operation.
type Engine struct {
	h Handlers
}

// NewEngine creates the engine facade over the given handlers.
func NewEngine(h Handlers) *Engine {
	return &Engine{h: h}
}

// ─────────────────────────────────────────────────────────────────────────────
// Commands
// ─────────────────────────────────────────────────────────────────────────────

func (e *Engine) UpdateProgress(ctx context.Context, cmd command.UpdateProgressCommand) (*command.UpdateProgressResult, error) {
	return e.h.UpdateProgress.Handle(ctx, cmd)
}

func (e *Engine) EvaluateAssessment(ctx context.Context, cmd command.EvaluateAssessmentCommand) (*command.EvaluateAssessmentResult, error) {
	return e.h.EvaluateAssessment.Handle(ctx, cmd)
}

func (e *Engine) ReviewSubmission(ctx context.Context, cmd command.ReviewSubmissionCommand) (*assessment.Submission, error) {
	return e.h.ReviewSubmission.Handle(ctx, cmd)
}

func (e *Engine) GenerateCertificate(ctx context.Context, cmd command.GenerateCertificateCommand) (*command.GenerateCertificateResult, error) {
	return e.h.GenerateCertificate.Handle(ctx, cmd)
}

func (e *Engine) RevokeCertificate(ctx context.Context, cmd command.RevokeCertificateCommand) (*command.RevokeCertificateResult, error) {
	return e.h.RevokeCertificate.Handle(ctx, cmd)
}

func (e *Engine) RecordEngagement(ctx context.Context, cmd command.RecordEngagementCommand) (*analytics.EngagementEvent, error) {
	return e.h.RecordEngagement.Handle(ctx, cmd)
}

// ─────────────────────────────────────────────────────────────────────────────
// Queries
// ─────────────────────────────────────────────────────────────────────────────

func (e *Engine) GetProgress(ctx context.Context, q query.GetProgressQuery) (*progress.Record, error) {
	return e.h.GetProgress.Handle(ctx, q)
}

func (e *Engine) CheckEligibility(ctx context.Context, q query.CheckEligibilityQuery) (certificate.Eligibility, error) {
	return e.h.CheckEligibility.Handle(ctx, q)
}

func (e *Engine) BulkCheckEligibility(ctx context.Context, q query.BulkCheckEligibilityQuery) (*query.BulkEligibilityResult, error) {
	return e.h.BulkCheckEligibility.Handle(ctx, q)
}

func (e *Engine) EvaluateUserPerformance(ctx context.Context, q query.UserPerformanceQuery) (evaluation.UserPerformanceResult, error) {
	return e.h.UserPerformance.Handle(ctx, q)
}

// ─────────────────────────────────────────────────────────────────────────────
// Optimized (cached) reads
// ─────────────────────────────────────────────────────────────────────────────

func (e *Engine) GetOptimizedUserProgress(ctx context.Context, userID string) (analytics.UserAnalytics, error) {
	return e.h.Analytics.UserProgress(ctx, userID)
}

func (e *Engine) GetOptimizedCourseAnalytics(ctx context.Context, courseID string) (analytics.CourseAnalytics, error) {
	return e.h.Analytics.CourseAnalytics(ctx, courseID)
}

func (e *Engine) GetOptimizedCertificates(ctx context.Context, userID string) ([]*certificate.Certificate, error) {
	return e.h.Analytics.Certificates(ctx, userID)
}

func (e *Engine) GetOptimizedBatchUserData(ctx context.Context, userIDs []string) (map[string]*query.UserBatchData, error) {
	return e.h.Analytics.BatchUserData(ctx, userIDs)
}

func (e *Engine) GetPlatformAnalytics(ctx context.Context, topN int) (analytics.PlatformAnalytics, error) {
	return e.h.Analytics.Platform(ctx, topN)
}

// RebuildCourseAnalyticsCache recomputes one course rollup and rewrites both
// cache layers.
func (e *Engine) RebuildCourseAnalyticsCache(ctx context.Context, courseID string) (analytics.CourseAnalytics, error) {
	return e.h.Analytics.Rebuild(ctx, courseID)
}

// ClearAllCache drops every cached rollup. Persisted snapshots survive.
func (e *Engine) ClearAllCache(ctx context.Context) error {
	return e.h.Analytics.ClearAll(ctx)
}

// Analytics exposes the cached read path for background jobs.
func (e *Engine) Analytics() *query.CachedAnalytics {
	return e.h.Analytics
}
