package query

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnforge/learnforge-hub/internal/domain/analytics"
	"github.com/learnforge/learnforge-hub/internal/domain/assessment"
	"github.com/learnforge/learnforge-hub/internal/domain/certificate"
	"github.com/learnforge/learnforge-hub/internal/domain/progress"
	"github.com/learnforge/learnforge-hub/internal/domain/shared"
	"github.com/learnforge/learnforge-hub/internal/infrastructure/cache"
)

type analyticsFixture struct {
	progressRepo   *fakeProgressRepo
	submissionRepo *fakeSubmissionRepo
	certRepo       *fakeCertRepo
	engagementRepo *fakeEngagementRepo
	snapshots      *fakeSnapshotRepo
	clock          *shared.FixedClock
	cached         *CachedAnalytics
}

func newAnalyticsFixture() *analyticsFixture {
	f := &analyticsFixture{
		progressRepo:   newFakeProgressRepo(),
		submissionRepo: newFakeSubmissionRepo(),
		certRepo:       newFakeCertRepo(),
		engagementRepo: &fakeEngagementRepo{},
		snapshots:      newFakeSnapshotRepo(),
		clock:          shared.NewFixedClock(testNow),
	}
	aggregator := NewAggregator(f.progressRepo, f.submissionRepo, f.certRepo, f.engagementRepo, f.clock)
	f.cached = NewCachedAnalytics(
		cache.NewMemory(f.clock),
		f.snapshots,
		aggregator,
		f.progressRepo,
		f.submissionRepo,
		f.certRepo,
		f.clock,
		nil,
		CachedAnalyticsConfig{},
	)
	return f
}

func (f *analyticsFixture) seedCourse(t *testing.T) {
	t.Helper()
	f.progressRepo.put(&progress.Record{UserID: "user-1", CourseID: "course-1", CompletedPercentage: 100, Completed: true})
	f.progressRepo.put(&progress.Record{UserID: "user-2", CourseID: "course-1", CompletedPercentage: 40})
	f.submissionRepo.put(&assessment.Submission{ID: "s1", UserID: "user-1", CourseID: "course-1", Percentage: 90, Passed: true})
	f.submissionRepo.put(&assessment.Submission{ID: "s2", UserID: "user-2", CourseID: "course-1", Percentage: 40, Passed: false})
}

// Within the TTL, repeated reads must not recompute from the stores.
func TestCourseAnalytics_CacheHitSkipsRecompute(t *testing.T) {
	f := newAnalyticsFixture()
	f.seedCourse(t)
	ctx := context.Background()

	first, err := f.cached.CourseAnalytics(ctx, "course-1")
	require.NoError(t, err)
	assert.Equal(t, 2, first.EnrollmentCount)
	assert.Equal(t, int64(1), f.progressRepo.listByCourseCalls.Load())

	second, err := f.cached.CourseAnalytics(ctx, "course-1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), f.progressRepo.listByCourseCalls.Load())
}

// A stale cache entry falls through and recomputes.
func TestCourseAnalytics_ExpiredEntryRecomputes(t *testing.T) {
	f := newAnalyticsFixture()
	f.seedCourse(t)
	ctx := context.Background()

	_, err := f.cached.CourseAnalytics(ctx, "course-1")
	require.NoError(t, err)

	f.clock.Advance(analytics.TTLCourseAnalytics + time.Second)
	_, err = f.cached.CourseAnalytics(ctx, "course-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.progressRepo.listByCourseCalls.Load())
}

// A fresh snapshot serves a memory miss without touching the raw stores.
func TestCourseAnalytics_FreshSnapshotServesMiss(t *testing.T) {
	f := newAnalyticsFixture()
	f.seedCourse(t)
	ctx := context.Background()

	fromSnapshot := analytics.CourseAnalytics{CourseID: "course-1", EnrollmentCount: 99}
	require.NoError(t, f.snapshots.Upsert(ctx, &analytics.Snapshot{
		CourseID:    "course-1",
		Metrics:     fromSnapshot,
		LastUpdated: testNow.Add(-30 * time.Minute),
	}))

	got, err := f.cached.CourseAnalytics(ctx, "course-1")
	require.NoError(t, err)
	assert.Equal(t, 99, got.EnrollmentCount)
	assert.Equal(t, int64(0), f.progressRepo.listByCourseCalls.Load())

	// The snapshot read also repopulated the memory layer.
	f.snapshots.snapshots = map[shared.CourseID]*analytics.Snapshot{}
	again, err := f.cached.CourseAnalytics(ctx, "course-1")
	require.NoError(t, err)
	assert.Equal(t, 99, again.EnrollmentCount)
}

// A stale snapshot is skipped; recomputation must not write it back.
func TestCourseAnalytics_StaleSnapshotRecomputesWithoutWriteBack(t *testing.T) {
	f := newAnalyticsFixture()
	f.seedCourse(t)
	ctx := context.Background()

	stale := &analytics.Snapshot{
		CourseID:    "course-1",
		Metrics:     analytics.CourseAnalytics{CourseID: "course-1", EnrollmentCount: 99},
		LastUpdated: testNow.Add(-2 * time.Hour),
	}
	require.NoError(t, f.snapshots.Upsert(ctx, stale))

	got, err := f.cached.CourseAnalytics(ctx, "course-1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.EnrollmentCount)

	// Snapshot layer untouched by the read path.
	stored, err := f.snapshots.Get(ctx, "course-1")
	require.NoError(t, err)
	assert.Equal(t, 99, stored.Metrics.EnrollmentCount)
	assert.Equal(t, stale.LastUpdated, stored.LastUpdated)
}

func TestRebuild_RefreshesBothLayers(t *testing.T) {
	f := newAnalyticsFixture()
	f.seedCourse(t)
	ctx := context.Background()

	rollup, err := f.cached.Rebuild(ctx, "course-1")
	require.NoError(t, err)
	assert.Equal(t, 2, rollup.EnrollmentCount)

	stored, err := f.snapshots.Get(ctx, "course-1")
	require.NoError(t, err)
	assert.Equal(t, rollup, stored.Metrics)
	assert.Equal(t, testNow, stored.LastUpdated)

	// Subsequent read is a memory hit.
	_, err = f.cached.CourseAnalytics(ctx, "course-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.progressRepo.listByCourseCalls.Load())
}

func TestClearAll_DropsMemoryKeepsSnapshots(t *testing.T) {
	f := newAnalyticsFixture()
	f.seedCourse(t)
	ctx := context.Background()

	_, err := f.cached.Rebuild(ctx, "course-1")
	require.NoError(t, err)
	require.NoError(t, f.cached.ClearAll(ctx))

	// Memory gone: the next read is served by the (still fresh) snapshot.
	_, err = f.cached.CourseAnalytics(ctx, "course-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.progressRepo.listByCourseCalls.Load())

	_, err = f.snapshots.Get(ctx, "course-1")
	assert.NoError(t, err)
}

func TestUserProgress_Cached(t *testing.T) {
	f := newAnalyticsFixture()
	f.progressRepo.put(&progress.Record{UserID: "user-1", CourseID: "course-1", CompletedPercentage: 100, Completed: true})
	f.progressRepo.put(&progress.Record{UserID: "user-1", CourseID: "course-2", CompletedPercentage: 25})
	f.submissionRepo.put(&assessment.Submission{ID: "s1", UserID: "user-1", CourseID: "course-1", Percentage: 85, Passed: true})
	ctx := context.Background()

	got, err := f.cached.UserProgress(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.CoursesEnrolled)
	assert.Equal(t, 1, got.CoursesCompleted)
	assert.Equal(t, 85, got.BestScore)

	// Writes do not invalidate: a new record is invisible until the TTL.
	f.progressRepo.put(&progress.Record{UserID: "user-1", CourseID: "course-3", CompletedPercentage: 10})
	again, err := f.cached.UserProgress(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, again.CoursesEnrolled)

	f.clock.Advance(analytics.TTLUserProgress + time.Second)
	fresh, err := f.cached.UserProgress(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, fresh.CoursesEnrolled)
}

func TestCertificates_Cached(t *testing.T) {
	f := newAnalyticsFixture()
	ctx := context.Background()
	require.NoError(t, f.certRepo.Create(ctx, &certificate.Certificate{
		ID: "cert-1", UserID: "user-1", CourseID: "course-1", Status: certificate.StatusActive,
	}))

	certs, err := f.cached.Certificates(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, "cert-1", certs[0].ID)

	none, err := f.cached.Certificates(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBatchUserData_ChunksAndReassociates(t *testing.T) {
	f := newAnalyticsFixture()
	ctx := context.Background()

	// 25 users forces three chunks against the 10-value filter limit.
	userIDs := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		userID := fmt.Sprintf("user-%02d", i)
		userIDs = append(userIDs, userID)
		f.progressRepo.put(&progress.Record{UserID: shared.UserID(userID), CourseID: "course-1", CompletedPercentage: float64(i)})
		f.submissionRepo.put(&assessment.Submission{ID: "sub-" + userID, UserID: shared.UserID(userID), CourseID: "course-1", Percentage: 70, Passed: true})
	}
	require.NoError(t, f.certRepo.Create(ctx, &certificate.Certificate{
		ID: "cert-1", UserID: "user-03", CourseID: "course-1", Status: certificate.StatusActive,
	}))

	out, err := f.cached.BatchUserData(ctx, userIDs)
	require.NoError(t, err)
	require.Len(t, out, 25)

	assert.Equal(t, int64(3), f.progressRepo.listByUsersCalls.Load())
	assert.Equal(t, int64(3), f.submissionRepo.listByUsersCalls.Load())
	assert.Equal(t, int64(3), f.certRepo.listByUsersCalls.Load())

	for _, userID := range userIDs {
		d := out[userID]
		require.NotNil(t, d, "user %s", userID)
		assert.Len(t, d.Progress, 1)
		assert.Len(t, d.Submissions, 1)
	}
	assert.Len(t, out["user-03"].Certificates, 1)
	assert.Empty(t, out["user-04"].Certificates)
}

func TestBatchUserData_EmptyInput(t *testing.T) {
	f := newAnalyticsFixture()
	_, err := f.cached.BatchUserData(context.Background(), nil)
	assert.Error(t, err)
}

func TestPlatformAnalytics(t *testing.T) {
	f := newAnalyticsFixture()
	ctx := context.Background()
	f.progressRepo.put(&progress.Record{UserID: "user-1", CourseID: "course-1", CompletedPercentage: 100, Completed: true})
	f.progressRepo.put(&progress.Record{UserID: "user-2", CourseID: "course-1", CompletedPercentage: 50})
	f.progressRepo.put(&progress.Record{UserID: "user-1", CourseID: "course-2", CompletedPercentage: 100, Completed: true})
	f.submissionRepo.put(&assessment.Submission{ID: "s1", UserID: "user-1", CourseID: "course-1", Percentage: 90, Passed: true})

	got, err := f.cached.Platform(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalLearners)
	assert.Equal(t, 2, got.TotalCourses)
	assert.Equal(t, 1, got.TotalSubmissions)
	assert.Equal(t, 67, got.OverallCompletionRate) // 2 of 3, rounded half up
	require.Len(t, got.TopCompletedCourses, 2)
}
