package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnforge/learnforge-hub/internal/domain/assessment"
	"github.com/learnforge/learnforge-hub/internal/domain/certificate"
	"github.com/learnforge/learnforge-hub/internal/domain/progress"
	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

type certFixture struct {
	progressRepo   *fakeProgressRepo
	submissionRepo *fakeSubmissionRepo
	certRepo       *fakeCertRepo
	logRepo        *fakeCertLogRepo
	publisher      *capturingPublisher
	clock          *shared.FixedClock
	handler        *GenerateCertificateHandler
}

func newCertFixture() *certFixture {
	f := &certFixture{
		progressRepo:   newFakeProgressRepo(),
		submissionRepo: newFakeSubmissionRepo(),
		certRepo:       newFakeCertRepo(),
		logRepo:        &fakeCertLogRepo{},
		publisher:      &capturingPublisher{},
		clock:          shared.NewFixedClock(testNow),
	}
	f.handler = NewGenerateCertificateHandler(
		f.progressRepo, f.submissionRepo, f.certRepo, f.logRepo,
		f.publisher, f.clock, nil,
	)
	return f
}

func (f *certFixture) seedEligible(t *testing.T) {
	t.Helper()
	require.NoError(t, f.progressRepo.Upsert(context.Background(), &progress.Record{
		UserID:              "user-1",
		CourseID:            "course-1",
		CompletedPercentage: 100,
		Completed:           true,
		LastUpdatedAt:       testNow.Add(-time.Hour),
	}))
	require.NoError(t, f.submissionRepo.Create(context.Background(), &assessment.Submission{
		ID: "sub-1", UserID: "user-1", CourseID: "course-1",
		Percentage: 90, Passed: true, Status: assessment.StatusReviewed,
	}))
	require.NoError(t, f.submissionRepo.Create(context.Background(), &assessment.Submission{
		ID: "sub-2", UserID: "user-1", CourseID: "course-1",
		Percentage: 80, Passed: true, Status: assessment.StatusReviewed,
	}))
}

func TestGenerateCertificate_Issues(t *testing.T) {
	f := newCertFixture()
	f.seedEligible(t)

	result, err := f.handler.Handle(context.Background(), GenerateCertificateCommand{
		UserID: "user-1", CourseID: "course-1",
		CourseName: "Go Basics", UserName: "Ada",
	})
	require.NoError(t, err)

	require.NotNil(t, result.Certificate)
	assert.False(t, result.AlreadyExisted)
	assert.True(t, result.AuditRecorded)
	assert.Equal(t, certificate.StatusActive, result.Certificate.Status)
	assert.Equal(t, 85, result.Certificate.FinalScore)
	assert.Equal(t, 2, result.Certificate.AssessmentsPassed)
	assert.Equal(t, testNow.Add(certificate.ValidityPeriod), result.Certificate.ValidUntil)
	assert.Equal(t, testNow.Add(-time.Hour), result.Certificate.CompletionDate)

	require.Len(t, f.logRepo.entries, 1)
	assert.Equal(t, certificate.ActionGenerated, f.logRepo.entries[0].Action)
	assert.Len(t, f.publisher.byType(shared.EventCertificateGenerated), 1)
}

func TestGenerateCertificate_Idempotent(t *testing.T) {
	f := newCertFixture()
	f.seedEligible(t)

	first, err := f.handler.Handle(context.Background(), GenerateCertificateCommand{
		UserID: "user-1", CourseID: "course-1",
	})
	require.NoError(t, err)

	second, err := f.handler.Handle(context.Background(), GenerateCertificateCommand{
		UserID: "user-1", CourseID: "course-1",
	})
	require.NoError(t, err)

	assert.True(t, second.AlreadyExisted)
	assert.Equal(t, first.Certificate.ID, second.Certificate.ID)
	// No second audit entry, no second event.
	assert.Len(t, f.logRepo.entries, 1)
	assert.Len(t, f.publisher.byType(shared.EventCertificateGenerated), 1)
}

func TestGenerateCertificate_IneligibleIsNotAnError(t *testing.T) {
	f := newCertFixture()
	require.NoError(t, f.progressRepo.Upsert(context.Background(), &progress.Record{
		UserID: "user-1", CourseID: "course-1", CompletedPercentage: 80,
	}))

	result, err := f.handler.Handle(context.Background(), GenerateCertificateCommand{
		UserID: "user-1", CourseID: "course-1",
	})
	require.NoError(t, err)

	assert.Nil(t, result.Certificate)
	assert.False(t, result.Eligibility.Eligible)
	assert.Contains(t, result.Eligibility.Reason, "80% complete")
	assert.Empty(t, f.certRepo.certs)
}

func TestGenerateCertificate_FailedSubmissionBlocks(t *testing.T) {
	f := newCertFixture()
	f.seedEligible(t)
	require.NoError(t, f.submissionRepo.Create(context.Background(), &assessment.Submission{
		ID: "sub-3", UserID: "user-1", CourseID: "course-1",
		Percentage: 20, Passed: false, Status: assessment.StatusReviewed,
	}))

	result, err := f.handler.Handle(context.Background(), GenerateCertificateCommand{
		UserID: "user-1", CourseID: "course-1",
	})
	require.NoError(t, err)

	assert.Nil(t, result.Certificate)
	assert.Equal(t, 1, result.Eligibility.FailedCount)
}

func TestGenerateCertificate_AuditFailureDegrades(t *testing.T) {
	f := newCertFixture()
	f.seedEligible(t)
	f.logRepo.fail = true

	result, err := f.handler.Handle(context.Background(), GenerateCertificateCommand{
		UserID: "user-1", CourseID: "course-1",
	})
	require.NoError(t, err)

	require.NotNil(t, result.Certificate)
	assert.False(t, result.AuditRecorded)

	// The certificate write stands despite the failed audit append.
	stored, err := f.certRepo.GetActiveByUserAndCourse(context.Background(), "user-1", "course-1")
	require.NoError(t, err)
	assert.Equal(t, result.Certificate.ID, stored.ID)
}

func TestGenerateCertificate_AuditTransientFailureRetried(t *testing.T) {
	f := newCertFixture()
	f.seedEligible(t)
	f.logRepo.failures = 1

	result, err := f.handler.Handle(context.Background(), GenerateCertificateCommand{
		UserID: "user-1", CourseID: "course-1",
	})
	require.NoError(t, err)

	// One transient store failure is absorbed by the retrying append.
	assert.True(t, result.AuditRecorded)
	assert.Len(t, f.logRepo.entries, 1)
}

func TestGenerateCertificate_NoProgressRecord(t *testing.T) {
	f := newCertFixture()

	result, err := f.handler.Handle(context.Background(), GenerateCertificateCommand{
		UserID: "user-1", CourseID: "course-1",
	})
	require.NoError(t, err)

	assert.Nil(t, result.Certificate)
	assert.Equal(t, "no progress record", result.Eligibility.Reason)
}

func TestRevokeCertificate(t *testing.T) {
	f := newCertFixture()
	f.seedEligible(t)

	generated, err := f.handler.Handle(context.Background(), GenerateCertificateCommand{
		UserID: "user-1", CourseID: "course-1",
	})
	require.NoError(t, err)

	revoker := NewRevokeCertificateHandler(f.certRepo, f.logRepo, f.publisher, f.clock, nil)

	result, err := revoker.Handle(context.Background(), RevokeCertificateCommand{
		CertificateID: generated.Certificate.ID,
		Reason:        "academic misconduct",
	})
	require.NoError(t, err)

	assert.True(t, result.WasRevoked)
	assert.Equal(t, certificate.StatusRevoked, result.Certificate.Status)
	assert.Equal(t, "academic misconduct", result.Certificate.RevocationReason)
	require.NotNil(t, result.Certificate.RevokedAt)
	assert.Equal(t, testNow, *result.Certificate.RevokedAt)

	// Second revocation is a no-op.
	again, err := revoker.Handle(context.Background(), RevokeCertificateCommand{
		CertificateID: generated.Certificate.ID,
	})
	require.NoError(t, err)
	assert.False(t, again.WasRevoked)

	assert.Len(t, f.publisher.byType(shared.EventCertificateRevoked), 1)
}

func TestRevokeCertificate_DefaultReason(t *testing.T) {
	f := newCertFixture()
	f.seedEligible(t)

	generated, err := f.handler.Handle(context.Background(), GenerateCertificateCommand{
		UserID: "user-1", CourseID: "course-1",
	})
	require.NoError(t, err)

	revoker := NewRevokeCertificateHandler(f.certRepo, f.logRepo, f.publisher, f.clock, nil)
	result, err := revoker.Handle(context.Background(), RevokeCertificateCommand{
		CertificateID: generated.Certificate.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, certificate.DefaultRevocationReason, result.Certificate.RevocationReason)
}

// After a revocation the pair becomes eligible for a fresh certificate;
// the conditional insert only guards ACTIVE duplicates.
func TestGenerateCertificate_AfterRevocationIssuesNew(t *testing.T) {
	f := newCertFixture()
	f.seedEligible(t)

	first, err := f.handler.Handle(context.Background(), GenerateCertificateCommand{
		UserID: "user-1", CourseID: "course-1",
	})
	require.NoError(t, err)

	revoker := NewRevokeCertificateHandler(f.certRepo, f.logRepo, f.publisher, f.clock, nil)
	_, err = revoker.Handle(context.Background(), RevokeCertificateCommand{CertificateID: first.Certificate.ID})
	require.NoError(t, err)

	second, err := f.handler.Handle(context.Background(), GenerateCertificateCommand{
		UserID: "user-1", CourseID: "course-1",
	})
	require.NoError(t, err)

	assert.False(t, second.AlreadyExisted)
	assert.NotEqual(t, first.Certificate.ID, second.Certificate.ID)
}
