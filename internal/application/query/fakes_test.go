package query

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/learnforge/learnforge-hub/internal/domain/analytics"
	"github.com/learnforge/learnforge-hub/internal/domain/assessment"
	"github.com/learnforge/learnforge-hub/internal/domain/certificate"
	"github.com/learnforge/learnforge-hub/internal/domain/progress"
	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

// In-memory fakes for the query handler tests. The list calls carry atomic
// counters so the cached-read tests can assert how often the underlying
// stores were actually hit.

type fakeProgressRepo struct {
	mu      sync.Mutex
	records map[string]*progress.Record
	getErrs map[shared.UserID]error

	listByCourseCalls atomic.Int64
	listByUsersCalls  atomic.Int64
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{records: make(map[string]*progress.Record)}
}

func (f *fakeProgressRepo) put(r *progress.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *r
	f.records[r.Key()] = &cp
}

func (f *fakeProgressRepo) failGet(userID shared.UserID, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErrs == nil {
		f.getErrs = make(map[shared.UserID]error)
	}
	f.getErrs[userID] = err
}

func (f *fakeProgressRepo) Get(_ context.Context, userID shared.UserID, courseID shared.CourseID) (*progress.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.getErrs[userID]; err != nil {
		return nil, err
	}
	r, ok := f.records[progress.Key(userID, courseID)]
	if !ok {
		return nil, shared.ErrProgressNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeProgressRepo) Upsert(_ context.Context, record *progress.Record) error {
	f.put(record)
	return nil
}

func (f *fakeProgressRepo) ListByUser(_ context.Context, userID shared.UserID) ([]*progress.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*progress.Record
	for _, r := range f.records {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeProgressRepo) ListByCourse(_ context.Context, courseID shared.CourseID) ([]*progress.Record, error) {
	f.listByCourseCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*progress.Record
	for _, r := range f.records {
		if r.CourseID == courseID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeProgressRepo) ListByUsers(_ context.Context, userIDs []shared.UserID) ([]*progress.Record, error) {
	f.listByUsersCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[shared.UserID]bool, len(userIDs))
	for _, id := range userIDs {
		want[id] = true
	}
	var out []*progress.Record
	for _, r := range f.records {
		if want[r.UserID] {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeProgressRepo) CountCompletedByCourse(_ context.Context) (map[shared.CourseID]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[shared.CourseID]int)
	for _, r := range f.records {
		if r.Completed {
			out[r.CourseID]++
		}
	}
	return out, nil
}

func (f *fakeProgressRepo) CountByCourse(_ context.Context) (map[shared.CourseID]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[shared.CourseID]int)
	for _, r := range f.records {
		out[r.CourseID]++
	}
	return out, nil
}

func (f *fakeProgressRepo) CountUsers(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	users := make(map[shared.UserID]bool)
	for _, r := range f.records {
		users[r.UserID] = true
	}
	return len(users), nil
}

type fakeSubmissionRepo struct {
	mu          sync.Mutex
	submissions map[string]*assessment.Submission

	listByUsersCalls atomic.Int64
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{submissions: make(map[string]*assessment.Submission)}
}

func (f *fakeSubmissionRepo) put(s *assessment.Submission) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.submissions[s.ID] = &cp
}

func (f *fakeSubmissionRepo) Create(_ context.Context, s *assessment.Submission) error {
	f.put(s)
	return nil
}

func (f *fakeSubmissionRepo) GetByID(_ context.Context, id string) (*assessment.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.submissions[id]
	if !ok {
		return nil, shared.ErrSubmissionNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSubmissionRepo) Update(_ context.Context, s *assessment.Submission) error {
	f.put(s)
	return nil
}

func (f *fakeSubmissionRepo) filter(keep func(*assessment.Submission) bool) []*assessment.Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*assessment.Submission
	for _, s := range f.submissions {
		if keep(s) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out
}

func (f *fakeSubmissionRepo) ListByUserAndCourse(_ context.Context, userID shared.UserID, courseID shared.CourseID) ([]*assessment.Submission, error) {
	return f.filter(func(s *assessment.Submission) bool {
		return s.UserID == userID && s.CourseID == courseID
	}), nil
}

func (f *fakeSubmissionRepo) ListByCourse(_ context.Context, courseID shared.CourseID) ([]*assessment.Submission, error) {
	return f.filter(func(s *assessment.Submission) bool { return s.CourseID == courseID }), nil
}

func (f *fakeSubmissionRepo) ListByUser(_ context.Context, userID shared.UserID) ([]*assessment.Submission, error) {
	return f.filter(func(s *assessment.Submission) bool { return s.UserID == userID }), nil
}

func (f *fakeSubmissionRepo) ListByUsers(_ context.Context, userIDs []shared.UserID) ([]*assessment.Submission, error) {
	f.listByUsersCalls.Add(1)
	want := make(map[shared.UserID]bool, len(userIDs))
	for _, id := range userIDs {
		want[id] = true
	}
	return f.filter(func(s *assessment.Submission) bool { return want[s.UserID] }), nil
}

func (f *fakeSubmissionRepo) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submissions), nil
}

type fakeCertRepo struct {
	mu    sync.Mutex
	certs map[string]*certificate.Certificate

	listByUsersCalls atomic.Int64
}

func newFakeCertRepo() *fakeCertRepo {
	return &fakeCertRepo{certs: make(map[string]*certificate.Certificate)}
}

func (f *fakeCertRepo) Create(_ context.Context, cert *certificate.Certificate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.certs {
		if c.UserID == cert.UserID && c.CourseID == cert.CourseID && c.Status == certificate.StatusActive {
			return shared.ErrCertificateExists
		}
	}
	cp := *cert
	f.certs[cert.ID] = &cp
	return nil
}

func (f *fakeCertRepo) GetByID(_ context.Context, id string) (*certificate.Certificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.certs[id]
	if !ok {
		return nil, shared.ErrCertificateNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCertRepo) GetActiveByUserAndCourse(_ context.Context, userID shared.UserID, courseID shared.CourseID) (*certificate.Certificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.certs {
		if c.UserID == userID && c.CourseID == courseID && c.Status == certificate.StatusActive {
			cp := *c
			return &cp, nil
		}
	}
	return nil, shared.ErrCertificateNotFound
}

func (f *fakeCertRepo) Update(_ context.Context, cert *certificate.Certificate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *cert
	f.certs[cert.ID] = &cp
	return nil
}

func (f *fakeCertRepo) ListByUser(_ context.Context, userID shared.UserID) ([]*certificate.Certificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*certificate.Certificate
	for _, c := range f.certs {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeCertRepo) ListByUsers(_ context.Context, userIDs []shared.UserID) ([]*certificate.Certificate, error) {
	f.listByUsersCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[shared.UserID]bool, len(userIDs))
	for _, id := range userIDs {
		want[id] = true
	}
	var out []*certificate.Certificate
	for _, c := range f.certs {
		if want[c.UserID] {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeCertRepo) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.certs), nil
}

type fakeEngagementRepo struct {
	mu     sync.Mutex
	events []*analytics.EngagementEvent
}

func (f *fakeEngagementRepo) Append(_ context.Context, event *analytics.EngagementEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *event
	f.events = append(f.events, &cp)
	return nil
}

func (f *fakeEngagementRepo) ListByUser(_ context.Context, userID shared.UserID) ([]*analytics.EngagementEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*analytics.EngagementEvent
	for _, e := range f.events {
		if e.UserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeEngagementRepo) CountByUser(_ context.Context, userID shared.UserID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.UserID == userID {
			n++
		}
	}
	return n, nil
}

type fakeSnapshotRepo struct {
	mu        sync.Mutex
	snapshots map[shared.CourseID]*analytics.Snapshot
}

func newFakeSnapshotRepo() *fakeSnapshotRepo {
	return &fakeSnapshotRepo{snapshots: make(map[shared.CourseID]*analytics.Snapshot)}
}

func (f *fakeSnapshotRepo) Get(_ context.Context, courseID shared.CourseID) (*analytics.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.snapshots[courseID]
	if !ok {
		return nil, shared.ErrSnapshotNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSnapshotRepo) Upsert(_ context.Context, snapshot *analytics.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *snapshot
	f.snapshots[snapshot.CourseID] = &cp
	return nil
}

func (f *fakeSnapshotRepo) ListCourseIDs(_ context.Context) ([]shared.CourseID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]shared.CourseID, 0, len(f.snapshots))
	for id := range f.snapshots {
		out = append(out, id)
	}
	return out, nil
}
