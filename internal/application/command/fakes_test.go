package command

import (
	"context"
	"sync"

	"github.com/learnforge/learnforge-hub/internal/domain/analytics"
	"github.com/learnforge/learnforge-hub/internal/domain/assessment"
	"github.com/learnforge/learnforge-hub/internal/domain/certificate"
	"github.com/learnforge/learnforge-hub/internal/domain/progress"
	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

// In-memory fakes used across the command handler tests.

type fakeProgressRepo struct {
	mu      sync.Mutex
	records map[string]*progress.Record
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{records: make(map[string]*progress.Record)}
}

func (f *fakeProgressRepo) Get(_ context.Context, userID shared.UserID, courseID shared.CourseID) (*progress.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[progress.Key(userID, courseID)]
	if !ok {
		return nil, shared.ErrProgressNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeProgressRepo) Upsert(_ context.Context, record *progress.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *record
	f.records[record.Key()] = &cp
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
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{submissions: make(map[string]*assessment.Submission)}
}

func (f *fakeSubmissionRepo) Create(_ context.Context, s *assessment.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.submissions[s.ID] = &cp
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
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.submissions[s.ID]; !ok {
		return shared.ErrSubmissionNotFound
	}
	cp := *s
	f.submissions[s.ID] = &cp
	return nil
}

func (f *fakeSubmissionRepo) ListByUserAndCourse(_ context.Context, userID shared.UserID, courseID shared.CourseID) ([]*assessment.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*assessment.Submission
	for _, s := range f.submissions {
		if s.UserID == userID && s.CourseID == courseID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeSubmissionRepo) ListByCourse(_ context.Context, courseID shared.CourseID) ([]*assessment.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*assessment.Submission
	for _, s := range f.submissions {
		if s.CourseID == courseID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeSubmissionRepo) ListByUser(_ context.Context, userID shared.UserID) ([]*assessment.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*assessment.Submission
	for _, s := range f.submissions {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeSubmissionRepo) ListByUsers(_ context.Context, userIDs []shared.UserID) ([]*assessment.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[shared.UserID]bool, len(userIDs))
	for _, id := range userIDs {
		want[id] = true
	}
	var out []*assessment.Submission
	for _, s := range f.submissions {
		if want[s.UserID] {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeSubmissionRepo) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submissions), nil
}

type fakeCertRepo struct {
	mu    sync.Mutex
	certs map[string]*certificate.Certificate
}

func newFakeCertRepo() *fakeCertRepo {
	return &fakeCertRepo{certs: make(map[string]*certificate.Certificate)}
}

// Create mirrors the store's conditional insert: at most one ACTIVE
// certificate per (user, course).
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
	if _, ok := f.certs[cert.ID]; !ok {
		return shared.ErrCertificateNotFound
	}
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

type fakeCertLogRepo struct {
	mu       sync.Mutex
	entries  []*certificate.LogEntry
	fail     bool
	failures int // fail this many appends, then recover
}

func (f *fakeCertLogRepo) Append(_ context.Context, entry *certificate.LogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return shared.ErrUpstreamStore
	}
	if f.failures > 0 {
		f.failures--
		return shared.ErrUpstreamStore
	}
	cp := *entry
	f.entries = append(f.entries, &cp)
	return nil
}

func (f *fakeCertLogRepo) ListByCertificate(_ context.Context, certificateID string) ([]*certificate.LogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*certificate.LogEntry
	for _, e := range f.entries {
		if e.CertificateID == certificateID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
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

type fakeResultRepo struct {
	mu      sync.Mutex
	records []*assessment.EvaluationRecord
	fail    bool
}

func (f *fakeResultRepo) Append(_ context.Context, record *assessment.EvaluationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return shared.ErrUpstreamStore
	}
	cp := *record
	f.records = append(f.records, &cp)
	return nil
}

// capturingPublisher records published events for assertions.
type capturingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *capturingPublisher) Publish(event shared.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturingPublisher) byType(t shared.EventType) []shared.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []shared.Event
	for _, e := range p.events {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}
