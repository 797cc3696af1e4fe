package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/diagnosis/mentor-bookings/internal/domain"
	"github.com/diagnosis/mentor-bookings/internal/lock"
	"github.com/diagnosis/mentor-bookings/internal/repository"
	"github.com/diagnosis/mentor-bookings/pkg/events"
	"github.com/google/uuid"
)

// ---------- Availability store / directory ----------

type fakeDirectory struct {
	mu        sync.Mutex
	mentors   []domain.Mentor
	students  []domain.Student
	searchErr error
	getErr    error
	block     bool // wait for ctx cancellation on every call
	calls     int
}

func (f *fakeDirectory) enter(ctx context.Context) error {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (f *fakeDirectory) GetMentorByID(ctx context.Context, id int64) (*domain.Mentor, error) {
	if err := f.enter(ctx); err != nil {
		return nil, err
	}
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.mentors {
		if m.ID == id {
			out := m
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeDirectory) SearchMentors(ctx context.Context, area string, minAvailability domain.Slot) ([]domain.Mentor, error) {
	if err := f.enter(ctx); err != nil {
		return nil, err
	}
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Mentor
	for _, m := range f.mentors {
		if m.Teaches(area) && m.Availability >= minAvailability {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeDirectory) GetStudentByID(ctx context.Context, id int64) (*domain.Student, error) {
	if err := f.enter(ctx); err != nil {
		return nil, err
	}
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.students {
		if s.ID == id {
			out := s
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeDirectory) CreateMentor(_ context.Context, req *domain.MentorCreateReq) (*domain.Mentor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := domain.Mentor{
		ID:               int64(len(f.mentors) + 1),
		Name:             req.Name,
		Availability:     *req.Availability,
		AreasOfExpertise: req.AreasOfExpertise,
		IsPremium:        req.IsPremium,
		CreatedAt:        time.Now(),
	}
	f.mentors = append(f.mentors, m)
	return &m, nil
}

func (f *fakeDirectory) ListMentors(context.Context, int, int) ([]domain.Mentor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Mentor(nil), f.mentors...), nil
}

func (f *fakeDirectory) UpdateMentorAvailability(_ context.Context, id int64, availability domain.Slot) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.mentors {
		if f.mentors[i].ID == id {
			f.mentors[i].Availability = availability
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDirectory) CreateStudent(_ context.Context, req *domain.StudentCreateReq) (*domain.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := domain.Student{
		ID:             int64(len(f.students) + 1),
		Name:           req.Name,
		Availability:   *req.Availability,
		AreaOfInterest: req.AreaOfInterest,
		CreatedAt:      time.Now(),
	}
	f.students = append(f.students, s)
	return &s, nil
}

func (f *fakeDirectory) ListStudents(context.Context, int, int) ([]domain.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Student(nil), f.students...), nil
}

func (f *fakeDirectory) UpdateStudentAvailability(_ context.Context, id int64, availability domain.Slot) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.students {
		if f.students[i].ID == id {
			f.students[i].Availability = availability
			return true, nil
		}
	}
	return false, nil
}

var _ repository.DirectoryRepository = (*fakeDirectory)(nil)

// ---------- Booking ledger ----------

// fakeLedger enforces the (mentor, slot) uniqueness the real table has.
type fakeLedger struct {
	mu        sync.Mutex
	nextID    int64
	bookings  map[int64]domain.Booking
	findDelay time.Duration
	findErr   error
	insertErr error
	inserts   int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{nextID: 1, bookings: make(map[int64]domain.Booking)}
}

func (l *fakeLedger) FindByMentorAndTime(_ context.Context, mentorID int64, at domain.Slot) ([]domain.Booking, error) {
	if l.findDelay > 0 {
		time.Sleep(l.findDelay)
	}
	if l.findErr != nil {
		return nil, l.findErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.Booking
	for _, b := range l.bookings {
		if b.MentorID == mentorID && b.ScheduledTime == at {
			out = append(out, b)
		}
	}
	return out, nil
}

func (l *fakeLedger) Insert(_ context.Context, in *domain.Booking) (*domain.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inserts++
	if l.insertErr != nil {
		return nil, l.insertErr
	}
	for _, b := range l.bookings {
		if b.MentorID == in.MentorID && b.ScheduledTime == in.ScheduledTime {
			return nil, repository.ErrSlotTaken
		}
	}
	b := *in
	b.ID = l.nextID
	b.Reference = uuid.New()
	b.CreatedAt = time.Now()
	l.nextID++
	l.bookings[b.ID] = b
	return &b, nil
}

func (l *fakeLedger) Delete(_ context.Context, id int64) (*domain.Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.bookings[id]
	if !ok {
		return nil, nil
	}
	delete(l.bookings, id)
	return &b, nil
}

func (l *fakeLedger) FindByStudent(_ context.Context, studentID int64) ([]domain.BookingView, error) {
	return l.views(func(b domain.Booking) bool { return b.StudentID == studentID }), nil
}

func (l *fakeLedger) FindByMentor(_ context.Context, mentorID int64) ([]domain.BookingView, error) {
	return l.views(func(b domain.Booking) bool { return b.MentorID == mentorID }), nil
}

func (l *fakeLedger) views(keep func(domain.Booking) bool) []domain.BookingView {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []domain.BookingView{}
	for _, b := range l.bookings {
		if keep(b) {
			out = append(out, domain.BookingView{
				BookingID:     b.ID,
				StudentID:     b.StudentID,
				StudentName:   fmt.Sprintf("student-%d", b.StudentID),
				MentorID:      b.MentorID,
				MentorName:    fmt.Sprintf("mentor-%d", b.MentorID),
				ScheduledTime: b.ScheduledTime,
				Duration:      b.Duration,
				SessionCost:   b.SessionCost,
			})
		}
	}
	return out
}

func (l *fakeLedger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.bookings)
}

// ---------- Event bus ----------

type publishedEvent struct {
	subject string
	data    interface{}
}

type fakeBus struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (b *fakeBus) Publish(_ context.Context, subject string, data interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, publishedEvent{subject: subject, data: data})
	return b.err
}

func (b *fakeBus) Close() error { return nil }

func (b *fakeBus) subjects() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.subject)
	}
	return out
}

var _ events.Publisher = (*fakeBus)(nil)

// ---------- Locking / pricing ----------

type nopLocker struct{}

func (nopLocker) Lock(context.Context, string) (lock.Unlock, error) {
	return func(context.Context) error { return nil }, nil
}

type errLocker struct{ err error }

func (l errLocker) Lock(context.Context, string) (lock.Unlock, error) { return nil, l.err }

type spyPricer struct {
	calls int
}

func (p *spyPricer) Price(m *domain.Mentor, duration int) (float64, error) {
	p.calls++
	return PricingEngine{}.Price(m, duration)
}

// ---------- Builders ----------

func slot(v int64) *domain.Slot {
	s := domain.Slot(v)
	return &s
}

func id(v int64) *int64 { return &v }
