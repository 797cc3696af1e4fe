package service

import (
	"context"
	"errors"
	"testing"

	"github.com/diagnosis/mentor-bookings/internal/domain"
)

func TestDirectoryCreateMentorRequiresExpertise(t *testing.T) {
	svc := NewDirectoryService(&fakeDirectory{})
	_, err := svc.CreateMentor(context.Background(), &domain.MentorCreateReq{
		Name:             "Ada",
		Availability:     slot(1),
		AreasOfExpertise: []string{" ", ""},
	})
	if !errors.Is(err, ErrEmptyExpertise) {
		t.Fatalf("expected ErrEmptyExpertise, got %v", err)
	}
}

func TestDirectoryMentorLifecycle(t *testing.T) {
	dir := &fakeDirectory{}
	svc := NewDirectoryService(dir)
	ctx := context.Background()

	m, err := svc.CreateMentor(ctx, &domain.MentorCreateReq{
		Name:             "Ada",
		Availability:     slot(5),
		AreasOfExpertise: []string{"go"},
		IsPremium:        true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.SetMentorAvailability(ctx, m.ID, 42); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := svc.GetMentor(ctx, m.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Availability != 42 {
		t.Fatalf("expected availability 42, got %d", got.Availability)
	}

	if err := svc.SetMentorAvailability(ctx, 999, 1); !errors.Is(err, ErrMentorNotFound) {
		t.Fatalf("expected ErrMentorNotFound, got %v", err)
	}
	if _, err := svc.GetMentor(ctx, 999); !errors.Is(err, ErrMentorNotFound) {
		t.Fatalf("expected ErrMentorNotFound, got %v", err)
	}
}

func TestDirectoryStudentLifecycle(t *testing.T) {
	svc := NewDirectoryService(&fakeDirectory{})
	ctx := context.Background()

	st, err := svc.CreateStudent(ctx, &domain.StudentCreateReq{
		Name:           "Sam",
		Availability:   slot(3),
		AreaOfInterest: "go",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.SetStudentAvailability(ctx, st.ID, 9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list, err := svc.ListStudents(ctx, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 1 || list[0].Availability != 9 {
		t.Fatalf("unexpected students: %+v", list)
	}
	if _, err := svc.GetStudent(ctx, 77); !errors.Is(err, ErrStudentNotFound) {
		t.Fatalf("expected ErrStudentNotFound, got %v", err)
	}
}
