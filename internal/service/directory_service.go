package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/diagnosis/mentor-bookings/internal/domain"
	"github.com/diagnosis/mentor-bookings/internal/repository"
	"github.com/diagnosis/mentor-bookings/internal/utils"
)

var (
	ErrStudentNotFound = errors.New("student not found")
	ErrEmptyExpertise  = errors.New("areas_of_expertise must contain at least one topic")
)

// DirectoryService manages mentor and student records. Updating an
// availability value never touches existing bookings.
type DirectoryService interface {
	CreateMentor(ctx context.Context, req *domain.MentorCreateReq) (*domain.Mentor, error)
	GetMentor(ctx context.Context, id int64) (*domain.Mentor, error)
	ListMentors(ctx context.Context, limit, offset int) ([]domain.Mentor, error)
	SetMentorAvailability(ctx context.Context, id int64, availability domain.Slot) error
	CreateStudent(ctx context.Context, req *domain.StudentCreateReq) (*domain.Student, error)
	GetStudent(ctx context.Context, id int64) (*domain.Student, error)
	ListStudents(ctx context.Context, limit, offset int) ([]domain.Student, error)
	SetStudentAvailability(ctx context.Context, id int64, availability domain.Slot) error
}

type directoryService struct {
	repo repository.DirectoryRepository
}

func NewDirectoryService(repo repository.DirectoryRepository) DirectoryService {
	return &directoryService{repo: repo}
}

func (s *directoryService) CreateMentor(ctx context.Context, req *domain.MentorCreateReq) (*domain.Mentor, error) {
	if len(utils.NormalizeTopics(req.AreasOfExpertise)) == 0 {
		return nil, ErrEmptyExpertise
	}
	m, err := s.repo.CreateMentor(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create mentor: %w", err)
	}
	return m, nil
}

func (s *directoryService) GetMentor(ctx context.Context, id int64) (*domain.Mentor, error) {
	m, err := s.repo.GetMentorByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get mentor: %w", err)
	}
	if m == nil {
		return nil, ErrMentorNotFound
	}
	return m, nil
}

func (s *directoryService) ListMentors(ctx context.Context, limit, offset int) ([]domain.Mentor, error) {
	return s.repo.ListMentors(ctx, limit, offset)
}

func (s *directoryService) SetMentorAvailability(ctx context.Context, id int64, availability domain.Slot) error {
	ok, err := s.repo.UpdateMentorAvailability(ctx, id, availability)
	if err != nil {
		return fmt.Errorf("failed to update mentor availability: %w", err)
	}
	if !ok {
		return ErrMentorNotFound
	}
	return nil
}

func (s *directoryService) CreateStudent(ctx context.Context, req *domain.StudentCreateReq) (*domain.Student, error) {
	st, err := s.repo.CreateStudent(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create student: %w", err)
	}
	return st, nil
}

func (s *directoryService) GetStudent(ctx context.Context, id int64) (*domain.Student, error) {
	st, err := s.repo.GetStudentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	if st == nil {
		return nil, ErrStudentNotFound
	}
	return st, nil
}

func (s *directoryService) ListStudents(ctx context.Context, limit, offset int) ([]domain.Student, error) {
	return s.repo.ListStudents(ctx, limit, offset)
}

func (s *directoryService) SetStudentAvailability(ctx context.Context, id int64, availability domain.Slot) error {
	ok, err := s.repo.UpdateStudentAvailability(ctx, id, availability)
	if err != nil {
		return fmt.Errorf("failed to update student availability: %w", err)
	}
	if !ok {
		return ErrStudentNotFound
	}
	return nil
}
