package repository

import (
	"context"
	"errors"
	"time"

	"github.com/diagnosis/mentor-bookings/internal/domain"
	"github.com/diagnosis/mentor-bookings/internal/utils"
	"github.com/jackc/pgx/v5"
)

// AvailabilityStore is the read side the allocator depends on. Lookups of a
// missing row return (nil, nil).
type AvailabilityStore interface {
	GetMentorByID(ctx context.Context, id int64) (*domain.Mentor, error)
	// SearchMentors filters mentors teaching area whose availability is at
	// least minAvailability. Ordering is left to the caller.
	SearchMentors(ctx context.Context, area string, minAvailability domain.Slot) ([]domain.Mentor, error)
	GetStudentByID(ctx context.Context, id int64) (*domain.Student, error)
}

type DirectoryRepository interface {
	AvailabilityStore
	CreateMentor(ctx context.Context, req *domain.MentorCreateReq) (*domain.Mentor, error)
	ListMentors(ctx context.Context, limit, offset int) ([]domain.Mentor, error)
	UpdateMentorAvailability(ctx context.Context, id int64, availability domain.Slot) (bool, error)
	CreateStudent(ctx context.Context, req *domain.StudentCreateReq) (*domain.Student, error)
	ListStudents(ctx context.Context, limit, offset int) ([]domain.Student, error)
	UpdateStudentAvailability(ctx context.Context, id int64, availability domain.Slot) (bool, error)
}

type directoryRepository struct {
	pool DB
}

func NewDirectoryRepository(pool DB) DirectoryRepository {
	return &directoryRepository{pool: pool}
}

const mentorCols = `id, name, availability, areas_of_expertise, is_premium, created_at`

const studentCols = `id, name, availability, area_of_interest, created_at`

func scanMentor(row pgx.Row) (*domain.Mentor, error) {
	var m domain.Mentor
	if err := row.Scan(&m.ID, &m.Name, &m.Availability, &m.AreasOfExpertise, &m.IsPremium, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func scanStudent(row pgx.Row) (*domain.Student, error) {
	var s domain.Student
	if err := row.Scan(&s.ID, &s.Name, &s.Availability, &s.AreaOfInterest, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *directoryRepository) GetMentorByID(ctx context.Context, id int64) (*domain.Mentor, error) {
	const q = `SELECT ` + mentorCols + ` FROM mentors WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	m, err := scanMentor(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

func (r *directoryRepository) SearchMentors(ctx context.Context, area string, minAvailability domain.Slot) ([]domain.Mentor, error) {
	const q = `SELECT ` + mentorCols + ` FROM mentors
		WHERE $1 = ANY(areas_of_expertise) AND availability >= $2
		ORDER BY is_premium DESC, availability ASC, id ASC`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, utils.NormalizeTopic(area), minAvailability)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mentors []domain.Mentor
	for rows.Next() {
		m, err := scanMentor(rows)
		if err != nil {
			return nil, err
		}
		mentors = append(mentors, *m)
	}
	return mentors, rows.Err()
}

func (r *directoryRepository) GetStudentByID(ctx context.Context, id int64) (*domain.Student, error) {
	const q = `SELECT ` + studentCols + ` FROM students WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	s, err := scanStudent(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (r *directoryRepository) CreateMentor(ctx context.Context, req *domain.MentorCreateReq) (*domain.Mentor, error) {
	const q = `INSERT INTO mentors (name, availability, areas_of_expertise, is_premium)
		VALUES ($1,$2,$3,$4)
		RETURNING ` + mentorCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanMentor(r.pool.QueryRow(ctx, q,
		utils.NormalizeString(req.Name), *req.Availability,
		utils.NormalizeTopics(req.AreasOfExpertise), req.IsPremium,
	))
}

func (r *directoryRepository) ListMentors(ctx context.Context, limit, offset int) ([]domain.Mentor, error) {
	limit, offset = clampPage(limit, offset)
	const q = `SELECT ` + mentorCols + ` FROM mentors ORDER BY id LIMIT $1 OFFSET $2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mentors []domain.Mentor
	for rows.Next() {
		m, err := scanMentor(rows)
		if err != nil {
			return nil, err
		}
		mentors = append(mentors, *m)
	}
	return mentors, rows.Err()
}

func (r *directoryRepository) UpdateMentorAvailability(ctx context.Context, id int64, availability domain.Slot) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `UPDATE mentors SET availability=$1 WHERE id=$2`, availability, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *directoryRepository) CreateStudent(ctx context.Context, req *domain.StudentCreateReq) (*domain.Student, error) {
	const q = `INSERT INTO students (name, availability, area_of_interest)
		VALUES ($1,$2,$3)
		RETURNING ` + studentCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanStudent(r.pool.QueryRow(ctx, q,
		utils.NormalizeString(req.Name), *req.Availability, utils.NormalizeTopic(req.AreaOfInterest),
	))
}

func (r *directoryRepository) ListStudents(ctx context.Context, limit, offset int) ([]domain.Student, error) {
	limit, offset = clampPage(limit, offset)
	const q = `SELECT ` + studentCols + ` FROM students ORDER BY id LIMIT $1 OFFSET $2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []domain.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, *s)
	}
	return students, rows.Err()
}

func (r *directoryRepository) UpdateStudentAvailability(ctx context.Context, id int64, availability domain.Slot) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `UPDATE students SET availability=$1 WHERE id=$2`, availability, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
