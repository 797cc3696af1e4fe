package repository

import (
	"context"
	"errors"
	"time"

	"github.com/diagnosis/mentor-bookings/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrSlotTaken is returned by Insert when the mentor already holds a booking
// at the same scheduled time.
var ErrSlotTaken = errors.New("mentor slot already booked")

const (
	uniqueViolation      = "23505"
	mentorSlotConstraint = "bookings_mentor_slot_key"
)

// BookingLedger owns committed bookings.
type BookingLedger interface {
	FindByMentorAndTime(ctx context.Context, mentorID int64, at domain.Slot) ([]domain.Booking, error)
	Insert(ctx context.Context, b *domain.Booking) (*domain.Booking, error)
	// Delete removes a booking and returns it, or (nil, nil) if it was
	// already gone.
	Delete(ctx context.Context, id int64) (*domain.Booking, error)
	FindByStudent(ctx context.Context, studentID int64) ([]domain.BookingView, error)
	FindByMentor(ctx context.Context, mentorID int64) ([]domain.BookingView, error)
}

// DB is the slice of *pgxpool.Pool the repositories use.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type bookingRepository struct {
	pool DB
}

func NewBookingRepository(pool DB) BookingLedger {
	return &bookingRepository{pool: pool}
}

const bookingCols = `id, reference, student_id, mentor_id,
scheduled_time, duration, session_cost, created_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.Reference, &b.StudentID, &b.MentorID,
		&b.ScheduledTime, &b.Duration, &b.SessionCost, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) FindByMentorAndTime(ctx context.Context, mentorID int64, at domain.Slot) ([]domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE mentor_id=$1 AND scheduled_time=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, mentorID, at)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *bookingRepository) Insert(ctx context.Context, in *domain.Booking) (*domain.Booking, error) {
	const q = `INSERT INTO bookings (
		reference, student_id, mentor_id, scheduled_time, duration, session_cost
	) VALUES ($1,$2,$3,$4,$5,$6)
	RETURNING ` + bookingCols

	ref := in.Reference
	if ref == uuid.Nil {
		ref = uuid.New()
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q,
		ref, in.StudentID, in.MentorID, in.ScheduledTime, in.Duration, in.SessionCost,
	))
	if err != nil {
		return nil, mapInsertErr(err)
	}
	return b, nil
}

// mapInsertErr turns a unique violation on the mentor slot into ErrSlotTaken
// and passes every other error through.
func mapInsertErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == mentorSlotConstraint {
		return ErrSlotTaken
	}
	return err
}

func (r *bookingRepository) Delete(ctx context.Context, id int64) (*domain.Booking, error) {
	const q = `DELETE FROM bookings WHERE id=$1 RETURNING ` + bookingCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

const bookingViewSelect = `SELECT
	b.id, b.student_id, s.name, b.mentor_id, m.name,
	b.scheduled_time, b.duration, b.session_cost
FROM bookings b
INNER JOIN students s ON b.student_id = s.id
INNER JOIN mentors m ON b.mentor_id = m.id`

func (r *bookingRepository) FindByStudent(ctx context.Context, studentID int64) ([]domain.BookingView, error) {
	return r.listViews(ctx, bookingViewSelect+` WHERE b.student_id=$1 ORDER BY b.scheduled_time`, studentID)
}

func (r *bookingRepository) FindByMentor(ctx context.Context, mentorID int64) ([]domain.BookingView, error) {
	return r.listViews(ctx, bookingViewSelect+` WHERE b.mentor_id=$1 ORDER BY b.scheduled_time`, mentorID)
}

func (r *bookingRepository) listViews(ctx context.Context, q string, id int64) ([]domain.BookingView, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views := []domain.BookingView{}
	for rows.Next() {
		var v domain.BookingView
		if err := rows.Scan(
			&v.BookingID, &v.StudentID, &v.StudentName, &v.MentorID, &v.MentorName,
			&v.ScheduledTime, &v.Duration, &v.SessionCost,
		); err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, rows.Err()
}
