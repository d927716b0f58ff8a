package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/tutorhub/internal/model"
)

const bookingColumns = `id, student_id, teacher_id, schedule_id, start_time, end_time, status, created_at, updated_at`

// PostgresBookingRepo はPostgreSQLを使用した予約リポジトリ。
type PostgresBookingRepo struct {
	db DBTX
}

// NewPostgresBookingRepo はPostgresBookingRepoを生成する。
func NewPostgresBookingRepo(db DBTX) *PostgresBookingRepo {
	return &PostgresBookingRepo{db: db}
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	b := &model.Booking{}
	var scheduleID sql.NullString
	var status string
	if err := row.Scan(&b.ID, &b.StudentID, &b.TeacherID, &scheduleID, &b.StartTime, &b.EndTime, &status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.ScheduleID = scheduleID.String
	b.Status = model.BookingStatus(status)
	return b, nil
}

func (r *PostgresBookingRepo) query(ctx context.Context, query string, args ...any) ([]*model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// FindByID は指定IDの予約を取得する。見つからない場合はnilを返す。
func (r *PostgresBookingRepo) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return b, nil
}

// Create は予約を作成する。
func (r *PostgresBookingRepo) Create(ctx context.Context, b *model.Booking) error {
	scheduleID := sql.NullString{String: b.ScheduleID, Valid: b.ScheduleID != ""}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bookings (`+bookingColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		b.ID, b.StudentID, b.TeacherID, scheduleID, b.StartTime, b.EndTime, string(b.Status), b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", translateError(err))
	}
	return nil
}

// ListByStudent は生徒の予約を開始時刻順に返す。
func (r *PostgresBookingRepo) ListByStudent(ctx context.Context, studentID string) ([]*model.Booking, error) {
	bookings, err := r.query(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE student_id = $1 ORDER BY start_time, id`, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings by student: %w", err)
	}
	return bookings, nil
}

// ListByTeacher は講師の予約を開始時刻順に返す。
func (r *PostgresBookingRepo) ListByTeacher(ctx context.Context, teacherID string) ([]*model.Booking, error) {
	bookings, err := r.query(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE teacher_id = $1 ORDER BY start_time, id`, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings by teacher: %w", err)
	}
	return bookings, nil
}

// List は全予約を作成日時の降順で返す。
func (r *PostgresBookingRepo) List(ctx context.Context, page model.Page) ([]*model.Booking, error) {
	bookings, err := r.query(ctx,
		`SELECT `+bookingColumns+` FROM bookings ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`,
		limitArg(page), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// ExistsActiveOverlap は生徒のキャンセル以外の予約に iv と重なるものがあるかを返す。
func (r *PostgresBookingRepo) ExistsActiveOverlap(ctx context.Context, studentID string, iv model.Interval) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE student_id = $1 AND status <> $4
			  AND start_time <= $3 AND end_time >= $2
		)`,
		studentID, iv.Start, iv.End, string(model.BookingCancelled),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check booking overlap: %w", err)
	}
	return exists, nil
}

// ExistsCompleted は生徒と講師の組に完了済み予約があるかを返す。
func (r *PostgresBookingRepo) ExistsCompleted(ctx context.Context, studentID, teacherID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM bookings WHERE student_id = $1 AND teacher_id = $2 AND status = $3
		)`,
		studentID, teacherID, string(model.BookingCompleted),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check completed booking: %w", err)
	}
	return exists, nil
}

// UpdateStatus は状態を比較交換で更新する。
func (r *PostgresBookingRepo) UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus, updatedAt time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`,
		id, string(from), string(to), updatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update booking status: %w", err)
	}
	return swapped(result)
}

// DeleteByID は指定IDの予約を削除する。
func (r *PostgresBookingRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", translateError(err))
	}
	return checkAffected(result)
}

// compile-time interface check
var _ BookingRepository = (*PostgresBookingRepo)(nil)
