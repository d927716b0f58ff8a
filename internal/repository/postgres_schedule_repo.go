package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/tutorhub/internal/model"
)

const scheduleColumns = `id, teacher_id, start_time, end_time, is_booked, created_at`

// PostgresScheduleRepo はPostgreSQLを使用した時間枠リポジトリ。
type PostgresScheduleRepo struct {
	db DBTX
}

// NewPostgresScheduleRepo はPostgresScheduleRepoを生成する。
func NewPostgresScheduleRepo(db DBTX) *PostgresScheduleRepo {
	return &PostgresScheduleRepo{db: db}
}

func scanSchedule(row rowScanner) (*model.Schedule, error) {
	s := &model.Schedule{}
	if err := row.Scan(&s.ID, &s.TeacherID, &s.StartTime, &s.EndTime, &s.IsBooked, &s.CreatedAt); err != nil {
		return nil, err
	}
	return s, nil
}

// FindByID は指定IDの時間枠を取得する。見つからない場合はnilを返す。
func (r *PostgresScheduleRepo) FindByID(ctx context.Context, id string) (*model.Schedule, error) {
	s, err := scanSchedule(r.db.QueryRowContext(ctx,
		`SELECT `+scheduleColumns+` FROM schedules WHERE id = $1`, id))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find schedule by ID: %w", err)
	}
	return s, nil
}

// ListByTeacher は講師の時間枠を開始時刻順に返す。
func (r *PostgresScheduleRepo) ListByTeacher(ctx context.Context, teacherID string, from, to time.Time) ([]*model.Schedule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+scheduleColumns+` FROM schedules
		 WHERE teacher_id = $1
		   AND ($2::timestamptz IS NULL OR start_time >= $2)
		   AND ($3::timestamptz IS NULL OR start_time < $3)
		 ORDER BY start_time`,
		teacherID, nullTime(from), nullTime(to),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*model.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		schedules = append(schedules, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schedules: %w", err)
	}
	return schedules, nil
}

// ExistsOverlap は講師の時間枠に iv と重なるものがあるかを返す。
func (r *PostgresScheduleRepo) ExistsOverlap(ctx context.Context, teacherID string, iv model.Interval) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM schedules
			WHERE teacher_id = $1 AND start_time <= $3 AND end_time >= $2
		)`,
		teacherID, iv.Start, iv.End,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check schedule overlap: %w", err)
	}
	return exists, nil
}

// FindContaining は iv を完全に含む講師の時間枠を返す。見つからない場合はnilを返す。
func (r *PostgresScheduleRepo) FindContaining(ctx context.Context, teacherID string, iv model.Interval, booked *bool) (*model.Schedule, error) {
	s, err := scanSchedule(r.db.QueryRowContext(ctx,
		`SELECT `+scheduleColumns+` FROM schedules
		 WHERE teacher_id = $1 AND start_time <= $2 AND end_time >= $3
		   AND ($4::boolean IS NULL OR is_booked = $4)
		 ORDER BY start_time
		 LIMIT 1`,
		teacherID, iv.Start, iv.End, nullBool(booked),
	))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find containing schedule: %w", err)
	}
	return s, nil
}

// Create は時間枠を作成する。
func (r *PostgresScheduleRepo) Create(ctx context.Context, s *model.Schedule) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO schedules (`+scheduleColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.TeacherID, s.StartTime, s.EndTime, s.IsBooked, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert schedule: %w", translateError(err))
	}
	return nil
}

// SetBooked は予約状態を比較交換で更新する。
func (r *PostgresScheduleRepo) SetBooked(ctx context.Context, id string, from, to bool) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE schedules SET is_booked = $3 WHERE id = $1 AND is_booked = $2`,
		id, from, to,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update schedule booking state: %w", err)
	}
	return swapped(result)
}

// DeleteIfFree は未予約の時間枠を削除する。
func (r *PostgresScheduleRepo) DeleteIfFree(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM schedules WHERE id = $1 AND is_booked = false`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete schedule: %w", err)
	}
	return swapped(result)
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

// compile-time interface check
var _ ScheduleRepository = (*PostgresScheduleRepo)(nil)
