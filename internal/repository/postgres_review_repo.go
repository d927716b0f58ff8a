package repository

import (
	"context"
	"fmt"

	"github.com/hitoshi/tutorhub/internal/model"
)

const reviewColumns = `id, student_id, teacher_id, rating, comment, created_at`

// PostgresReviewRepo はPostgreSQLを使用したレビューリポジトリ。
type PostgresReviewRepo struct {
	db DBTX
}

// NewPostgresReviewRepo はPostgresReviewRepoを生成する。
func NewPostgresReviewRepo(db DBTX) *PostgresReviewRepo {
	return &PostgresReviewRepo{db: db}
}

func scanReview(row rowScanner) (*model.Review, error) {
	rv := &model.Review{}
	if err := row.Scan(&rv.ID, &rv.StudentID, &rv.TeacherID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
		return nil, err
	}
	return rv, nil
}

func (r *PostgresReviewRepo) findOne(ctx context.Context, query string, args ...any) (*model.Review, error) {
	rv, err := scanReview(r.db.QueryRowContext(ctx, query, args...))
	if isNoRows(err) {
		return nil, nil
	}
	return rv, err
}

func (r *PostgresReviewRepo) query(ctx context.Context, query string, args ...any) ([]*model.Review, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []*model.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

// FindByID は指定IDのレビューを取得する。見つからない場合はnilを返す。
func (r *PostgresReviewRepo) FindByID(ctx context.Context, id string) (*model.Review, error) {
	rv, err := r.findOne(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find review by ID: %w", err)
	}
	return rv, nil
}

// FindByStudentAndTeacher は生徒と講師の組のレビューを取得する。見つからない場合はnilを返す。
func (r *PostgresReviewRepo) FindByStudentAndTeacher(ctx context.Context, studentID, teacherID string) (*model.Review, error) {
	rv, err := r.findOne(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE student_id = $1 AND teacher_id = $2`,
		studentID, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to find review by student and teacher: %w", err)
	}
	return rv, nil
}

// Create はレビューを作成する。
func (r *PostgresReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reviews (`+reviewColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		rv.ID, rv.StudentID, rv.TeacherID, rv.Rating, rv.Comment, rv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert review: %w", translateError(err))
	}
	return nil
}

// ListByTeacher は講師のレビューを作成日時の降順で返す。
func (r *PostgresReviewRepo) ListByTeacher(ctx context.Context, teacherID string) ([]*model.Review, error) {
	reviews, err := r.query(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE teacher_id = $1 ORDER BY created_at DESC, id`, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews by teacher: %w", err)
	}
	return reviews, nil
}

// List は全レビューを作成日時の降順で返す。
func (r *PostgresReviewRepo) List(ctx context.Context, page model.Page) ([]*model.Review, error) {
	reviews, err := r.query(ctx,
		`SELECT `+reviewColumns+` FROM reviews ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`,
		limitArg(page), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// DeleteByID は指定IDのレビューを削除する。
func (r *PostgresReviewRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", translateError(err))
	}
	return checkAffected(result)
}

// compile-time interface check
var _ ReviewRepository = (*PostgresReviewRepo)(nil)
