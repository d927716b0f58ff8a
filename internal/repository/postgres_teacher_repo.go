package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/tutorhub/internal/model"
)

const teacherColumns = `t.id, t.user_id, t.subjects, t.hourly_rate, t.description, t.created_at, t.updated_at`

// teacherWithUserQuery は講師にユーザー情報とレビュー集計を結合する。
const teacherWithUserQuery = `
	SELECT ` + teacherColumns + `, u.name, u.email,
	       COALESCE(rv.avg_rating, 0), COALESCE(rv.review_count, 0)
	FROM teachers t
	JOIN users u ON u.id = t.user_id
	LEFT JOIN (
		SELECT teacher_id, AVG(rating)::float8 AS avg_rating, COUNT(*) AS review_count
		FROM reviews GROUP BY teacher_id
	) rv ON rv.teacher_id = t.id`

// PostgresTeacherRepo はPostgreSQLを使用した講師リポジトリ。
type PostgresTeacherRepo struct {
	db DBTX
}

// NewPostgresTeacherRepo はPostgresTeacherRepoを生成する。
func NewPostgresTeacherRepo(db DBTX) *PostgresTeacherRepo {
	return &PostgresTeacherRepo{db: db}
}

func teacherDest(t *model.Teacher, subjects *[]string) []any {
	return []any{&t.ID, &t.UserID, pq.Array(subjects), &t.HourlyRate, &t.Description, &t.CreatedAt, &t.UpdatedAt}
}

func toSubjects(raw []string) []model.Subject {
	subjects := make([]model.Subject, 0, len(raw))
	for _, s := range raw {
		subjects = append(subjects, model.Subject(s))
	}
	return subjects
}

func fromSubjects(subjects []model.Subject) []string {
	raw := make([]string, 0, len(subjects))
	for _, s := range subjects {
		raw = append(raw, string(s))
	}
	return raw
}

func (r *PostgresTeacherRepo) findOne(ctx context.Context, where string, arg string) (*model.Teacher, error) {
	teacher := &model.Teacher{}
	var subjects []string
	err := r.db.QueryRowContext(ctx,
		`SELECT `+teacherColumns+` FROM teachers t WHERE `+where, arg,
	).Scan(teacherDest(teacher, &subjects)...)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	teacher.Subjects = toSubjects(subjects)
	return teacher, nil
}

// FindByID は指定IDの講師を取得する。見つからない場合はnilを返す。
func (r *PostgresTeacherRepo) FindByID(ctx context.Context, id string) (*model.Teacher, error) {
	teacher, err := r.findOne(ctx, `t.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find teacher by ID: %w", err)
	}
	return teacher, nil
}

// FindByUserID はユーザーIDで講師を取得する。見つからない場合はnilを返す。
func (r *PostgresTeacherRepo) FindByUserID(ctx context.Context, userID string) (*model.Teacher, error) {
	teacher, err := r.findOne(ctx, `t.user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find teacher by user ID: %w", err)
	}
	return teacher, nil
}

func scanTeacherWithUser(row rowScanner) (model.TeacherWithUser, error) {
	var tw model.TeacherWithUser
	var subjects []string
	dest := append(teacherDest(&tw.Teacher, &subjects), &tw.Name, &tw.Email, &tw.AverageRating, &tw.ReviewCount)
	if err := row.Scan(dest...); err != nil {
		return tw, err
	}
	tw.Subjects = toSubjects(subjects)
	return tw, nil
}

// FindWithUser は講師をユーザー情報と評価集計付きで取得する。見つからない場合はnilを返す。
func (r *PostgresTeacherRepo) FindWithUser(ctx context.Context, id string) (*model.TeacherWithUser, error) {
	tw, err := scanTeacherWithUser(r.db.QueryRowContext(ctx, teacherWithUserQuery+` WHERE t.id = $1`, id))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find teacher with user: %w", err)
	}
	return &tw, nil
}

// LockByID は講師行を排他ロックする。
func (r *PostgresTeacherRepo) LockByID(ctx context.Context, id string) error {
	return lockRow(ctx, r.db, "teachers", id)
}

// Create は講師プロフィールを作成する。
func (r *PostgresTeacherRepo) Create(ctx context.Context, teacher *model.Teacher) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO teachers (id, user_id, subjects, hourly_rate, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		teacher.ID, teacher.UserID, pq.Array(fromSubjects(teacher.Subjects)),
		teacher.HourlyRate, teacher.Description, teacher.CreatedAt, teacher.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert teacher: %w", translateError(err))
	}
	return nil
}

// Update は科目、時給、紹介文を更新する。
func (r *PostgresTeacherRepo) Update(ctx context.Context, teacher *model.Teacher) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE teachers SET subjects = $2, hourly_rate = $3, description = $4, updated_at = $5
		 WHERE id = $1`,
		teacher.ID, pq.Array(fromSubjects(teacher.Subjects)), teacher.HourlyRate, teacher.Description, teacher.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update teacher: %w", err)
	}
	return checkAffected(result)
}

// List は講師一覧をユーザー情報と評価集計付きで返す。
func (r *PostgresTeacherRepo) List(ctx context.Context, filter TeacherFilter) ([]model.TeacherWithUser, error) {
	rows, err := r.db.QueryContext(ctx,
		teacherWithUserQuery+`
		WHERE ($1::text = '' OR $1 = ANY(t.subjects))
		ORDER BY t.created_at, t.id
		LIMIT $2 OFFSET $3`,
		string(filter.Subject), limitArg(filter.Page), filter.Page.Offset(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list teachers: %w", err)
	}
	defer rows.Close()

	var teachers []model.TeacherWithUser
	for rows.Next() {
		tw, err := scanTeacherWithUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan teacher: %w", err)
		}
		teachers = append(teachers, tw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate teachers: %w", err)
	}
	return teachers, nil
}

// compile-time interface check
var _ TeacherRepository = (*PostgresTeacherRepo)(nil)
