package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/tutorhub/internal/model"
)

// PostgreSQLのエラーコード
const (
	pqUniqueViolation    = "23505"
	pqExclusionViolation = "23P01"
	// UUID列に不正な文字列を渡した場合に返る
	pqInvalidTextRepresentation = "22P02"
)

// DBTX は *sql.DB と *sql.Tx の共通インターフェース。
// リポジトリはこれを介してクエリを発行するため、トランザクションの内外で同じ実装を使える。
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore はPostgreSQLを使用したGateway実装。
type PostgresStore struct {
	db *sql.DB
	postgresRepos
}

type postgresRepos struct {
	users     *PostgresUserRepo
	teachers  *PostgresTeacherRepo
	schedules *PostgresScheduleRepo
	bookings  *PostgresBookingRepo
	reviews   *PostgresReviewRepo
}

func newPostgresRepos(q DBTX) postgresRepos {
	return postgresRepos{
		users:     NewPostgresUserRepo(q),
		teachers:  NewPostgresTeacherRepo(q),
		schedules: NewPostgresScheduleRepo(q),
		bookings:  NewPostgresBookingRepo(q),
		reviews:   NewPostgresReviewRepo(q),
	}
}

func (r postgresRepos) Users() UserRepository         { return r.users }
func (r postgresRepos) Teachers() TeacherRepository   { return r.teachers }
func (r postgresRepos) Schedules() ScheduleRepository { return r.schedules }
func (r postgresRepos) Bookings() BookingRepository   { return r.bookings }
func (r postgresRepos) Reviews() ReviewRepository     { return r.reviews }

// NewPostgresStore はPostgresStoreを生成する。
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, postgresRepos: newPostgresRepos(db)}
}

// WithinTx はトランザクションを開始し、fn にトランザクション内のStoreを渡す。
// fn が成功した場合のみコミットする。
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, newPostgresRepos(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Ping はデータベースへの接続を確認する。
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// translateError はPostgreSQLの制約違反をリポジトリのセンチネルエラーに変換する。
func translateError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch string(pqErr.Code) {
	case pqUniqueViolation:
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
	case pqExclusionViolation:
		return fmt.Errorf("%w: %s", ErrOverlap, pqErr.Constraint)
	case pqInvalidTextRepresentation:
		return ErrNotFound
	}
	return err
}

// isNoRows は該当行がないことを表すエラーかを返す。
// UUIDとして解釈できないIDはどの行にも一致しないため、該当なしとして扱う。
func isNoRows(err error) bool {
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqInvalidTextRepresentation
}

// lockRow は指定テーブルの行を FOR UPDATE でロックする。
func lockRow(ctx context.Context, q DBTX, table, id string) error {
	var locked string
	err := q.QueryRowContext(ctx,
		`SELECT id FROM `+table+` WHERE id = $1 FOR UPDATE`,
		id,
	).Scan(&locked)
	if isNoRows(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock %s row: %w", table, err)
	}
	return nil
}

// checkAffected は更新行数が0の場合にErrNotFoundを返す。
func checkAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// swapped は比較交換の更新が1行に適用されたかを返す。
func swapped(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n == 1, nil
}

// limitArg はLIMIT句の値を返す。Limit が0以下の場合は件数を制限しない。
func limitArg(p model.Page) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(p.Limit), Valid: p.Limit > 0}
}

var _ Gateway = (*PostgresStore)(nil)
