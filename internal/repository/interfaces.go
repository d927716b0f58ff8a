// Package repository はデータ永続化のインターフェースを定義する。
// 業務ルールは持たず、型付きのCRUDとトランザクション境界のみを提供する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/tutorhub/internal/model"
)

var (
	// ErrNotFound は更新・削除対象の行が存在しないことを表す。
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicate は一意制約違反を表す。
	ErrDuplicate = errors.New("repository: duplicate")
	// ErrOverlap は時間枠の排他制約違反を表す。
	ErrOverlap = errors.New("repository: overlapping schedule")
)

// UserFilter はユーザー一覧の絞り込み条件。Role が空なら全ロール。
type UserFilter struct {
	Role model.Role
	Page model.Page
}

// TeacherFilter は講師一覧の絞り込み条件。Subject が空なら全科目。
type TeacherFilter struct {
	Subject model.Subject
	Page    model.Page
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// LockByID はトランザクション終了までユーザー行を排他ロックする。
	// 存在しない場合はErrNotFoundを返す。
	LockByID(ctx context.Context, id string) error

	// Create はユーザーを作成する。メールアドレス重複時はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error

	// List はユーザー一覧を作成日時の降順で返す。
	List(ctx context.Context, filter UserFilter) ([]*model.User, error)

	// DeleteByID は指定IDのユーザーを削除する。
	// 講師プロフィール、予約、レビューはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// TeacherRepository は講師プロフィールの永続化インターフェース。
type TeacherRepository interface {
	// FindByID は指定IDの講師を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Teacher, error)

	// FindByUserID はユーザーIDで講師を取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.Teacher, error)

	// FindWithUser は講師をユーザー情報と評価集計付きで取得する。見つからない場合はnilを返す。
	FindWithUser(ctx context.Context, id string) (*model.TeacherWithUser, error)

	// LockByID はトランザクション終了まで講師行を排他ロックする。
	// 存在しない場合はErrNotFoundを返す。
	LockByID(ctx context.Context, id string) error

	// Create は講師プロフィールを作成する。同一ユーザーの重複時はErrDuplicateを返す。
	Create(ctx context.Context, teacher *model.Teacher) error

	// Update は科目、時給、紹介文を更新する。
	Update(ctx context.Context, teacher *model.Teacher) error

	// List は講師一覧をユーザー情報と評価集計付きで返す。
	List(ctx context.Context, filter TeacherFilter) ([]model.TeacherWithUser, error)
}

// ScheduleRepository は時間枠の永続化インターフェース。
type ScheduleRepository interface {
	// FindByID は指定IDの時間枠を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Schedule, error)

	// ListByTeacher は講師の時間枠を開始時刻順に返す。
	// from/to がゼロ値の場合はその方向に制限しない。開始時刻が [from, to) にある枠を返す。
	ListByTeacher(ctx context.Context, teacherID string, from, to time.Time) ([]*model.Schedule, error)

	// ExistsOverlap は講師の時間枠に iv と重なるものがあるかを返す。端点の接触も重なりとみなす。
	ExistsOverlap(ctx context.Context, teacherID string, iv model.Interval) (bool, error)

	// FindContaining は iv を完全に含む講師の時間枠を返す。
	// booked が nil でなければ予約状態も一致するものに限る。見つからない場合はnilを返す。
	FindContaining(ctx context.Context, teacherID string, iv model.Interval, booked *bool) (*model.Schedule, error)

	// Create は時間枠を作成する。排他制約違反時はErrOverlapを返す。
	Create(ctx context.Context, schedule *model.Schedule) error

	// SetBooked は予約状態を from から to へ比較交換で更新する。
	// 現在の状態が from でない場合は false を返す。
	SetBooked(ctx context.Context, id string, from, to bool) (bool, error)

	// DeleteIfFree は未予約の時間枠を削除する。予約済みまたは存在しない場合は false を返す。
	DeleteIfFree(ctx context.Context, id string) (bool, error)
}

// BookingRepository は予約の永続化インターフェース。
type BookingRepository interface {
	// FindByID は指定IDの予約を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Booking, error)

	// Create は予約を作成する。
	Create(ctx context.Context, booking *model.Booking) error

	// ListByStudent は生徒の予約を開始時刻順に返す。
	ListByStudent(ctx context.Context, studentID string) ([]*model.Booking, error)

	// ListByTeacher は講師の予約を開始時刻順に返す。
	ListByTeacher(ctx context.Context, teacherID string) ([]*model.Booking, error)

	// List は全予約を作成日時の降順で返す。
	List(ctx context.Context, page model.Page) ([]*model.Booking, error)

	// ExistsActiveOverlap は生徒のキャンセル以外の予約に iv と重なるものがあるかを返す。
	ExistsActiveOverlap(ctx context.Context, studentID string, iv model.Interval) (bool, error)

	// ExistsCompleted は生徒と講師の組に完了済み予約があるかを返す。
	ExistsCompleted(ctx context.Context, studentID, teacherID string) (bool, error)

	// UpdateStatus は状態を from から to へ比較交換で更新する。
	// 現在の状態が from でない場合は false を返す。
	UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus, updatedAt time.Time) (bool, error)

	// DeleteByID は指定IDの予約を削除する。存在しない場合はErrNotFoundを返す。
	DeleteByID(ctx context.Context, id string) error
}

// ReviewRepository はレビューの永続化インターフェース。
type ReviewRepository interface {
	// FindByID は指定IDのレビューを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Review, error)

	// FindByStudentAndTeacher は生徒と講師の組のレビューを取得する。見つからない場合はnilを返す。
	FindByStudentAndTeacher(ctx context.Context, studentID, teacherID string) (*model.Review, error)

	// Create はレビューを作成する。同じ組のレビューが存在する場合はErrDuplicateを返す。
	Create(ctx context.Context, review *model.Review) error

	// ListByTeacher は講師のレビューを作成日時の降順で返す。
	ListByTeacher(ctx context.Context, teacherID string) ([]*model.Review, error)

	// List は全レビューを作成日時の降順で返す。
	List(ctx context.Context, page model.Page) ([]*model.Review, error)

	// DeleteByID は指定IDのレビューを削除する。存在しない場合はErrNotFoundを返す。
	DeleteByID(ctx context.Context, id string) error
}

// Store は各リポジトリへのアクセスを束ねる。
// トランザクション内で渡されたStoreの操作はすべて同じトランザクションで実行される。
type Store interface {
	Users() UserRepository
	Teachers() TeacherRepository
	Schedules() ScheduleRepository
	Bookings() BookingRepository
	Reviews() ReviewRepository
}

// Transactor はトランザクション境界を提供する。
// fn がエラーを返した場合はロールバックし、そのエラーをそのまま返す。
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}

// Gateway は永続化層の入口。
type Gateway interface {
	Store
	Transactor
	Ping(ctx context.Context) error
}
