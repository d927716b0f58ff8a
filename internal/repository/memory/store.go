// Package memory はプロセス内で完結するGateway実装を提供する。
// PostgreSQL実装と同じ一意制約・比較交換・カスケード削除の振る舞いを持つ。
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/hitoshi/tutorhub/internal/model"
	"github.com/hitoshi/tutorhub/internal/repository"
)

type state struct {
	users     map[string]model.User
	teachers  map[string]model.Teacher
	schedules map[string]model.Schedule
	bookings  map[string]model.Booking
	reviews   map[string]model.Review
}

func newState() *state {
	return &state{
		users:     make(map[string]model.User),
		teachers:  make(map[string]model.Teacher),
		schedules: make(map[string]model.Schedule),
		bookings:  make(map[string]model.Booking),
		reviews:   make(map[string]model.Review),
	}
}

// clone はトランザクション用の作業コピーを作る。
func (s *state) clone() *state {
	c := &state{
		users:     make(map[string]model.User, len(s.users)),
		teachers:  make(map[string]model.Teacher, len(s.teachers)),
		schedules: make(map[string]model.Schedule, len(s.schedules)),
		bookings:  make(map[string]model.Booking, len(s.bookings)),
		reviews:   make(map[string]model.Review, len(s.reviews)),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.teachers {
		v.Subjects = slices.Clone(v.Subjects)
		c.teachers[k] = v
	}
	for k, v := range s.schedules {
		c.schedules[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.reviews {
		c.reviews[k] = v
	}
	return c
}

// accessor は state への排他アクセスを提供する。
type accessor func(fn func(st *state) error) error

// Store はインメモリのGateway実装。
// トランザクションは全体ロックを保持したまま作業コピー上で実行し、成功時のみ差し替える。
// トランザクション内では引数で渡されたStoreのみを使用すること。
type Store struct {
	mu sync.Mutex
	st *state
	repos
}

type repos struct {
	users     *userRepo
	teachers  *teacherRepo
	schedules *scheduleRepo
	bookings  *bookingRepo
	reviews   *reviewRepo
}

func newRepos(do accessor) repos {
	return repos{
		users:     &userRepo{do: do},
		teachers:  &teacherRepo{do: do},
		schedules: &scheduleRepo{do: do},
		bookings:  &bookingRepo{do: do},
		reviews:   &reviewRepo{do: do},
	}
}

func (r repos) Users() repository.UserRepository         { return r.users }
func (r repos) Teachers() repository.TeacherRepository   { return r.teachers }
func (r repos) Schedules() repository.ScheduleRepository { return r.schedules }
func (r repos) Bookings() repository.BookingRepository   { return r.bookings }
func (r repos) Reviews() repository.ReviewRepository     { return r.reviews }

// New は空のStoreを生成する。
func New() *Store {
	s := &Store{st: newState()}
	s.repos = newRepos(func(fn func(st *state) error) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return fn(s.st)
	})
	return s
}

// WithinTx は fn を作業コピー上で実行し、成功した場合のみ反映する。
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, store repository.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	tx := newRepos(func(f func(st *state) error) error { return f(work) })
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.st = work
	return nil
}

// Ping はコンテキストが有効な限り成功する。
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// paginate は page に従ってスライスを切り出す。Limit が0以下の場合は件数を制限しない。
func paginate[T any](items []T, page model.Page) []T {
	offset := page.Offset()
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if page.Limit > 0 && page.Limit < len(items) {
		items = items[:page.Limit]
	}
	return items
}

func compareTimeID(a, b time.Time, aID, bID string) int {
	if c := a.Compare(b); c != 0 {
		return c
	}
	if aID < bID {
		return -1
	}
	if aID > bID {
		return 1
	}
	return 0
}

var _ repository.Gateway = (*Store)(nil)
