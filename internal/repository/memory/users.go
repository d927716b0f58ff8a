package memory

import (
	"context"
	"slices"

	"github.com/hitoshi/tutorhub/internal/model"
	"github.com/hitoshi/tutorhub/internal/repository"
)

type userRepo struct {
	do accessor
}

func (r *userRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	var found *model.User
	err := r.do(func(st *state) error {
		if u, ok := st.users[id]; ok {
			found = &u
		}
		return nil
	})
	return found, err
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	var found *model.User
	err := r.do(func(st *state) error {
		for _, u := range st.users {
			if u.Email == email {
				found = &u
				return nil
			}
		}
		return nil
	})
	return found, err
}

// LockByID はトランザクションが全体ロックで直列化されるため存在確認のみ行う。
func (r *userRepo) LockByID(_ context.Context, id string) error {
	return r.do(func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return repository.ErrNotFound
		}
		return nil
	})
}

func (r *userRepo) Create(_ context.Context, user *model.User) error {
	return r.do(func(st *state) error {
		if _, ok := st.users[user.ID]; ok {
			return repository.ErrDuplicate
		}
		for _, u := range st.users {
			if u.Email == user.Email {
				return repository.ErrDuplicate
			}
		}
		st.users[user.ID] = *user
		return nil
	})
}

func (r *userRepo) List(_ context.Context, filter repository.UserFilter) ([]*model.User, error) {
	var users []*model.User
	err := r.do(func(st *state) error {
		for _, u := range st.users {
			if filter.Role != "" && u.Role != filter.Role {
				continue
			}
			users = append(users, &u)
		}
		return nil
	})
	slices.SortFunc(users, func(a, b *model.User) int {
		return compareTimeID(b.CreatedAt, a.CreatedAt, a.ID, b.ID)
	})
	return paginate(users, filter.Page), err
}

// DeleteByID はユーザーと、外部キーのCASCADEで消える行をまとめて削除する。
func (r *userRepo) DeleteByID(_ context.Context, id string) error {
	return r.do(func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return repository.ErrNotFound
		}
		delete(st.users, id)
		for tid, t := range st.teachers {
			if t.UserID == id {
				deleteTeacher(st, tid)
			}
		}
		for bid, b := range st.bookings {
			if b.StudentID == id {
				delete(st.bookings, bid)
			}
		}
		for rid, rv := range st.reviews {
			if rv.StudentID == id {
				delete(st.reviews, rid)
			}
		}
		return nil
	})
}

func deleteTeacher(st *state, teacherID string) {
	delete(st.teachers, teacherID)
	for sid, s := range st.schedules {
		if s.TeacherID == teacherID {
			delete(st.schedules, sid)
		}
	}
	for bid, b := range st.bookings {
		if b.TeacherID == teacherID {
			delete(st.bookings, bid)
		}
	}
	for rid, rv := range st.reviews {
		if rv.TeacherID == teacherID {
			delete(st.reviews, rid)
		}
	}
}
