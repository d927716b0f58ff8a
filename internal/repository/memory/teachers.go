package memory

import (
	"context"
	"slices"

	"github.com/hitoshi/tutorhub/internal/model"
	"github.com/hitoshi/tutorhub/internal/repository"
)

type teacherRepo struct {
	do accessor
}

func copyTeacher(t model.Teacher) *model.Teacher {
	t.Subjects = slices.Clone(t.Subjects)
	return &t
}

func (r *teacherRepo) FindByID(_ context.Context, id string) (*model.Teacher, error) {
	var found *model.Teacher
	err := r.do(func(st *state) error {
		if t, ok := st.teachers[id]; ok {
			found = copyTeacher(t)
		}
		return nil
	})
	return found, err
}

func (r *teacherRepo) FindByUserID(_ context.Context, userID string) (*model.Teacher, error) {
	var found *model.Teacher
	err := r.do(func(st *state) error {
		for _, t := range st.teachers {
			if t.UserID == userID {
				found = copyTeacher(t)
				return nil
			}
		}
		return nil
	})
	return found, err
}

func withUser(st *state, t model.Teacher) model.TeacherWithUser {
	tw := model.TeacherWithUser{Teacher: *copyTeacher(t)}
	if u, ok := st.users[t.UserID]; ok {
		tw.Name = u.Name
		tw.Email = u.Email
	}
	sum := 0
	for _, rv := range st.reviews {
		if rv.TeacherID == t.ID {
			sum += rv.Rating
			tw.ReviewCount++
		}
	}
	if tw.ReviewCount > 0 {
		tw.AverageRating = float64(sum) / float64(tw.ReviewCount)
	}
	return tw
}

func (r *teacherRepo) FindWithUser(_ context.Context, id string) (*model.TeacherWithUser, error) {
	var found *model.TeacherWithUser
	err := r.do(func(st *state) error {
		if t, ok := st.teachers[id]; ok {
			tw := withUser(st, t)
			found = &tw
		}
		return nil
	})
	return found, err
}

func (r *teacherRepo) LockByID(_ context.Context, id string) error {
	return r.do(func(st *state) error {
		if _, ok := st.teachers[id]; !ok {
			return repository.ErrNotFound
		}
		return nil
	})
}

func (r *teacherRepo) Create(_ context.Context, teacher *model.Teacher) error {
	return r.do(func(st *state) error {
		if _, ok := st.teachers[teacher.ID]; ok {
			return repository.ErrDuplicate
		}
		for _, t := range st.teachers {
			if t.UserID == teacher.UserID {
				return repository.ErrDuplicate
			}
		}
		st.teachers[teacher.ID] = *copyTeacher(*teacher)
		return nil
	})
}

func (r *teacherRepo) Update(_ context.Context, teacher *model.Teacher) error {
	return r.do(func(st *state) error {
		cur, ok := st.teachers[teacher.ID]
		if !ok {
			return repository.ErrNotFound
		}
		cur.Subjects = slices.Clone(teacher.Subjects)
		cur.HourlyRate = teacher.HourlyRate
		cur.Description = teacher.Description
		cur.UpdatedAt = teacher.UpdatedAt
		st.teachers[teacher.ID] = cur
		return nil
	})
}

func (r *teacherRepo) List(_ context.Context, filter repository.TeacherFilter) ([]model.TeacherWithUser, error) {
	var teachers []model.TeacherWithUser
	err := r.do(func(st *state) error {
		for _, t := range st.teachers {
			if filter.Subject != "" && !t.HasSubject(filter.Subject) {
				continue
			}
			teachers = append(teachers, withUser(st, t))
		}
		return nil
	})
	slices.SortFunc(teachers, func(a, b model.TeacherWithUser) int {
		return compareTimeID(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return paginate(teachers, filter.Page), err
}
