package memory

import (
	"context"
	"slices"

	"github.com/hitoshi/tutorhub/internal/model"
	"github.com/hitoshi/tutorhub/internal/repository"
)

type reviewRepo struct {
	do accessor
}

func (r *reviewRepo) find(match func(rv model.Review) bool) (*model.Review, error) {
	var found *model.Review
	err := r.do(func(st *state) error {
		for _, rv := range st.reviews {
			if match(rv) {
				found = &rv
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *reviewRepo) list(match func(rv model.Review) bool) ([]*model.Review, error) {
	var reviews []*model.Review
	err := r.do(func(st *state) error {
		for _, rv := range st.reviews {
			if match(rv) {
				reviews = append(reviews, &rv)
			}
		}
		return nil
	})
	slices.SortFunc(reviews, func(a, b *model.Review) int {
		return compareTimeID(b.CreatedAt, a.CreatedAt, a.ID, b.ID)
	})
	return reviews, err
}

func (r *reviewRepo) FindByID(_ context.Context, id string) (*model.Review, error) {
	return r.find(func(rv model.Review) bool { return rv.ID == id })
}

func (r *reviewRepo) FindByStudentAndTeacher(_ context.Context, studentID, teacherID string) (*model.Review, error) {
	return r.find(func(rv model.Review) bool { return rv.StudentID == studentID && rv.TeacherID == teacherID })
}

func (r *reviewRepo) Create(_ context.Context, review *model.Review) error {
	return r.do(func(st *state) error {
		if _, ok := st.reviews[review.ID]; ok {
			return repository.ErrDuplicate
		}
		for _, rv := range st.reviews {
			if rv.StudentID == review.StudentID && rv.TeacherID == review.TeacherID {
				return repository.ErrDuplicate
			}
		}
		st.reviews[review.ID] = *review
		return nil
	})
}

func (r *reviewRepo) ListByTeacher(_ context.Context, teacherID string) ([]*model.Review, error) {
	return r.list(func(rv model.Review) bool { return rv.TeacherID == teacherID })
}

func (r *reviewRepo) List(_ context.Context, page model.Page) ([]*model.Review, error) {
	reviews, err := r.list(func(model.Review) bool { return true })
	return paginate(reviews, page), err
}

func (r *reviewRepo) DeleteByID(_ context.Context, id string) error {
	return r.do(func(st *state) error {
		if _, ok := st.reviews[id]; !ok {
			return repository.ErrNotFound
		}
		delete(st.reviews, id)
		return nil
	})
}
