package memory

import (
	"context"
	"slices"
	"time"

	"github.com/hitoshi/tutorhub/internal/model"
	"github.com/hitoshi/tutorhub/internal/repository"
)

type bookingRepo struct {
	do accessor
}

func (r *bookingRepo) FindByID(_ context.Context, id string) (*model.Booking, error) {
	var found *model.Booking
	err := r.do(func(st *state) error {
		if b, ok := st.bookings[id]; ok {
			found = &b
		}
		return nil
	})
	return found, err
}

func (r *bookingRepo) Create(_ context.Context, booking *model.Booking) error {
	return r.do(func(st *state) error {
		if _, ok := st.bookings[booking.ID]; ok {
			return repository.ErrDuplicate
		}
		st.bookings[booking.ID] = *booking
		return nil
	})
}

func (r *bookingRepo) filter(match func(b model.Booking) bool) ([]*model.Booking, error) {
	var bookings []*model.Booking
	err := r.do(func(st *state) error {
		for _, b := range st.bookings {
			if match(b) {
				bookings = append(bookings, &b)
			}
		}
		return nil
	})
	slices.SortFunc(bookings, func(a, b *model.Booking) int {
		return compareTimeID(a.StartTime, b.StartTime, a.ID, b.ID)
	})
	return bookings, err
}

func (r *bookingRepo) ListByStudent(_ context.Context, studentID string) ([]*model.Booking, error) {
	return r.filter(func(b model.Booking) bool { return b.StudentID == studentID })
}

func (r *bookingRepo) ListByTeacher(_ context.Context, teacherID string) ([]*model.Booking, error) {
	return r.filter(func(b model.Booking) bool { return b.TeacherID == teacherID })
}

func (r *bookingRepo) List(_ context.Context, page model.Page) ([]*model.Booking, error) {
	bookings, err := r.filter(func(model.Booking) bool { return true })
	slices.SortFunc(bookings, func(a, b *model.Booking) int {
		return compareTimeID(b.CreatedAt, a.CreatedAt, a.ID, b.ID)
	})
	return paginate(bookings, page), err
}

func (r *bookingRepo) ExistsActiveOverlap(_ context.Context, studentID string, iv model.Interval) (bool, error) {
	var exists bool
	err := r.do(func(st *state) error {
		for _, b := range st.bookings {
			if b.StudentID == studentID && b.Status != model.BookingCancelled && b.Interval().Overlaps(iv) {
				exists = true
				return nil
			}
		}
		return nil
	})
	return exists, err
}

func (r *bookingRepo) ExistsCompleted(_ context.Context, studentID, teacherID string) (bool, error) {
	var exists bool
	err := r.do(func(st *state) error {
		for _, b := range st.bookings {
			if b.StudentID == studentID && b.TeacherID == teacherID && b.Status == model.BookingCompleted {
				exists = true
				return nil
			}
		}
		return nil
	})
	return exists, err
}

func (r *bookingRepo) UpdateStatus(_ context.Context, id string, from, to model.BookingStatus, updatedAt time.Time) (bool, error) {
	var ok bool
	err := r.do(func(st *state) error {
		b, exists := st.bookings[id]
		if !exists || b.Status != from {
			return nil
		}
		b.Status = to
		b.UpdatedAt = updatedAt
		st.bookings[id] = b
		ok = true
		return nil
	})
	return ok, err
}

func (r *bookingRepo) DeleteByID(_ context.Context, id string) error {
	return r.do(func(st *state) error {
		if _, ok := st.bookings[id]; !ok {
			return repository.ErrNotFound
		}
		delete(st.bookings, id)
		return nil
	})
}
