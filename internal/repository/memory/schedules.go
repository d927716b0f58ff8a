package memory

import (
	"context"
	"slices"
	"time"

	"github.com/hitoshi/tutorhub/internal/model"
	"github.com/hitoshi/tutorhub/internal/repository"
)

type scheduleRepo struct {
	do accessor
}

func (r *scheduleRepo) FindByID(_ context.Context, id string) (*model.Schedule, error) {
	var found *model.Schedule
	err := r.do(func(st *state) error {
		if s, ok := st.schedules[id]; ok {
			found = &s
		}
		return nil
	})
	return found, err
}

func (r *scheduleRepo) ListByTeacher(_ context.Context, teacherID string, from, to time.Time) ([]*model.Schedule, error) {
	var schedules []*model.Schedule
	err := r.do(func(st *state) error {
		for _, s := range st.schedules {
			if s.TeacherID != teacherID {
				continue
			}
			if !from.IsZero() && s.StartTime.Before(from) {
				continue
			}
			if !to.IsZero() && !s.StartTime.Before(to) {
				continue
			}
			schedules = append(schedules, &s)
		}
		return nil
	})
	slices.SortFunc(schedules, func(a, b *model.Schedule) int {
		return compareTimeID(a.StartTime, b.StartTime, a.ID, b.ID)
	})
	return schedules, err
}

func (r *scheduleRepo) ExistsOverlap(_ context.Context, teacherID string, iv model.Interval) (bool, error) {
	var exists bool
	err := r.do(func(st *state) error {
		for _, s := range st.schedules {
			if s.TeacherID == teacherID && s.Interval().Overlaps(iv) {
				exists = true
				return nil
			}
		}
		return nil
	})
	return exists, err
}

func (r *scheduleRepo) FindContaining(_ context.Context, teacherID string, iv model.Interval, booked *bool) (*model.Schedule, error) {
	var found *model.Schedule
	err := r.do(func(st *state) error {
		for _, s := range st.schedules {
			if s.TeacherID != teacherID || !s.Interval().Contains(iv) {
				continue
			}
			if booked != nil && s.IsBooked != *booked {
				continue
			}
			if found == nil || s.StartTime.Before(found.StartTime) {
				found = &s
			}
		}
		return nil
	})
	return found, err
}

func (r *scheduleRepo) Create(_ context.Context, schedule *model.Schedule) error {
	return r.do(func(st *state) error {
		if _, ok := st.schedules[schedule.ID]; ok {
			return repository.ErrDuplicate
		}
		for _, s := range st.schedules {
			if s.TeacherID == schedule.TeacherID && s.Interval().Overlaps(schedule.Interval()) {
				return repository.ErrOverlap
			}
		}
		st.schedules[schedule.ID] = *schedule
		return nil
	})
}

func (r *scheduleRepo) SetBooked(_ context.Context, id string, from, to bool) (bool, error) {
	var ok bool
	err := r.do(func(st *state) error {
		s, exists := st.schedules[id]
		if !exists || s.IsBooked != from {
			return nil
		}
		s.IsBooked = to
		st.schedules[id] = s
		ok = true
		return nil
	})
	return ok, err
}

func (r *scheduleRepo) DeleteIfFree(_ context.Context, id string) (bool, error) {
	var ok bool
	err := r.do(func(st *state) error {
		s, exists := st.schedules[id]
		if !exists || s.IsBooked {
			return nil
		}
		delete(st.schedules, id)
		for bid, b := range st.bookings {
			if b.ScheduleID == id {
				b.ScheduleID = ""
				st.bookings[bid] = b
			}
		}
		ok = true
		return nil
	})
	return ok, err
}
