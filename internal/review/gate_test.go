package review

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hitoshi/tutorhub/internal/model"
	"github.com/hitoshi/tutorhub/internal/repository/memory"
)

func setup(t *testing.T) (*Gate, *memory.Store) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Users().Create(ctx, &model.User{ID: "u-t", Email: "t@example.com", Role: model.RoleTeacher}))
	require.NoError(t, store.Users().Create(ctx, &model.User{ID: "s-a", Email: "a@example.com", Role: model.RoleStudent}))
	require.NoError(t, store.Teachers().Create(ctx, &model.Teacher{ID: "t-1", UserID: "u-t"}))
	return NewGate(store, nil, nil, nil), store
}

func addBooking(t *testing.T, store *memory.Store, id string, status model.BookingStatus) {
	t.Helper()
	start := time.Date(2030, 1, 2, 14, 0, 0, 0, time.UTC)
	require.NoError(t, store.Bookings().Create(context.Background(), &model.Booking{
		ID: id, StudentID: "s-a", TeacherID: "t-1",
		StartTime: start, EndTime: start.Add(time.Hour), Status: status,
	}))
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var apiErr *model.APIError
	require.Truef(t, errors.As(err, &apiErr), "expected *model.APIError, got %T: %v", err, err)
	assert.Equal(t, code, apiErr.Code)
}

func TestCreate_RequiresCompletedBooking(t *testing.T) {
	gate, store := setup(t)
	ctx := context.Background()

	_, err := gate.Create(ctx, "s-a", "t-1", 5, "")
	requireCode(t, err, model.ErrCodeNotEligible)

	addBooking(t, store, "b-1", model.BookingConfirmed)
	_, err = gate.Create(ctx, "s-a", "t-1", 5, "")
	requireCode(t, err, model.ErrCodeNotEligible)

	addBooking(t, store, "b-2", model.BookingCompleted)
	review, err := gate.Create(ctx, "s-a", "t-1", 5, "Great lesson")
	require.NoError(t, err)
	assert.Equal(t, 5, review.Rating)
	assert.Equal(t, "Great lesson", review.Comment)

	_, err = gate.Create(ctx, "s-a", "t-1", 4, "again")
	requireCode(t, err, model.ErrCodeAlreadyReviewed)
}

func TestCreate_Validation(t *testing.T) {
	gate, store := setup(t)
	addBooking(t, store, "b-1", model.BookingCompleted)
	ctx := context.Background()

	for _, rating := range []int{0, 6, -1} {
		_, err := gate.Create(ctx, "s-a", "t-1", rating, "")
		requireCode(t, err, model.ErrCodeInvalidRating)
	}

	_, err := gate.Create(ctx, "s-a", "missing", 5, "")
	requireCode(t, err, model.ErrCodeTeacherNotFound)
}

func TestCreate_SanitizesComment(t *testing.T) {
	gate, store := setup(t)
	addBooking(t, store, "b-1", model.BookingCompleted)

	review, err := gate.Create(context.Background(), "s-a", "t-1", 4, `<script>alert(1)</script><b>Very</b> good & clear`)
	require.NoError(t, err)
	assert.Equal(t, "Very good & clear", review.Comment)
}

func TestCreate_ConcurrentReviews(t *testing.T) {
	gate, store := setup(t)
	addBooking(t, store, "b-1", model.BookingCompleted)
	ctx := context.Background()

	errs := make([]error, 5)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = gate.Create(ctx, "s-a", "t-1", 5, "")
		}()
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		requireCode(t, err, model.ErrCodeAlreadyReviewed)
	}
	assert.Equal(t, 1, successes)
}

func TestListForTeacher(t *testing.T) {
	gate, store := setup(t)
	addBooking(t, store, "b-1", model.BookingCompleted)
	ctx := context.Background()

	_, err := gate.Create(ctx, "s-a", "t-1", 3, "ok")
	require.NoError(t, err)

	reviews, err := gate.ListForTeacher(ctx, "t-1")
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 3, reviews[0].Rating)

	_, err = gate.ListForTeacher(ctx, "missing")
	requireCode(t, err, model.ErrCodeTeacherNotFound)
}
