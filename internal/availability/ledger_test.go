package availability

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hitoshi/tutorhub/internal/model"
	"github.com/hitoshi/tutorhub/internal/repository"
	"github.com/hitoshi/tutorhub/internal/repository/memory"
)

var now = time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Ledger, *memory.Store, string) {
	t.Helper()
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.Users().Create(ctx, &model.User{ID: "u-t", Email: "t@example.com", Role: model.RoleTeacher}))
	require.NoError(t, store.Teachers().Create(ctx, &model.Teacher{ID: "t-1", UserID: "u-t"}))
	ledger := NewLedger(store, nil, WithClock(func() time.Time { return now }))
	return ledger, store, "t-1"
}

func at(hour, min int) time.Time {
	return time.Date(2030, 1, 2, hour, min, 0, 0, time.UTC)
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	apiErr, ok := err.(*model.APIError)
	require.Truef(t, ok, "expected *model.APIError, got %T: %v", err, err)
	assert.Equal(t, code, apiErr.Code)
}

func TestAddSlot_Validation(t *testing.T) {
	ledger, _, teacherID := setup(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		code  string
	}{
		{"開始と終了が同じ", at(14, 0), at(14, 0), model.ErrCodeInvalidRange},
		{"開始が終了より後", at(15, 0), at(14, 0), model.ErrCodeInvalidRange},
		{"過去の時間枠", now.Add(-time.Hour), now.Add(time.Hour), model.ErrCodePastSlot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.AddSlot(ctx, teacherID, tt.start, tt.end)
			requireCode(t, err, tt.code)
		})
	}
}

func TestAddSlot_UnknownTeacher(t *testing.T) {
	ledger, _, _ := setup(t)

	_, err := ledger.AddSlot(context.Background(), "missing", at(14, 0), at(15, 0))
	requireCode(t, err, model.ErrCodeTeacherNotFound)
}

func TestAddSlot_RejectsOverlap(t *testing.T) {
	ledger, _, teacherID := setup(t)
	ctx := context.Background()

	slot, err := ledger.AddSlot(ctx, teacherID, at(14, 0), at(16, 0))
	require.NoError(t, err)
	assert.False(t, slot.IsBooked)

	tests := []struct {
		name       string
		start, end time.Time
	}{
		{"内側", at(14, 30), at(15, 30)},
		{"外側", at(13, 0), at(17, 0)},
		{"前半が重なる", at(13, 0), at(14, 30)},
		{"終了時刻に接する", at(16, 0), at(17, 0)},
		{"開始時刻に接する", at(13, 0), at(14, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.AddSlot(ctx, teacherID, tt.start, tt.end)
			requireCode(t, err, model.ErrCodeOverlap)
		})
	}

	_, err = ledger.AddSlot(ctx, teacherID, at(16, 1), at(17, 0))
	assert.NoError(t, err)
}

// TestAddSlot_NeverStoresOverlaps はランダムな登録列の後でも重なる枠が存在しないことを検証する。
func TestAddSlot_NeverStoresOverlaps(t *testing.T) {
	ledger, store, teacherID := setup(t)
	ctx := context.Background()
	rng := rand.New(rand.NewPCG(1, 2))

	for range 200 {
		start := at(0, 0).Add(time.Duration(rng.IntN(24*60)) * time.Minute)
		end := start.Add(time.Duration(1+rng.IntN(180)) * time.Minute)
		_, _ = ledger.AddSlot(ctx, teacherID, start, end)
	}

	slots, err := store.Schedules().ListByTeacher(ctx, teacherID, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	for i := range slots {
		for j := i + 1; j < len(slots); j++ {
			assert.Falsef(t, slots[i].Interval().Overlaps(slots[j].Interval()),
				"slots %s and %s overlap", slots[i].ID, slots[j].ID)
		}
	}
}

func TestAddSlot_ConcurrentOverlappingRequests(t *testing.T) {
	ledger, _, teacherID := setup(t)
	ctx := context.Background()

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := at(10, i*5)
			if _, err := ledger.AddSlot(ctx, teacherID, start, start.Add(time.Hour)); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, successes)
}

func TestDeleteSlot(t *testing.T) {
	ledger, store, teacherID := setup(t)
	ctx := context.Background()

	slot, err := ledger.AddSlot(ctx, teacherID, at(14, 0), at(15, 0))
	require.NoError(t, err)

	t.Run("存在しない枠", func(t *testing.T) {
		requireCode(t, ledger.DeleteSlot(ctx, teacherID, "missing"), model.ErrCodeScheduleNotFound)
	})

	t.Run("他の講師の枠", func(t *testing.T) {
		requireCode(t, ledger.DeleteSlot(ctx, "t-other", slot.ID), model.ErrCodeScheduleNotFound)
	})

	t.Run("予約済みの枠", func(t *testing.T) {
		ok, err := store.Schedules().SetBooked(ctx, slot.ID, false, true)
		require.NoError(t, err)
		require.True(t, ok)

		requireCode(t, ledger.DeleteSlot(ctx, teacherID, slot.ID), model.ErrCodeSlotBooked)

		_, err = store.Schedules().SetBooked(ctx, slot.ID, true, false)
		require.NoError(t, err)
	})

	t.Run("空き枠は削除できる", func(t *testing.T) {
		require.NoError(t, ledger.DeleteSlot(ctx, teacherID, slot.ID))
		got, err := store.Schedules().FindByID(ctx, slot.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestReserveAndReleaseSlot(t *testing.T) {
	ledger, store, teacherID := setup(t)
	ctx := context.Background()

	slot, err := ledger.AddSlot(ctx, teacherID, at(14, 0), at(16, 0))
	require.NoError(t, err)

	var reserved string
	err = store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		reserved, err = ledger.ReserveSlot(ctx, tx, teacherID, model.Interval{Start: at(14, 0), End: at(15, 0)})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, slot.ID, reserved)

	// 同じ枠の別区間は確保できない
	err = store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		_, err := ledger.ReserveSlot(ctx, tx, teacherID, model.Interval{Start: at(14, 30), End: at(15, 30)})
		return err
	})
	requireCode(t, err, model.ErrCodeSlotUnavailable)

	// 枠に含まれない区間
	err = store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		_, err := ledger.ReserveSlot(ctx, tx, teacherID, model.Interval{Start: at(15, 30), End: at(16, 30)})
		return err
	})
	requireCode(t, err, model.ErrCodeSlotUnavailable)

	// slotIDなしでも包含する枠を解放できる
	err = store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		return ledger.ReleaseSlot(ctx, tx, teacherID, model.Interval{Start: at(14, 0), End: at(15, 0)}, "")
	})
	require.NoError(t, err)

	got, err := store.Schedules().FindByID(ctx, slot.ID)
	require.NoError(t, err)
	assert.False(t, got.IsBooked)
}

func TestReleaseSlot_NoMatchingSlotIsNoop(t *testing.T) {
	ledger, store, teacherID := setup(t)
	ctx := context.Background()

	err := store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		return ledger.ReleaseSlot(ctx, tx, teacherID, model.Interval{Start: at(8, 0), End: at(9, 0)}, "")
	})
	assert.NoError(t, err)

	err = store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		return ledger.ReleaseSlot(ctx, tx, teacherID, model.Interval{}, "deleted-slot")
	})
	assert.NoError(t, err)
}

func TestListSlots_FiltersByDay(t *testing.T) {
	ledger, _, teacherID := setup(t)
	ctx := context.Background()

	_, err := ledger.AddSlot(ctx, teacherID, at(14, 0), at(15, 0))
	require.NoError(t, err)
	nextDay := at(14, 0).AddDate(0, 0, 1)
	_, err = ledger.AddSlot(ctx, teacherID, nextDay, nextDay.Add(time.Hour))
	require.NoError(t, err)

	all, err := ledger.ListSlots(ctx, teacherID, time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	day, err := ledger.ListSlots(ctx, teacherID, at(0, 0))
	require.NoError(t, err)
	require.Len(t, day, 1)
	assert.True(t, day[0].StartTime.Equal(at(14, 0)))
}
