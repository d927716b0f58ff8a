// Package booking は予約の作成と状態遷移（Booking Coordinator）を提供する。
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hitoshi/tutorhub/internal/auth"
	"github.com/hitoshi/tutorhub/internal/metrics"
	"github.com/hitoshi/tutorhub/internal/model"
	"github.com/hitoshi/tutorhub/internal/repository"
)

// SlotLedger は予約処理が必要とする時間枠の確保・解放操作。
// 呼び出し元のトランザクション内の store を受け取る。
type SlotLedger interface {
	ReserveSlot(ctx context.Context, store repository.Store, teacherID string, iv model.Interval) (string, error)
	ReleaseSlot(ctx context.Context, store repository.Store, teacherID string, iv model.Interval, slotID string) error
}

// Coordinator は予約の作成と状態遷移を調停する。
type Coordinator struct {
	gateway repository.Gateway
	ledger  SlotLedger
	metrics metrics.MetricsCollector
	logger  *zap.Logger
	now     func() time.Time
}

// NewCoordinator はCoordinatorを生成する。
func NewCoordinator(gateway repository.Gateway, ledger SlotLedger, collector metrics.MetricsCollector, logger *zap.Logger) *Coordinator {
	if collector == nil {
		collector = metrics.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		gateway: gateway,
		ledger:  ledger,
		metrics: collector,
		logger:  logger,
		now:     time.Now,
	}
}

// Create は生徒の予約を作成する。
// 講師の空き枠を確保し、PENDING状態の予約を同一トランザクションで登録する。
// いずれかの手順が失敗した場合は枠の確保も取り消される。
func (c *Coordinator) Create(ctx context.Context, studentID, teacherID string, start, end time.Time) (*model.Booking, error) {
	iv := model.Interval{Start: start, End: end}
	if !iv.Valid() {
		return nil, model.NewInvalidRangeError()
	}

	teacher, err := c.gateway.Teachers().FindByID(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("講師の取得に失敗しました: %w", err)
	}
	if teacher == nil {
		return nil, model.NewTeacherNotFoundError(teacherID)
	}

	now := c.now()
	booking := &model.Booking{
		ID:        uuid.NewString(),
		StudentID: studentID,
		TeacherID: teacherID,
		StartTime: start,
		EndTime:   end,
		Status:    model.BookingPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = c.gateway.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		// 同一生徒の同時予約を直列化する
		if err := store.Users().LockByID(ctx, studentID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return model.NewUserNotFoundError()
			}
			return fmt.Errorf("生徒のロックに失敗しました: %w", err)
		}

		conflict, err := store.Bookings().ExistsActiveOverlap(ctx, studentID, iv)
		if err != nil {
			return err
		}
		if conflict {
			c.metrics.RecordScheduleConflict()
			return model.NewScheduleConflictError()
		}

		slotID, err := c.ledger.ReserveSlot(ctx, store, teacherID, iv)
		if err != nil {
			return err
		}
		booking.ScheduleID = slotID

		return store.Bookings().Create(ctx, booking)
	})
	if err != nil {
		return nil, err
	}

	c.metrics.RecordBookingCreated()
	c.logger.Info("予約を作成しました",
		zap.String("booking_id", booking.ID),
		zap.String("student_id", studentID),
		zap.String("teacher_id", teacherID),
		zap.String("schedule_id", booking.ScheduleID),
	)
	return booking, nil
}

// Actor は状態変更を要求した利用者。
type Actor struct {
	UserID string
	Role   model.Role
}

// allowedTargets はロールごとに設定可能な遷移先の状態。
var allowedTargets = map[model.Role][]model.BookingStatus{
	model.RoleStudent: {model.BookingCancelled},
	model.RoleTeacher: {model.BookingConfirmed, model.BookingCancelled, model.BookingCompleted},
}

// UpdateStatus は予約の状態を変更する。
// 予約した生徒はキャンセルのみ、担当講師は確定・キャンセル・完了を設定できる。
// キャンセルまたは完了への遷移では確保していた枠を同一トランザクションで解放する。
func (c *Coordinator) UpdateStatus(ctx context.Context, bookingID string, actor Actor, next model.BookingStatus) (*model.Booking, error) {
	if !next.Valid() {
		return nil, model.NewValidationError(fmt.Sprintf("unknown status %q", next))
	}

	var updated *model.Booking
	err := c.gateway.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		booking, err := store.Bookings().FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return model.NewBookingNotFoundError(bookingID)
		}

		if err := c.authorizeOwner(ctx, store, booking, actor); err != nil {
			return err
		}
		if !roleMaySet(actor.Role, next) {
			return model.NewForbiddenError()
		}
		if !model.CanTransition(booking.Status, next) {
			return model.NewInvalidTransitionError(booking.Status, next)
		}

		now := c.now()
		ok, err := store.Bookings().UpdateStatus(ctx, booking.ID, booking.Status, next, now)
		if err != nil {
			return err
		}
		if !ok {
			// 読み取り後に他の要求が状態を変更した
			return model.NewInvalidTransitionError(booking.Status, next)
		}

		if next.ReleasesSlot() {
			if err := c.ledger.ReleaseSlot(ctx, store, booking.TeacherID, booking.Interval(), booking.ScheduleID); err != nil {
				return err
			}
		}

		booking.Status = next
		booking.UpdatedAt = now
		updated = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.metrics.RecordBookingTransition(string(next))
	c.logger.Info("予約状態を変更しました",
		zap.String("booking_id", bookingID),
		zap.String("actor_id", actor.UserID),
		zap.String("status", string(next)),
	)
	return updated, nil
}

// authorizeOwner は actor が予約した生徒または担当講師本人かを判定する。
func (c *Coordinator) authorizeOwner(ctx context.Context, store repository.Store, booking *model.Booking, actor Actor) error {
	var ownerID string
	switch actor.Role {
	case model.RoleStudent:
		ownerID = booking.StudentID
	case model.RoleTeacher:
		teacher, err := store.Teachers().FindByID(ctx, booking.TeacherID)
		if err != nil {
			return err
		}
		if teacher != nil {
			ownerID = teacher.UserID
		}
	default:
		return model.NewForbiddenError()
	}

	if ownerID == "" || !auth.Authorize(actor.Role, actor.UserID, ownerID, model.RoleStudent, model.RoleTeacher) {
		return model.NewForbiddenError()
	}
	return nil
}

func roleMaySet(role model.Role, next model.BookingStatus) bool {
	for _, s := range allowedTargets[role] {
		if s == next {
			return true
		}
	}
	return false
}

// ListForStudent は生徒の予約一覧を返す。
func (c *Coordinator) ListForStudent(ctx context.Context, studentID string) ([]*model.Booking, error) {
	return c.gateway.Bookings().ListByStudent(ctx, studentID)
}

// ListForTeacher は講師ユーザーが担当する予約一覧を返す。
func (c *Coordinator) ListForTeacher(ctx context.Context, teacherUserID string) ([]*model.Booking, error) {
	teacher, err := c.gateway.Teachers().FindByUserID(ctx, teacherUserID)
	if err != nil {
		return nil, fmt.Errorf("講師の取得に失敗しました: %w", err)
	}
	if teacher == nil {
		return nil, model.NewTeacherNotFoundError(teacherUserID)
	}
	return c.gateway.Bookings().ListByTeacher(ctx, teacher.ID)
}
