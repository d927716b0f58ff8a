// Package availability は講師の時間枠（Availability Ledger）を管理する。
// 同一講師の時間枠が重ならないこと、予約済み/空きの状態遷移を保証する。
package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hitoshi/tutorhub/internal/metrics"
	"github.com/hitoshi/tutorhub/internal/model"
	"github.com/hitoshi/tutorhub/internal/repository"
)

// Ledger は時間枠の登録、削除、確保、解放を提供する。
type Ledger struct {
	gateway repository.Gateway
	metrics metrics.MetricsCollector
	logger  *zap.Logger
	now     func() time.Time
}

// Option はLedgerの設定を変更する。
type Option func(*Ledger)

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithMetrics はメトリクス収集を設定する。
func WithMetrics(m metrics.MetricsCollector) Option {
	return func(l *Ledger) { l.metrics = m }
}

// NewLedger はLedgerを生成する。
func NewLedger(gateway repository.Gateway, logger *zap.Logger, opts ...Option) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Ledger{
		gateway: gateway,
		metrics: metrics.Nop{},
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// AddSlot は講師の時間枠を登録する。
// 講師行をロックしてから重なりを判定するため、同一講師への同時登録でも重なりは生じない。
func (l *Ledger) AddSlot(ctx context.Context, teacherID string, start, end time.Time) (*model.Schedule, error) {
	iv := model.Interval{Start: start, End: end}
	if !iv.Valid() {
		return nil, model.NewInvalidRangeError()
	}
	if start.Before(l.now()) {
		return nil, model.NewPastSlotError()
	}

	slot := &model.Schedule{
		ID:        uuid.NewString(),
		TeacherID: teacherID,
		StartTime: start,
		EndTime:   end,
		IsBooked:  false,
		CreatedAt: l.now(),
	}

	err := l.gateway.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		if err := store.Teachers().LockByID(ctx, teacherID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return model.NewTeacherNotFoundError(teacherID)
			}
			return fmt.Errorf("講師のロックに失敗しました: %w", err)
		}

		overlap, err := store.Schedules().ExistsOverlap(ctx, teacherID, iv)
		if err != nil {
			return err
		}
		if overlap {
			return model.NewOverlapError()
		}

		if err := store.Schedules().Create(ctx, slot); err != nil {
			if errors.Is(err, repository.ErrOverlap) {
				return model.NewOverlapError()
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.metrics.RecordSlotCreated()
	l.logger.Info("時間枠を登録しました",
		zap.String("schedule_id", slot.ID),
		zap.String("teacher_id", teacherID),
		zap.Time("start_time", start),
		zap.Time("end_time", end),
	)
	return slot, nil
}

// DeleteSlot は講師の未予約の時間枠を削除する。
func (l *Ledger) DeleteSlot(ctx context.Context, teacherID, slotID string) error {
	slot, err := l.gateway.Schedules().FindByID(ctx, slotID)
	if err != nil {
		return err
	}
	if slot == nil || slot.TeacherID != teacherID {
		return model.NewScheduleNotFoundError(slotID)
	}
	if slot.IsBooked {
		return model.NewSlotBookedError()
	}

	// 確認後に予約が入った場合も削除しない
	deleted, err := l.gateway.Schedules().DeleteIfFree(ctx, slotID)
	if err != nil {
		return err
	}
	if !deleted {
		return model.NewSlotBookedError()
	}

	l.logger.Info("時間枠を削除しました",
		zap.String("schedule_id", slotID),
		zap.String("teacher_id", teacherID),
	)
	return nil
}

// ReserveSlot は iv を含む空き枠を確保し、確保した枠のIDを返す。
// 呼び出し元のトランザクション内の store を使用する。
func (l *Ledger) ReserveSlot(ctx context.Context, store repository.Store, teacherID string, iv model.Interval) (string, error) {
	free := false
	slot, err := store.Schedules().FindContaining(ctx, teacherID, iv, &free)
	if err != nil {
		return "", err
	}
	if slot == nil {
		l.metrics.RecordReservationConflict()
		return "", model.NewSlotUnavailableError()
	}

	ok, err := store.Schedules().SetBooked(ctx, slot.ID, false, true)
	if err != nil {
		return "", err
	}
	if !ok {
		l.metrics.RecordReservationConflict()
		return "", model.NewSlotUnavailableError()
	}
	return slot.ID, nil
}

// ReleaseSlot は予約で確保していた枠を空きに戻す。
// slotID があればその枠を、なければ iv を含む予約済みの枠を解放する。
// 該当する枠がない場合は何もしない。
func (l *Ledger) ReleaseSlot(ctx context.Context, store repository.Store, teacherID string, iv model.Interval, slotID string) error {
	if slotID == "" {
		booked := true
		slot, err := store.Schedules().FindContaining(ctx, teacherID, iv, &booked)
		if err != nil {
			return err
		}
		if slot == nil {
			l.logger.Debug("解放対象の時間枠がありません",
				zap.String("teacher_id", teacherID),
				zap.Time("start_time", iv.Start),
			)
			return nil
		}
		slotID = slot.ID
	}

	if _, err := store.Schedules().SetBooked(ctx, slotID, true, false); err != nil {
		return err
	}
	return nil
}

// ListSlots は講師の時間枠を開始時刻順に返す。
// day がゼロ値でなければ、その日（day のタイムゾーンでの0時から24時間）に開始する枠に限る。
func (l *Ledger) ListSlots(ctx context.Context, teacherID string, day time.Time) ([]*model.Schedule, error) {
	var from, to time.Time
	if !day.IsZero() {
		from = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		to = from.AddDate(0, 0, 1)
	}
	return l.gateway.Schedules().ListByTeacher(ctx, teacherID, from, to)
}
