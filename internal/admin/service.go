// Package admin は管理者向けのユーザー・講師・予約・レビュー管理を提供する。
package admin

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hitoshi/tutorhub/internal/auth"
	"github.com/hitoshi/tutorhub/internal/model"
	"github.com/hitoshi/tutorhub/internal/repository"
)

// AccountCreator はアカウント作成インターフェース。
type AccountCreator interface {
	CreateAccount(ctx context.Context, in auth.RegisterInput) (*model.User, error)
}

// ProfileUpdater は講師プロフィールの更新インターフェース。
type ProfileUpdater interface {
	UpdateProfile(ctx context.Context, teacherID string, upd model.TeacherProfileUpdate) (*model.TeacherWithUser, error)
}

// SlotReleaser は予約で確保された時間枠の解放インターフェース。
type SlotReleaser interface {
	ReleaseSlot(ctx context.Context, store repository.Store, teacherID string, iv model.Interval, slotID string) error
}

// Service は管理者向けのサービス層。
type Service struct {
	gateway  repository.Gateway
	accounts AccountCreator
	profiles ProfileUpdater
	slots    SlotReleaser
	defLimit int
	maxLimit int
	logger   *zap.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	gateway repository.Gateway,
	accounts AccountCreator,
	profiles ProfileUpdater,
	slots SlotReleaser,
	defaultLimit, maxLimit int,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultLimit < 1 {
		defaultLimit = 10
	}
	return &Service{
		gateway:  gateway,
		accounts: accounts,
		profiles: profiles,
		slots:    slots,
		defLimit: defaultLimit,
		maxLimit: maxLimit,
		logger:   logger,
	}
}

func (s *Service) page(p model.Page) model.Page {
	return p.Normalize(s.defLimit, s.maxLimit)
}

// ListUsers はユーザー一覧を返す。role が空でなければそのロールに絞り込む。
func (s *Service) ListUsers(ctx context.Context, role string, page model.Page) ([]*model.User, error) {
	filter := repository.UserFilter{Page: s.page(page)}
	if role != "" {
		r := model.Role(role)
		if !r.Valid() {
			return nil, model.NewValidationError(fmt.Sprintf("unknown role %q", role))
		}
		filter.Role = r
	}
	users, err := s.gateway.Users().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// GetUser はユーザーを返す。
func (s *Service) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.gateway.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// CreateUser は任意のロールのユーザーを作成する。
func (s *Service) CreateUser(ctx context.Context, in auth.RegisterInput) (*model.User, error) {
	return s.accounts.CreateAccount(ctx, in)
}

// DeleteUser はユーザーを削除する。
// 生徒として保持していた未完了の予約の時間枠を解放してから削除し、
// 講師プロフィール・時間枠・予約・レビューはCASCADE削除される。
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	err := s.gateway.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		user, err := store.Users().FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return model.NewUserNotFoundError()
		}

		bookings, err := store.Bookings().ListByStudent(ctx, userID)
		if err != nil {
			return err
		}
		for _, b := range bookings {
			if err := s.releaseActive(ctx, store, b); err != nil {
				return err
			}
		}

		return store.Users().DeleteByID(ctx, userID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("ユーザーを削除しました", zap.String("user_id", userID))
	return nil
}

// ListTeachers は講師一覧を返す。
func (s *Service) ListTeachers(ctx context.Context, page model.Page) ([]model.TeacherWithUser, error) {
	teachers, err := s.gateway.Teachers().List(ctx, repository.TeacherFilter{Page: s.page(page)})
	if err != nil {
		return nil, fmt.Errorf("講師一覧の取得に失敗しました: %w", err)
	}
	return teachers, nil
}

// UpdateTeacher は講師プロフィールを更新する。
func (s *Service) UpdateTeacher(ctx context.Context, teacherID string, upd model.TeacherProfileUpdate) (*model.TeacherWithUser, error) {
	return s.profiles.UpdateProfile(ctx, teacherID, upd)
}

// DeleteTeacher は講師とその所有ユーザーを削除する。
func (s *Service) DeleteTeacher(ctx context.Context, teacherID string) error {
	t, err := s.gateway.Teachers().FindByID(ctx, teacherID)
	if err != nil {
		return fmt.Errorf("講師の取得に失敗しました: %w", err)
	}
	if t == nil {
		return model.NewTeacherNotFoundError(teacherID)
	}
	return s.DeleteUser(ctx, t.UserID)
}

// ListBookings は全予約を返す。
func (s *Service) ListBookings(ctx context.Context, page model.Page) ([]*model.Booking, error) {
	bookings, err := s.gateway.Bookings().List(ctx, s.page(page))
	if err != nil {
		return nil, fmt.Errorf("予約一覧の取得に失敗しました: %w", err)
	}
	return bookings, nil
}

// DeleteBooking は予約を削除する。終端状態でない予約は時間枠を解放してから削除する。
func (s *Service) DeleteBooking(ctx context.Context, bookingID string) error {
	err := s.gateway.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		b, err := store.Bookings().FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b == nil {
			return model.NewBookingNotFoundError(bookingID)
		}
		if err := s.releaseActive(ctx, store, b); err != nil {
			return err
		}
		return store.Bookings().DeleteByID(ctx, bookingID)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewBookingNotFoundError(bookingID)
	}
	if err != nil {
		return err
	}

	s.logger.Info("予約を削除しました", zap.String("booking_id", bookingID))
	return nil
}

func (s *Service) releaseActive(ctx context.Context, store repository.Store, b *model.Booking) error {
	if b.Status.Terminal() {
		return nil
	}
	return s.slots.ReleaseSlot(ctx, store, b.TeacherID, b.Interval(), b.ScheduleID)
}

// ListReviews は全レビューを返す。
func (s *Service) ListReviews(ctx context.Context, page model.Page) ([]*model.Review, error) {
	reviews, err := s.gateway.Reviews().List(ctx, s.page(page))
	if err != nil {
		return nil, fmt.Errorf("レビュー一覧の取得に失敗しました: %w", err)
	}
	return reviews, nil
}

// DeleteReview はレビューを削除する。
func (s *Service) DeleteReview(ctx context.Context, reviewID string) error {
	err := s.gateway.Reviews().DeleteByID(ctx, reviewID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewReviewNotFoundError(reviewID)
	}
	if err != nil {
		return fmt.Errorf("レビューの削除に失敗しました: %w", err)
	}

	s.logger.Info("レビューを削除しました", zap.String("review_id", reviewID))
	return nil
}
