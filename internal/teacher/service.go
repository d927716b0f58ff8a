// Package teacher は講師一覧・講師プロフィール・講師の時間枠とレビュー閲覧を提供する。
package teacher

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/hitoshi/tutorhub/internal/model"
	"github.com/hitoshi/tutorhub/internal/repository"
	"github.com/hitoshi/tutorhub/internal/security"
)

// MaxDescriptionLength は紹介文の最大文字数。
const MaxDescriptionLength = 4000

// SlotManager は講師の時間枠操作インターフェース。
type SlotManager interface {
	AddSlot(ctx context.Context, teacherID string, start, end time.Time) (*model.Schedule, error)
	DeleteSlot(ctx context.Context, teacherID, slotID string) error
	ListSlots(ctx context.Context, teacherID string, day time.Time) ([]*model.Schedule, error)
}

// PageLimits は一覧取得の件数既定値と上限。
type PageLimits struct {
	Default int
	Max     int
}

// Service は講師に関するサービス層。
type Service struct {
	gateway   repository.Gateway
	slots     SlotManager
	sanitizer security.TextSanitizer
	limits    PageLimits
	logger    *zap.Logger
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(gateway repository.Gateway, slots SlotManager, sanitizer security.TextSanitizer, limits PageLimits, logger *zap.Logger) *Service {
	if sanitizer == nil {
		sanitizer = security.NewTextSanitizer()
	}
	if limits.Default < 1 {
		limits.Default = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		gateway:   gateway,
		slots:     slots,
		sanitizer: sanitizer,
		limits:    limits,
		logger:    logger,
		now:       time.Now,
	}
}

// List は講師一覧を返す。subject が空でなければその科目の講師に絞り込む。
func (s *Service) List(ctx context.Context, subject string, page model.Page) ([]model.TeacherWithUser, error) {
	filter := repository.TeacherFilter{Page: page.Normalize(s.limits.Default, s.limits.Max)}
	if subject != "" {
		sub := model.Subject(subject)
		if !sub.Valid() {
			return nil, model.NewInvalidSubjectError(subject)
		}
		filter.Subject = sub
	}

	teachers, err := s.gateway.Teachers().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("講師一覧の取得に失敗しました: %w", err)
	}
	return teachers, nil
}

// Get は講師をユーザー情報と評価集計付きで返す。
func (s *Service) Get(ctx context.Context, teacherID string) (*model.TeacherWithUser, error) {
	t, err := s.gateway.Teachers().FindWithUser(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("講師の取得に失敗しました: %w", err)
	}
	if t == nil {
		return nil, model.NewTeacherNotFoundError(teacherID)
	}
	return t, nil
}

// ResolveOwn は講師ユーザーIDから講師プロフィールを取得する。
func (s *Service) ResolveOwn(ctx context.Context, userID string) (*model.Teacher, error) {
	t, err := s.gateway.Teachers().FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("講師の取得に失敗しました: %w", err)
	}
	if t == nil {
		return nil, model.NewTeacherNotFoundError(userID)
	}
	return t, nil
}

// GetOwnProfile はログイン中の講師のプロフィールを返す。
func (s *Service) GetOwnProfile(ctx context.Context, userID string) (*model.TeacherWithUser, error) {
	t, err := s.ResolveOwn(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, t.ID)
}

// UpdateOwnProfile はログイン中の講師のプロフィールを部分更新する。
func (s *Service) UpdateOwnProfile(ctx context.Context, userID string, upd model.TeacherProfileUpdate) (*model.TeacherWithUser, error) {
	t, err := s.ResolveOwn(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.UpdateProfile(ctx, t.ID, upd)
}

// UpdateProfile は講師プロフィールを部分更新する。
// 科目は重複を除いて保存し、紹介文は許可した書式タグ以外を除去する。
func (s *Service) UpdateProfile(ctx context.Context, teacherID string, upd model.TeacherProfileUpdate) (*model.TeacherWithUser, error) {
	if upd.HourlyRate != nil {
		rate, ok := model.NormalizeHourlyRate(*upd.HourlyRate)
		if !ok {
			return nil, model.NewValidationError(fmt.Sprintf("hourly_rate must be between 0 and %.2f", model.MaxHourlyRate))
		}
		upd.HourlyRate = &rate
	}
	var subjects []model.Subject
	if upd.Subjects != nil {
		subjects = make([]model.Subject, 0, len(upd.Subjects))
		for _, sub := range upd.Subjects {
			if !sub.Valid() {
				return nil, model.NewInvalidSubjectError(string(sub))
			}
			if !slices.Contains(subjects, sub) {
				subjects = append(subjects, sub)
			}
		}
	}

	err := s.gateway.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		t, err := store.Teachers().FindByID(ctx, teacherID)
		if err != nil {
			return err
		}
		if t == nil {
			return model.NewTeacherNotFoundError(teacherID)
		}

		if upd.Subjects != nil {
			t.Subjects = subjects
		}
		if upd.HourlyRate != nil {
			t.HourlyRate = *upd.HourlyRate
		}
		if upd.Description != nil {
			t.Description = s.sanitizer.RichText(*upd.Description, MaxDescriptionLength)
		}
		t.UpdatedAt = s.now()
		return store.Teachers().Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("講師プロフィールを更新しました", zap.String("teacher_id", teacherID))
	return s.Get(ctx, teacherID)
}

// Schedule は講師の時間枠を返す。day がゼロ値の場合は全期間を返す。
func (s *Service) Schedule(ctx context.Context, teacherID string, day time.Time) ([]*model.Schedule, error) {
	t, err := s.gateway.Teachers().FindByID(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("講師の取得に失敗しました: %w", err)
	}
	if t == nil {
		return nil, model.NewTeacherNotFoundError(teacherID)
	}
	return s.slots.ListSlots(ctx, teacherID, day)
}

// OwnSchedule はログイン中の講師の時間枠を返す。
func (s *Service) OwnSchedule(ctx context.Context, userID string, day time.Time) ([]*model.Schedule, error) {
	t, err := s.ResolveOwn(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.slots.ListSlots(ctx, t.ID, day)
}

// AddOwnSlot はログイン中の講師の時間枠を登録する。
func (s *Service) AddOwnSlot(ctx context.Context, userID string, start, end time.Time) (*model.Schedule, error) {
	t, err := s.ResolveOwn(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.slots.AddSlot(ctx, t.ID, start, end)
}

// DeleteOwnSlot はログイン中の講師の時間枠を削除する。
func (s *Service) DeleteOwnSlot(ctx context.Context, userID, slotID string) error {
	t, err := s.ResolveOwn(ctx, userID)
	if err != nil {
		return err
	}
	return s.slots.DeleteSlot(ctx, t.ID, slotID)
}

// OwnReviews はログイン中の講師へのレビューを返す。
func (s *Service) OwnReviews(ctx context.Context, userID string) ([]*model.Review, error) {
	t, err := s.ResolveOwn(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.gateway.Reviews().ListByTeacher(ctx, t.ID)
}
