// Package review は受講完了後のレビュー投稿（Review Gate）を提供する。
package review

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
	"github.com/hitoshi/tutorhub/internal/security"
)

// MaxCommentLength はコメントの最大文字数。
const MaxCommentLength = 2000

// Gate はレビュー投稿の可否判定と登録を行う。
type Gate struct {
	gateway   repository.Gateway
	sanitizer security.TextSanitizer
	metrics   metrics.MetricsCollector
	logger    *zap.Logger
	now       func() time.Time
}

// NewGate はGateを生成する。
func NewGate(gateway repository.Gateway, sanitizer security.TextSanitizer, collector metrics.MetricsCollector, logger *zap.Logger) *Gate {
	if sanitizer == nil {
		sanitizer = security.NewTextSanitizer()
	}
	if collector == nil {
		collector = metrics.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		gateway:   gateway,
		sanitizer: sanitizer,
		metrics:   collector,
		logger:    logger,
		now:       time.Now,
	}
}

// Create は生徒のレビューを登録する。
// 生徒と講師の間に完了済みの予約があり、まだレビューしていない場合のみ登録できる。
func (g *Gate) Create(ctx context.Context, studentID, teacherID string, rating int, comment string) (*model.Review, error) {
	if !model.ValidRating(rating) {
		return nil, model.NewInvalidRatingError(rating)
	}

	teacher, err := g.gateway.Teachers().FindByID(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("講師の取得に失敗しました: %w", err)
	}
	if teacher == nil {
		return nil, model.NewTeacherNotFoundError(teacherID)
	}

	review := &model.Review{
		ID:        uuid.NewString(),
		StudentID: studentID,
		TeacherID: teacherID,
		Rating:    rating,
		Comment:   g.sanitizer.PlainText(comment, MaxCommentLength),
		CreatedAt: g.now(),
	}

	err = g.gateway.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		completed, err := store.Bookings().ExistsCompleted(ctx, studentID, teacherID)
		if err != nil {
			return err
		}
		if !completed {
			return model.NewNotEligibleError()
		}

		existing, err := store.Reviews().FindByStudentAndTeacher(ctx, studentID, teacherID)
		if err != nil {
			return err
		}
		if existing != nil {
			return model.NewAlreadyReviewedError()
		}

		return store.Reviews().Create(ctx, review)
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, model.NewAlreadyReviewedError()
	}
	if err != nil {
		return nil, err
	}

	g.metrics.RecordReviewCreated()
	g.logger.Info("レビューを登録しました",
		zap.String("review_id", review.ID),
		zap.String("student_id", studentID),
		zap.String("teacher_id", teacherID),
		zap.Int("rating", rating),
	)
	return review, nil
}

// ListForTeacher は講師へのレビューを新しい順に返す。
func (g *Gate) ListForTeacher(ctx context.Context, teacherID string) ([]*model.Review, error) {
	teacher, err := g.gateway.Teachers().FindByID(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("講師の取得に失敗しました: %w", err)
	}
	if teacher == nil {
		return nil, model.NewTeacherNotFoundError(teacherID)
	}
	return g.gateway.Reviews().ListByTeacher(ctx, teacherID)
}
