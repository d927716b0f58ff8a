package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hitoshi/tutorhub/internal/model"
)

// TeacherServiceInterface は講師ハンドラーが必要とするサービスインターフェース。
type TeacherServiceInterface interface {
	List(ctx context.Context, subject string, page model.Page) ([]model.TeacherWithUser, error)
	Get(ctx context.Context, teacherID string) (*model.TeacherWithUser, error)
	Schedule(ctx context.Context, teacherID string, day time.Time) ([]*model.Schedule, error)
	GetOwnProfile(ctx context.Context, userID string) (*model.TeacherWithUser, error)
	UpdateOwnProfile(ctx context.Context, userID string, upd model.TeacherProfileUpdate) (*model.TeacherWithUser, error)
	OwnSchedule(ctx context.Context, userID string, day time.Time) ([]*model.Schedule, error)
	AddOwnSlot(ctx context.Context, userID string, start, end time.Time) (*model.Schedule, error)
	DeleteOwnSlot(ctx context.Context, userID, slotID string) error
	OwnReviews(ctx context.Context, userID string) ([]*model.Review, error)
}

// TeacherHandler は講師カタログ、プロフィール、時間枠のHTTPハンドラー。
type TeacherHandler struct {
	service TeacherServiceInterface
	logger  *zap.Logger
	now     func() time.Time
}

// NewTeacherHandler はTeacherHandlerを生成する。
func NewTeacherHandler(service TeacherServiceInterface, logger *zap.Logger) *TeacherHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherHandler{
		service: service,
		logger:  logger,
		now:     time.Now,
	}
}

// addSlotRequest は時間枠登録リクエストのボディ。時刻はRFC3339形式。
type addSlotRequest struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// List は講師一覧を返す。
// GET /teachers?subject=MATH&page=1&limit=10
func (h *TeacherHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	teachers, err := h.service.List(r.Context(), r.URL.Query().Get("subject"), page)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toTeacherResponses(teachers))
}

// Get は講師の詳細を返す。
// GET /teachers/{id}
func (h *TeacherHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, model.NewTeacherNotFoundError)
	if !ok {
		return
	}

	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toTeacherResponse(t))
}

// Schedule は講師の指定日の時間枠を返す。
// GET /teachers/{id}/schedule?date=YYYY-MM-DD
func (h *TeacherHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, model.NewTeacherNotFoundError)
	if !ok {
		return
	}

	day, err := parseDay(r, h.now())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	slots, err := h.service.Schedule(r.Context(), id, day)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toScheduleResponses(slots))
}

// Me はログイン中の講師のプロフィールを返す。
// GET /teachers/me
func (h *TeacherHandler) Me(w http.ResponseWriter, r *http.Request) {
	p := principal(w, r)
	if p == nil {
		return
	}

	t, err := h.service.GetOwnProfile(r.Context(), p.UserID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toTeacherResponse(t))
}

// UpdateMe はログイン中の講師のプロフィールを部分更新する。
// PATCH /teachers/me
func (h *TeacherHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	p := principal(w, r)
	if p == nil {
		return
	}

	var req profileUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	t, err := h.service.UpdateOwnProfile(r.Context(), p.UserID, req.toUpdate())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toTeacherResponse(t))
}

// MyReviews はログイン中の講師へのレビュー一覧を返す。
// GET /teachers/me/reviews
func (h *TeacherHandler) MyReviews(w http.ResponseWriter, r *http.Request) {
	p := principal(w, r)
	if p == nil {
		return
	}

	reviews, err := h.service.OwnReviews(r.Context(), p.UserID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toReviewResponses(reviews))
}

// MySchedule はログイン中の講師の指定日の時間枠を返す。
// GET /teachers/schedule?date=YYYY-MM-DD
func (h *TeacherHandler) MySchedule(w http.ResponseWriter, r *http.Request) {
	p := principal(w, r)
	if p == nil {
		return
	}

	day, err := parseDay(r, h.now())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	slots, err := h.service.OwnSchedule(r.Context(), p.UserID, day)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toScheduleResponses(slots))
}

// AddSlot はログイン中の講師の時間枠を登録する。
// POST /teachers/schedule
func (h *TeacherHandler) AddSlot(w http.ResponseWriter, r *http.Request) {
	p := principal(w, r)
	if p == nil {
		return
	}

	var req addSlotRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	start, err := parseTime("start_time", req.StartTime)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	end, err := parseTime("end_time", req.EndTime)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	slot, err := h.service.AddOwnSlot(r.Context(), p.UserID, start, end)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toScheduleResponse(slot))
}

// DeleteSlot はログイン中の講師の未予約の時間枠を削除する。
// DELETE /teachers/schedule/{id}
func (h *TeacherHandler) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	p := principal(w, r)
	if p == nil {
		return
	}

	slotID, ok := pathID(w, r, model.NewScheduleNotFoundError)
	if !ok {
		return
	}
	if err := h.service.DeleteOwnSlot(r.Context(), p.UserID, slotID); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, deletedResponse{ID: slotID, Deleted: true})
}
