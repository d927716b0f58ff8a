package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/hitoshi/tutorhub/internal/model"
)

// ReviewServiceInterface はレビューハンドラーが必要とするサービスインターフェース。
type ReviewServiceInterface interface {
	Create(ctx context.Context, studentID, teacherID string, rating int, comment string) (*model.Review, error)
	ListForTeacher(ctx context.Context, teacherID string) ([]*model.Review, error)
}

// ReviewHandler はレビューのHTTPハンドラー。
type ReviewHandler struct {
	service ReviewServiceInterface
	logger  *zap.Logger
}

// NewReviewHandler はReviewHandlerを生成する。
func NewReviewHandler(service ReviewServiceInterface, logger *zap.Logger) *ReviewHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewHandler{
		service: service,
		logger:  logger,
	}
}

// createReviewRequest はレビュー作成リクエストのボディ。
type createReviewRequest struct {
	TeacherID string `json:"teacher_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

// Create は受講を完了した講師へのレビューを作成する。
// POST /reviews
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	p := principal(w, r)
	if p == nil {
		return
	}

	var req createReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.TeacherID == "" {
		writeAPIErrorResponse(w, model.NewValidationError("teacher_id is required"))
		return
	}
	if !validID(req.TeacherID) {
		writeAPIErrorResponse(w, model.NewTeacherNotFoundError(req.TeacherID))
		return
	}

	rv, err := h.service.Create(r.Context(), p.UserID, req.TeacherID, req.Rating, req.Comment)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toReviewResponse(rv))
}

// ListForTeacher は講師へのレビュー一覧を返す。
// GET /teachers/{id}/reviews
func (h *ReviewHandler) ListForTeacher(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, model.NewTeacherNotFoundError)
	if !ok {
		return
	}

	reviews, err := h.service.ListForTeacher(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toReviewResponses(reviews))
}
