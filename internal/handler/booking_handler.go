package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hitoshi/tutorhub/internal/booking"
	"github.com/hitoshi/tutorhub/internal/model"
)

// BookingServiceInterface は予約ハンドラーが必要とするサービスインターフェース。
type BookingServiceInterface interface {
	Create(ctx context.Context, studentID, teacherID string, start, end time.Time) (*model.Booking, error)
	UpdateStatus(ctx context.Context, bookingID string, actor booking.Actor, next model.BookingStatus) (*model.Booking, error)
	ListForStudent(ctx context.Context, studentID string) ([]*model.Booking, error)
	ListForTeacher(ctx context.Context, teacherUserID string) ([]*model.Booking, error)
}

// BookingHandler は予約のHTTPハンドラー。
type BookingHandler struct {
	service BookingServiceInterface
	logger  *zap.Logger
}

// NewBookingHandler はBookingHandlerを生成する。
func NewBookingHandler(service BookingServiceInterface, logger *zap.Logger) *BookingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingHandler{
		service: service,
		logger:  logger,
	}
}

// createBookingRequest は予約作成リクエストのボディ。時刻はRFC3339形式。
type createBookingRequest struct {
	TeacherID string `json:"teacher_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// updateBookingRequest は予約状態変更リクエストのボディ。
type updateBookingRequest struct {
	Status string `json:"status"`
}

// Create は生徒の予約を作成する。
// POST /bookings
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	p := principal(w, r)
	if p == nil {
		return
	}

	var req createBookingRequest
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

	b, err := h.service.Create(r.Context(), p.UserID, req.TeacherID, start, end)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBookingResponse(b))
}

// ListMine はログイン中の生徒の予約一覧を返す。
// GET /bookings
func (h *BookingHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	p := principal(w, r)
	if p == nil {
		return
	}

	bookings, err := h.service.ListForStudent(r.Context(), p.UserID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toBookingResponses(bookings))
}

// ListForTeacher はログイン中の講師が担当する予約一覧を返す。
// GET /teachers/me/bookings
func (h *BookingHandler) ListForTeacher(w http.ResponseWriter, r *http.Request) {
	p := principal(w, r)
	if p == nil {
		return
	}

	bookings, err := h.service.ListForTeacher(r.Context(), p.UserID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toBookingResponses(bookings))
}

// UpdateStatus は予約の状態を変更する。
// PATCH /bookings/{id}
func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	p := principal(w, r)
	if p == nil {
		return
	}

	id, ok := pathID(w, r, model.NewBookingNotFoundError)
	if !ok {
		return
	}

	var req updateBookingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actor := booking.Actor{UserID: p.UserID, Role: p.Role}
	b, err := h.service.UpdateStatus(r.Context(), id, actor, model.BookingStatus(req.Status))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toBookingResponse(b))
}
