package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/hitoshi/tutorhub/internal/auth"
	"github.com/hitoshi/tutorhub/internal/model"
)

// AdminServiceInterface は管理者ハンドラーが必要とするサービスインターフェース。
type AdminServiceInterface interface {
	ListUsers(ctx context.Context, role string, page model.Page) ([]*model.User, error)
	GetUser(ctx context.Context, userID string) (*model.User, error)
	CreateUser(ctx context.Context, in auth.RegisterInput) (*model.User, error)
	DeleteUser(ctx context.Context, userID string) error
	ListTeachers(ctx context.Context, page model.Page) ([]model.TeacherWithUser, error)
	UpdateTeacher(ctx context.Context, teacherID string, upd model.TeacherProfileUpdate) (*model.TeacherWithUser, error)
	DeleteTeacher(ctx context.Context, teacherID string) error
	ListBookings(ctx context.Context, page model.Page) ([]*model.Booking, error)
	DeleteBooking(ctx context.Context, bookingID string) error
	ListReviews(ctx context.Context, page model.Page) ([]*model.Review, error)
	DeleteReview(ctx context.Context, reviewID string) error
}

// AdminHandler は管理者向けのHTTPハンドラー。
type AdminHandler struct {
	service AdminServiceInterface
	logger  *zap.Logger
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(service AdminServiceInterface, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{
		service: service,
		logger:  logger,
	}
}

// ListUsers はユーザー一覧を返す。
// GET /admin/users?role=STUDENT&page=1&limit=10
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	users, err := h.service.ListUsers(r.Context(), r.URL.Query().Get("role"), page)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponses(users))
}

// GetUser はユーザーを返す。
// GET /admin/users/{id}
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, userNotFound)
	if !ok {
		return
	}

	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// CreateUser は任意のロールのアカウントを作成する。
// POST /admin/users
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.CreateUser(r.Context(), auth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     model.Role(req.Role),
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// DeleteUser はユーザーを削除する。関連する講師プロフィール、予約、レビューも削除される。
// DELETE /admin/users/{id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, userNotFound, h.service.DeleteUser)
}

// ListTeachers は講師一覧を返す。
// GET /admin/teachers
func (h *AdminHandler) ListTeachers(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	teachers, err := h.service.ListTeachers(r.Context(), page)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toTeacherResponses(teachers))
}

// UpdateTeacher は講師プロフィールを部分更新する。
// PATCH /admin/teachers/{id}
func (h *AdminHandler) UpdateTeacher(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, model.NewTeacherNotFoundError)
	if !ok {
		return
	}

	var req profileUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	t, err := h.service.UpdateTeacher(r.Context(), id, req.toUpdate())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toTeacherResponse(t))
}

// DeleteTeacher は講師とそのユーザーを削除する。
// DELETE /admin/teachers/{id}
func (h *AdminHandler) DeleteTeacher(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, model.NewTeacherNotFoundError, h.service.DeleteTeacher)
}

// ListBookings は予約一覧を返す。
// GET /admin/bookings
func (h *AdminHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	bookings, err := h.service.ListBookings(r.Context(), page)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toBookingResponses(bookings))
}

// DeleteBooking は予約を削除する。
// DELETE /admin/bookings/{id}
func (h *AdminHandler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, model.NewBookingNotFoundError, h.service.DeleteBooking)
}

// ListReviews はレビュー一覧を返す。
// GET /admin/reviews
func (h *AdminHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	reviews, err := h.service.ListReviews(r.Context(), page)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toReviewResponses(reviews))
}

// DeleteReview はレビューを削除する。
// DELETE /admin/reviews/{id}
func (h *AdminHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, model.NewReviewNotFoundError, h.service.DeleteReview)
}

func (h *AdminHandler) delete(w http.ResponseWriter, r *http.Request, notFound func(string) *model.APIError, fn func(ctx context.Context, id string) error) {
	id, ok := pathID(w, r, notFound)
	if !ok {
		return
	}
	if err := fn(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, deletedResponse{ID: id, Deleted: true})
}
