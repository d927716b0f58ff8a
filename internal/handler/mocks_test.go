package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/tutorhub/internal/auth"
	"github.com/hitoshi/tutorhub/internal/booking"
	"github.com/hitoshi/tutorhub/internal/middleware"
	"github.com/hitoshi/tutorhub/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	registerFn       func(ctx context.Context, in auth.RegisterInput) (*auth.Result, error)
	loginFn          func(ctx context.Context, email, password string) (*auth.Result, error)
	getCurrentUserFn func(ctx context.Context, userID string) (*model.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, in auth.RegisterInput) (*auth.Result, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return nil, nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*auth.Result, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, nil
}

func (m *mockAuthService) GetCurrentUser(ctx context.Context, userID string) (*model.User, error) {
	if m.getCurrentUserFn != nil {
		return m.getCurrentUserFn(ctx, userID)
	}
	return nil, nil
}

type mockBookingService struct {
	createFn         func(ctx context.Context, studentID, teacherID string, start, end time.Time) (*model.Booking, error)
	updateStatusFn   func(ctx context.Context, bookingID string, actor booking.Actor, next model.BookingStatus) (*model.Booking, error)
	listForStudentFn func(ctx context.Context, studentID string) ([]*model.Booking, error)
	listForTeacherFn func(ctx context.Context, teacherUserID string) ([]*model.Booking, error)
}

func (m *mockBookingService) Create(ctx context.Context, studentID, teacherID string, start, end time.Time) (*model.Booking, error) {
	if m.createFn != nil {
		return m.createFn(ctx, studentID, teacherID, start, end)
	}
	return nil, nil
}

func (m *mockBookingService) UpdateStatus(ctx context.Context, bookingID string, actor booking.Actor, next model.BookingStatus) (*model.Booking, error) {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, bookingID, actor, next)
	}
	return nil, nil
}

func (m *mockBookingService) ListForStudent(ctx context.Context, studentID string) ([]*model.Booking, error) {
	if m.listForStudentFn != nil {
		return m.listForStudentFn(ctx, studentID)
	}
	return nil, nil
}

func (m *mockBookingService) ListForTeacher(ctx context.Context, teacherUserID string) ([]*model.Booking, error) {
	if m.listForTeacherFn != nil {
		return m.listForTeacherFn(ctx, teacherUserID)
	}
	return nil, nil
}

type mockTeacherService struct {
	listFn             func(ctx context.Context, subject string, page model.Page) ([]model.TeacherWithUser, error)
	getFn              func(ctx context.Context, teacherID string) (*model.TeacherWithUser, error)
	scheduleFn         func(ctx context.Context, teacherID string, day time.Time) ([]*model.Schedule, error)
	getOwnProfileFn    func(ctx context.Context, userID string) (*model.TeacherWithUser, error)
	updateOwnProfileFn func(ctx context.Context, userID string, upd model.TeacherProfileUpdate) (*model.TeacherWithUser, error)
	ownScheduleFn      func(ctx context.Context, userID string, day time.Time) ([]*model.Schedule, error)
	addOwnSlotFn       func(ctx context.Context, userID string, start, end time.Time) (*model.Schedule, error)
	deleteOwnSlotFn    func(ctx context.Context, userID, slotID string) error
	ownReviewsFn       func(ctx context.Context, userID string) ([]*model.Review, error)
}

func (m *mockTeacherService) List(ctx context.Context, subject string, page model.Page) ([]model.TeacherWithUser, error) {
	if m.listFn != nil {
		return m.listFn(ctx, subject, page)
	}
	return nil, nil
}

func (m *mockTeacherService) Get(ctx context.Context, teacherID string) (*model.TeacherWithUser, error) {
	if m.getFn != nil {
		return m.getFn(ctx, teacherID)
	}
	return nil, nil
}

func (m *mockTeacherService) Schedule(ctx context.Context, teacherID string, day time.Time) ([]*model.Schedule, error) {
	if m.scheduleFn != nil {
		return m.scheduleFn(ctx, teacherID, day)
	}
	return nil, nil
}

func (m *mockTeacherService) GetOwnProfile(ctx context.Context, userID string) (*model.TeacherWithUser, error) {
	if m.getOwnProfileFn != nil {
		return m.getOwnProfileFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockTeacherService) UpdateOwnProfile(ctx context.Context, userID string, upd model.TeacherProfileUpdate) (*model.TeacherWithUser, error) {
	if m.updateOwnProfileFn != nil {
		return m.updateOwnProfileFn(ctx, userID, upd)
	}
	return nil, nil
}

func (m *mockTeacherService) OwnSchedule(ctx context.Context, userID string, day time.Time) ([]*model.Schedule, error) {
	if m.ownScheduleFn != nil {
		return m.ownScheduleFn(ctx, userID, day)
	}
	return nil, nil
}

func (m *mockTeacherService) AddOwnSlot(ctx context.Context, userID string, start, end time.Time) (*model.Schedule, error) {
	if m.addOwnSlotFn != nil {
		return m.addOwnSlotFn(ctx, userID, start, end)
	}
	return nil, nil
}

func (m *mockTeacherService) DeleteOwnSlot(ctx context.Context, userID, slotID string) error {
	if m.deleteOwnSlotFn != nil {
		return m.deleteOwnSlotFn(ctx, userID, slotID)
	}
	return nil
}

func (m *mockTeacherService) OwnReviews(ctx context.Context, userID string) ([]*model.Review, error) {
	if m.ownReviewsFn != nil {
		return m.ownReviewsFn(ctx, userID)
	}
	return nil, nil
}

type mockReviewService struct {
	createFn         func(ctx context.Context, studentID, teacherID string, rating int, comment string) (*model.Review, error)
	listForTeacherFn func(ctx context.Context, teacherID string) ([]*model.Review, error)
}

func (m *mockReviewService) Create(ctx context.Context, studentID, teacherID string, rating int, comment string) (*model.Review, error) {
	if m.createFn != nil {
		return m.createFn(ctx, studentID, teacherID, rating, comment)
	}
	return nil, nil
}

func (m *mockReviewService) ListForTeacher(ctx context.Context, teacherID string) ([]*model.Review, error) {
	if m.listForTeacherFn != nil {
		return m.listForTeacherFn(ctx, teacherID)
	}
	return nil, nil
}

type mockAdminService struct {
	listUsersFn     func(ctx context.Context, role string, page model.Page) ([]*model.User, error)
	getUserFn       func(ctx context.Context, userID string) (*model.User, error)
	createUserFn    func(ctx context.Context, in auth.RegisterInput) (*model.User, error)
	deleteUserFn    func(ctx context.Context, userID string) error
	listTeachersFn  func(ctx context.Context, page model.Page) ([]model.TeacherWithUser, error)
	updateTeacherFn func(ctx context.Context, teacherID string, upd model.TeacherProfileUpdate) (*model.TeacherWithUser, error)
	deleteTeacherFn func(ctx context.Context, teacherID string) error
	listBookingsFn  func(ctx context.Context, page model.Page) ([]*model.Booking, error)
	deleteBookingFn func(ctx context.Context, bookingID string) error
	listReviewsFn   func(ctx context.Context, page model.Page) ([]*model.Review, error)
	deleteReviewFn  func(ctx context.Context, reviewID string) error
}

func (m *mockAdminService) ListUsers(ctx context.Context, role string, page model.Page) ([]*model.User, error) {
	if m.listUsersFn != nil {
		return m.listUsersFn(ctx, role, page)
	}
	return nil, nil
}

func (m *mockAdminService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	if m.getUserFn != nil {
		return m.getUserFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockAdminService) CreateUser(ctx context.Context, in auth.RegisterInput) (*model.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(ctx, in)
	}
	return nil, nil
}

func (m *mockAdminService) DeleteUser(ctx context.Context, userID string) error {
	if m.deleteUserFn != nil {
		return m.deleteUserFn(ctx, userID)
	}
	return nil
}

func (m *mockAdminService) ListTeachers(ctx context.Context, page model.Page) ([]model.TeacherWithUser, error) {
	if m.listTeachersFn != nil {
		return m.listTeachersFn(ctx, page)
	}
	return nil, nil
}

func (m *mockAdminService) UpdateTeacher(ctx context.Context, teacherID string, upd model.TeacherProfileUpdate) (*model.TeacherWithUser, error) {
	if m.updateTeacherFn != nil {
		return m.updateTeacherFn(ctx, teacherID, upd)
	}
	return nil, nil
}

func (m *mockAdminService) DeleteTeacher(ctx context.Context, teacherID string) error {
	if m.deleteTeacherFn != nil {
		return m.deleteTeacherFn(ctx, teacherID)
	}
	return nil
}

func (m *mockAdminService) ListBookings(ctx context.Context, page model.Page) ([]*model.Booking, error) {
	if m.listBookingsFn != nil {
		return m.listBookingsFn(ctx, page)
	}
	return nil, nil
}

func (m *mockAdminService) DeleteBooking(ctx context.Context, bookingID string) error {
	if m.deleteBookingFn != nil {
		return m.deleteBookingFn(ctx, bookingID)
	}
	return nil
}

func (m *mockAdminService) ListReviews(ctx context.Context, page model.Page) ([]*model.Review, error) {
	if m.listReviewsFn != nil {
		return m.listReviewsFn(ctx, page)
	}
	return nil, nil
}

func (m *mockAdminService) DeleteReview(ctx context.Context, reviewID string) error {
	if m.deleteReviewFn != nil {
		return m.deleteReviewFn(ctx, reviewID)
	}
	return nil
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.err
}

// --- テストヘルパー ---

// withPrincipal はテスト用にリクエストコンテキストに認証主体を注入するヘルパー。
func withPrincipal(r *http.Request, userID string, role model.Role) *http.Request {
	ctx := middleware.ContextWithPrincipal(r.Context(), &model.Principal{UserID: userID, Role: role})
	return r.WithContext(ctx)
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// テストで使うID。ハンドラーはUUID形式でないIDを該当なしとして扱う。
const (
	testTeacherID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	testBookingID = "9b2d4e1a-6c3f-4f7e-8a51-2f0d3c6b7e12"
	testSlotID    = "3f8a1c2e-5b7d-4e9f-a1c3-6d2e8f4b0a57"
	testReviewID  = "d41c7e8b-2a9f-4b36-8e05-71c3a9f2d6b4"
	missingID     = "00000000-0000-4000-8000-000000000404"
	brokenID      = "00000000-0000-4000-8000-000000000500"
	bookedID      = "00000000-0000-4000-8000-000000000409"
	malformedID   = "not-a-uuid"
)

// jsonBody は値をJSONにエンコードしたリクエストボディを返す。
func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	return bytes.NewReader(b)
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

// decodeBody はレスポンスボディを汎用マップにデコードするヘルパー。
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return result
}

// decodeList はレスポンスボディをマップのスライスにデコードするヘルパー。
func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var result []map[string]any
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return result
}
