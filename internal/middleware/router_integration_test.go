package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap/zapcore"

	"github.com/hitoshi/tutorhub/internal/model"
)

// newTestRouter は本番と同じ順序でミドルウェアを組み立てたchi.Routerを返す。
func newTestRouter(t *testing.T, verifier TokenVerifier, rl *RateLimiter) chi.Router {
	t.Helper()
	logger, _ := newObservedLogger()

	r := chi.NewRouter()
	r.Use(NewRecoveryMiddleware(logger))
	r.Use(NewSecurityHeadersMiddleware())
	r.Use(NewCORSMiddleware("http://localhost:3000"))
	r.Use(NewLoggingMiddleware(logger, nil))

	r.Group(func(r chi.Router) {
		r.Use(NewAuthMiddleware(verifier))
		r.Use(rl.GeneralMiddleware())
		r.With(RequireRoles(model.RoleStudent)).Post("/bookings", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
		})
	})
	return r
}

// TestRouterIntegration_ProtectedRoute_WithMiddlewareChain は
// Auth -> RateLimit -> RequireRoles のミドルウェアチェーンがchi.Routerで正しく動作することを検証する。
func TestRouterIntegration_ProtectedRoute_WithMiddlewareChain(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1, 1), nil)
	defer rl.Stop()

	verifier := &mockVerifier{principal: &model.Principal{UserID: "student-1", Role: model.RoleStudent}}
	r := newTestRouter(t, verifier, rl)

	send := func(authorization string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/bookings", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	// 認証なしは401
	if w := send(""); w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("no auth: status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}

	w := send("Bearer token")
	if w.Result().StatusCode != http.StatusCreated {
		t.Fatalf("first request: status = %d, want %d", w.Result().StatusCode, http.StatusCreated)
	}
	if got := w.Result().Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want %q", got, "nosniff")
	}
	if got := w.Result().Header.Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q, want %q", got, "no-store")
	}

	// バースト1を超えると429
	if w := send("Bearer token"); w.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("second request: status = %d, want %d", w.Result().StatusCode, http.StatusTooManyRequests)
	}
}

// TestRouterIntegration_RoleMismatch_Returns403 はロール不一致で403が返ることを検証する。
func TestRouterIntegration_RoleMismatch_Returns403(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(10, 10), nil)
	defer rl.Stop()

	verifier := &mockVerifier{principal: &model.Principal{UserID: "teacher-1", Role: model.RoleTeacher}}
	r := newTestRouter(t, verifier, rl)

	req := httptest.NewRequest(http.MethodPost, "/bookings", nil)
	req.Header.Set("Authorization", "Bearer token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
	if code := decodeErrorCode(t, w); code != model.ErrCodeForbidden {
		t.Errorf("code = %q, want %q", code, model.ErrCodeForbidden)
	}
}

// TestRouterIntegration_PanicRecovered はpanicが500の統一エラーレスポンスになることを検証する。
func TestRouterIntegration_PanicRecovered(t *testing.T) {
	logger, logs := newObservedLogger()
	r := chi.NewRouter()
	r.Use(NewRecoveryMiddleware(logger))
	r.Get("/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	if w.Result().StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusInternalServerError)
	}
	if code := decodeErrorCode(t, w); code != model.ErrCodeInternal {
		t.Errorf("code = %q, want %q", code, model.ErrCodeInternal)
	}
	if got := logs.FilterLevelExact(zapcore.ErrorLevel).Len(); got != 1 {
		t.Errorf("error log entries = %d, want 1", got)
	}
}

// TestRouterIntegration_PreflightSkipsAuth はプリフライトリクエストが認証なしで204になることを検証する。
func TestRouterIntegration_PreflightSkipsAuth(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(10, 10), nil)
	defer rl.Stop()

	r := newTestRouter(t, &mockVerifier{err: errUnused}, rl)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/bookings", nil))

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
}

var errUnused = model.NewUnauthorizedError()
