package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/tutorhub/internal/model"
)

// --- モック定義 ---

type mockVerifier struct {
	principal *model.Principal
	err       error
	gotToken  string
}

func (m *mockVerifier) Verify(token string) (*model.Principal, error) {
	m.gotToken = token
	if m.err != nil {
		return nil, m.err
	}
	return m.principal, nil
}

func decodeErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return body.Code
}

func TestAuthMiddleware_ValidToken_InjectsPrincipal(t *testing.T) {
	verifier := &mockVerifier{principal: &model.Principal{UserID: "user-1", Email: "a@example.com", Role: model.RoleTeacher}}

	var captured *model.Principal
	handler := NewAuthMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if verifier.gotToken != "abc.def.ghi" {
		t.Errorf("verified token = %q, want %q", verifier.gotToken, "abc.def.ghi")
	}
	if captured == nil || captured.UserID != "user-1" || captured.Role != model.RoleTeacher {
		t.Errorf("principal = %+v, want user-1 as TEACHER", captured)
	}
}

func TestAuthMiddleware_RejectsMissingOrInvalidToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		err    error
	}{
		{"ヘッダーなし", "", nil},
		{"Bearer以外の方式", "Basic dXNlcjpwYXNz", nil},
		{"トークンが空", "Bearer ", nil},
		{"検証失敗", "Bearer expired", errors.New("token expired")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := &mockVerifier{principal: &model.Principal{UserID: "user-1"}, err: tt.err}
			handler := NewAuthMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be called")
			}))

			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Result().StatusCode != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
			}
			if code := decodeErrorCode(t, w); code != model.ErrCodeUnauthorized {
				t.Errorf("code = %q, want %q", code, model.ErrCodeUnauthorized)
			}
		})
	}
}

func TestRequireRoles(t *testing.T) {
	tests := []struct {
		name       string
		principal  *model.Principal
		statusCode int
	}{
		{"許可ロール", &model.Principal{UserID: "u1", Role: model.RoleStudent}, http.StatusOK},
		{"許可されていないロール", &model.Principal{UserID: "u1", Role: model.RoleTeacher}, http.StatusForbidden},
		{"認証主体なし", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireRoles(model.RoleStudent, model.RoleAdmin)(okHandler())

			req := httptest.NewRequest(http.MethodPost, "/bookings", nil)
			if tt.principal != nil {
				req = req.WithContext(ContextWithPrincipal(req.Context(), tt.principal))
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Result().StatusCode != tt.statusCode {
				t.Errorf("status = %d, want %d", w.Result().StatusCode, tt.statusCode)
			}
		})
	}
}

func TestUserIDFromContext(t *testing.T) {
	if _, err := UserIDFromContext(context.Background()); err == nil {
		t.Error("expected error for empty context")
	}

	ctx := ContextWithPrincipal(context.Background(), &model.Principal{UserID: "user-9"})
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "user-9" {
		t.Errorf("userID = %q, want %q", userID, "user-9")
	}
}
