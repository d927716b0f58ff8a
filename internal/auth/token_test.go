package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/tutorhub/internal/model"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	user := &model.User{ID: "user-1", Email: "a@example.com", Role: model.RoleTeacher}

	token, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	principal, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if principal.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", principal.UserID, "user-1")
	}
	if principal.Email != "a@example.com" {
		t.Errorf("Email = %q, want %q", principal.Email, "a@example.com")
	}
	if principal.Role != model.RoleTeacher {
		t.Errorf("Role = %q, want %q", principal.Role, model.RoleTeacher)
	}
}

func TestTokenIssuer_RejectsInvalidTokens(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	user := &model.User{ID: "user-1", Email: "a@example.com", Role: model.RoleStudent}

	valid, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	expiredIssuer := NewTokenIssuer("secret", time.Hour)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredIssuer.Issue(user)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	otherSecret, err := NewTokenIssuer("other", time.Hour).Issue(user)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub":  "user-1",
		"role": "ADMIN",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to build unsigned token: %v", err)
	}

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "user-1",
		"role": "STUDENT",
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("failed to build token: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"空文字列", ""},
		{"不正な形式", "not.a.token"},
		{"期限切れ", expired},
		{"異なる秘密鍵", otherSecret},
		{"署名なし", none},
		{"有効期限なし", noExp},
		{"改ざん", valid + "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Verify(tt.token)
			if !model.IsCode(err, model.ErrCodeUnauthorized) {
				t.Errorf("Verify() error = %v, want UNAUTHORIZED", err)
			}
		})
	}
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(4)

	hash, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if hash == "secret1" {
		t.Fatal("hash must differ from the plain password")
	}

	ok, err := h.Compare(hash, "secret1")
	if err != nil || !ok {
		t.Errorf("Compare(correct) = %v, %v; want true, nil", ok, err)
	}
	ok, err = h.Compare(hash, "wrong")
	if err != nil || ok {
		t.Errorf("Compare(wrong) = %v, %v; want false, nil", ok, err)
	}
	if _, err := h.Compare("not-a-hash", "secret1"); err == nil {
		t.Error("Compare with malformed hash should return error")
	}
}

func TestNewBcryptHasher_FallsBackToDefaultCost(t *testing.T) {
	if h := NewBcryptHasher(0); h.cost != 10 {
		t.Errorf("cost = %d, want 10", h.cost)
	}
}
