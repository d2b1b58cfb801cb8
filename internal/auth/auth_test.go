package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	m := NewManager("0123456789abcdef0123456789abcdef", time.Hour)

	token, err := m.Issue(42, "paola")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "paola" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	m := NewManager("0123456789abcdef0123456789abcdef", time.Hour)

	if _, err := m.Verify("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	// A token signed with a different secret fails verification.
	other := NewManager("another-secret-another-secret!!!", time.Hour)
	token, _ := other.Issue(1, "x")
	if _, err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := NewManager("0123456789abcdef0123456789abcdef", -time.Minute)
	token, _ := m.Issue(1, "x")
	if _, err := m.Verify(token); err == nil {
		t.Fatalf("expected error for expired token")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("segretissimo")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "segretissimo" {
		t.Fatalf("password stored in clear")
	}
	if !CheckPassword(hash, "segretissimo") {
		t.Fatalf("correct password rejected")
	}
	if CheckPassword(hash, "sbagliata") {
		t.Fatalf("wrong password accepted")
	}
}

func TestRequireMiddleware(t *testing.T) {
	m := NewManager("0123456789abcdef0123456789abcdef", time.Hour)

	var gotUser string
	handler := m.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := FromContext(r.Context())
		if !ok {
			t.Fatalf("claims missing from context")
		}
		gotUser = claims.Username
	}))

	// No token.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d, want 401", rec.Code)
	}

	// Garbage token.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status = %d, want 401", rec.Code)
	}

	// Valid token.
	token, _ := m.Issue(7, "paola")
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d, want 200", rec.Code)
	}
	if gotUser != "paola" {
		t.Fatalf("handler saw user %q, want paola", gotUser)
	}
}
