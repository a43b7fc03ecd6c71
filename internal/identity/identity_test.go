package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vhpooya/remotehub/internal/domain"
)

var testSecret = []byte("test-secret")

func TestTokenRoundTrip(t *testing.T) {
	token, err := NewToken(testSecret, 42, domain.RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("NewToken failed: %v", err)
	}

	userID, role, err := ParseToken(testSecret, token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if userID != 42 {
		t.Errorf("Expected user 42, got %d", userID)
	}
	if role != domain.RoleAdmin {
		t.Errorf("Expected admin role, got %q", role)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := NewToken(testSecret, 42, domain.RoleUser, time.Hour)
	if err != nil {
		t.Fatalf("NewToken failed: %v", err)
	}

	if _, _, err := ParseToken([]byte("other-secret"), token); err == nil {
		t.Error("Expected verification failure with wrong secret")
	}
}

func TestParseTokenExpired(t *testing.T) {
	token, err := NewToken(testSecret, 42, domain.RoleUser, -time.Minute)
	if err != nil {
		t.Fatalf("NewToken failed: %v", err)
	}

	if _, _, err := ParseToken(testSecret, token); err == nil {
		t.Error("Expected expired token to fail verification")
	}
}

func TestParseTokenUnknownRoleDowngraded(t *testing.T) {
	token, err := NewToken(testSecret, 42, domain.Role("superuser"), time.Hour)
	if err != nil {
		t.Fatalf("NewToken failed: %v", err)
	}

	_, role, err := ParseToken(testSecret, token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if role != domain.RoleUser {
		t.Errorf("Expected unknown role to downgrade to user, got %q", role)
	}
}

func runMiddleware(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, int64, domain.Role) {
	t.Helper()

	var userID int64
	var role domain.Role
	handler := Middleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID = UserIDFromContext(r.Context())
		role = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w, userID, role
}

func TestMiddleware_BearerToken(t *testing.T) {
	token, err := NewToken(testSecret, 7, domain.RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("NewToken failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w, userID, role := runMiddleware(t, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if userID != 7 || role != domain.RoleAdmin {
		t.Errorf("Expected user 7/admin, got %d/%q", userID, role)
	}
}

func TestMiddleware_QueryToken(t *testing.T) {
	token, err := NewToken(testSecret, 7, domain.RoleUser, time.Hour)
	if err != nil {
		t.Fatalf("NewToken failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/ws/control?token="+token, nil)

	w, userID, _ := runMiddleware(t, req)
	if w.Code != http.StatusOK || userID != 7 {
		t.Errorf("Expected query token to resolve user 7, got code=%d user=%d", w.Code, userID)
	}
}

func TestMiddleware_AnonymousAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	w, userID, role := runMiddleware(t, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected anonymous request to pass, got %d", w.Code)
	}
	if userID != 0 || role != domain.RoleUser {
		t.Errorf("Expected anonymous identity, got %d/%q", userID, role)
	}
}

func TestMiddleware_InvalidTokenRejected(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")

	w, _, _ := runMiddleware(t, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for invalid token, got %d", w.Code)
	}
}
