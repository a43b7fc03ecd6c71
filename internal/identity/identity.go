// Package identity resolves verified caller identity from bearer tokens
// minted by the external identity provider. This service verifies tokens;
// it never issues credentials to end users.
package identity

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vhpooya/remotehub/internal/domain"
)

const (
	// TokenCookieName carries the identity token for browser clients.
	TokenCookieName = "remotehub_token"
	// tokenQueryParam is the fallback for WebSocket clients, which cannot
	// set an Authorization header during the upgrade request.
	tokenQueryParam = "token"
)

type contextKey int

const (
	userIDKey contextKey = iota
	roleKey
)

// UserIDFromContext returns the resolved user ID, or 0 for an anonymous
// request.
func UserIDFromContext(ctx context.Context) int64 {
	if v, ok := ctx.Value(userIDKey).(int64); ok {
		return v
	}
	return 0
}

// RoleFromContext returns the resolved role. Anonymous requests get the
// plain user role.
func RoleFromContext(ctx context.Context) domain.Role {
	if v, ok := ctx.Value(roleKey).(domain.Role); ok {
		return v
	}
	return domain.RoleUser
}

// Claims is the token payload: standard registered claims plus the role.
// Subject holds the numeric user ID.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// ParseToken verifies an HMAC-signed token and extracts the identity.
func ParseToken(secret []byte, tokenString string) (int64, domain.Role, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return 0, "", fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return 0, "", fmt.Errorf("invalid token")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, "", fmt.Errorf("invalid subject %q", claims.Subject)
	}

	role := domain.Role(claims.Role)
	if role != domain.RoleAdmin {
		role = domain.RoleUser
	}
	return userID, role, nil
}

// NewToken mints a signed identity token. Used by tests and provisioning
// tooling, not by request handlers.
func NewToken(secret []byte, userID int64, role domain.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func tokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if c, err := r.Cookie(TokenCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return r.URL.Query().Get(tokenQueryParam)
}

// Middleware injects the verified identity into the request context. A
// request without a token proceeds anonymously; a request with a token that
// fails verification is rejected.
func Middleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := tokenFromRequest(r)
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, role, err := ParseToken(secret, tokenString)
			if err != nil {
				http.Error(w, `{"error":"invalid identity token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			ctx = context.WithValue(ctx, roleKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
