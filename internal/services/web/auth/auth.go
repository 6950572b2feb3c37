// Package auth verifies bearer tokens and scopes requests to a user.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mirajournal/mira/internal/services/web/platform/httpx"
)

type contextKey struct{}

var userIDKey contextKey

// Verifier validates HS256 bearer tokens issued for API users.
type Verifier struct {
	secret []byte
}

// NewVerifier constructs a token verifier over a shared signing secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// IssueToken signs a token whose subject is the user id. It backs local
// development and tests; production tokens come from the identity service
// sharing the same secret.
func (v *Verifier) IssueToken(userID string, ttl time.Duration) (string, error) {
	if v == nil || len(v.secret) == 0 {
		return "", fmt.Errorf("signing secret is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// RequireUser rejects requests without a valid bearer token and stores the
// token subject in the request context.
func (v *Verifier) RequireUser() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := v.userFromRequest(r)
			if err != nil {
				_ = httpx.WriteFailure(w, http.StatusUnauthorized, "authentication required")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func (v *Verifier) userFromRequest(r *http.Request) (string, error) {
	if v == nil || len(v.secret) == 0 {
		return "", fmt.Errorf("signing secret is not configured")
	}
	if r == nil {
		return "", fmt.Errorf("request is required")
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("missing bearer token")
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(strings.TrimSpace(token), claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return "", fmt.Errorf("token is not valid")
	}
	userID := strings.TrimSpace(claims.Subject)
	if userID == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return userID, nil
}

// WithUserID returns a context carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the authenticated user id, or empty when absent.
func UserID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}
