package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"therapy-support-go/internal/auth"
)

type contextKey int

const userKey contextKey = iota

// User is the authenticated caller identity: trusted downstream, verified
// only here.
type User struct {
	ID    string
	Email string
	Role  string
}

type JWTAuth struct {
	tokens *auth.Manager
}

func NewJWTAuth(tokens *auth.Manager) *JWTAuth {
	return &JWTAuth{tokens: tokens}
}

func (a *JWTAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			unauthorized(w)
			return
		}

		claims, err := a.tokens.Parse(token)
		if err != nil {
			unauthorized(w)
			return
		}

		ctx := WithUser(r.Context(), User{
			ID:    claims.UserID,
			Email: claims.Email,
			Role:  claims.Role,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(value string) (string, bool) {
	parts := strings.Fields(value)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func UserFromContext(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(userKey).(User)
	if !ok || user.ID == "" {
		return User{}, false
	}
	return user, true
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    "invalid_token",
			"message": "invalid token",
		},
	})
}
