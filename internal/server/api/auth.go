package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/ayusman/handvol/internal/store"
)

type contextKey int

const userKey contextKey = iota

// TokenVerifier resolves a bearer token to a username.
type TokenVerifier interface {
	UserForToken(token string) (string, error)
}

// RequireToken rejects requests without a valid "Authorization: Bearer"
// header and stores the username in the request context.
func RequireToken(v TokenVerifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}

		user, err := v.UserForToken(token)
		if errors.Is(err, store.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		if err != nil {
			log.Printf("Error verifying token: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to verify token")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

// UserFromContext returns the username stored by RequireToken.
func UserFromContext(ctx context.Context) (string, bool) {
	user, ok := ctx.Value(userKey).(string)
	return user, ok
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(h[len(prefix):])
	return token, token != ""
}
