package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/filesmanager/filesmanager/internal/ctxkeys"
	"github.com/filesmanager/filesmanager/internal/service"
)

// TokenHeader carries the session token issued by /connect.
const TokenHeader = "X-Token"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// Auth resolves the X-Token header and adds the user id and token to the
// context if valid. Requests without a valid token continue anonymously.
func Auth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(TokenHeader)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := auth.Authenticate(r.Context(), token)
			if errors.Is(err, service.ErrUnauthorized) {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				slog.Error("failed to authenticate request", "error", err, "path", r.URL.Path)
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			ctx := ctxkeys.WithUserID(r.Context(), userID)
			ctx = ctxkeys.WithToken(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests with 401 before the handler runs.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.UserID(r.Context()) == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	}
}
