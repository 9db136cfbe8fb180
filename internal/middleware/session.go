package middleware

import (
	"net/http"

	"github.com/hongminglow/paper-trader/internal/auth"
	"github.com/hongminglow/paper-trader/internal/logging"
)

// ErrorWriter renders a failed request.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// RequireSession resolves the request's session token and stores the identity
// in the context. Requests without a live session go to fail.
func RequireSession(sessions *auth.SessionManager, fail ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := sessions.Resolve(r.Context(), auth.TokenFromRequest(r))
			if err != nil {
				fail(w, r, err)
				return
			}
			ctx := auth.WithIdentity(r.Context(), id)
			ctx = logging.WithLogger(ctx, logging.FromContext(ctx).WithField("user_id", id.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
