package middleware

import (
	"net/http"

	"github.com/trakapp/trak/internal/ctxkeys"
	"github.com/trakapp/trak/internal/service"
)

// AuthMiddleware loads the user named by a valid auth_token cookie into the context.
// Requests without a usable cookie continue anonymously.
func AuthMiddleware(authService *service.AuthService, userService *service.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(service.AuthCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := authService.VerifyJWT(cookie.Value)
			if err != nil {
				authService.ClearJWTCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			user, err := userService.ByID(userID)
			if err != nil {
				// Deleted user, or a memory store that was restarted
				authService.ClearJWTCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			user.PasswordHash = nil

			ctx := ctxkeys.WithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.User(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	}
}

// RequireSubject resolves the ?userId= parameter. It defaults to the caller;
// acting on anyone else requires the admin role.
func RequireSubject(next http.HandlerFunc) http.HandlerFunc {
	return RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		user := ctxkeys.User(r.Context())

		subjectID := r.URL.Query().Get("userId")
		if subjectID == "" {
			subjectID = user.ID
		}

		if subjectID != user.ID && !user.IsAdmin() {
			writeError(w, http.StatusForbidden, "You can only access your own data")
			return
		}

		ctx := ctxkeys.WithSubjectID(r.Context(), subjectID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
