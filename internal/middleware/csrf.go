package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/trakapp/trak/internal/ctxkeys"
)

const (
	CSRFCookieName = "csrf_token"
	CSRFHeader     = "X-CSRF-Token"
	csrfTokenLen   = 32
)

// CSRFProtection implements the double-submit cookie pattern: unsafe
// methods must echo the csrf_token cookie in the X-CSRF-Token header.
func CSRFProtection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := getOrGenerateCSRFToken(w, r)
		ctx := ctxkeys.WithCSRFToken(r.Context(), token)

		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		if !validCSRFToken(token, r.Header.Get(CSRFHeader)) {
			slog.Warn("csrf validation failed",
				"path", r.URL.Path,
				"method", r.Method,
				"ip", getClientIP(r),
			)
			writeError(w, http.StatusForbidden, "Invalid CSRF token")
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getOrGenerateCSRFToken(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(CSRFCookieName)
	if err == nil && len(cookie.Value) == base64.RawURLEncoding.EncodedLen(csrfTokenLen) {
		return cookie.Value
	}

	token := generateCSRFToken()

	cfg := ctxkeys.Config(r.Context())
	secure := cfg != nil && cfg.CookieSecure

	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400 * 7,
	})

	return token
}

func generateCSRFToken() string {
	bytes := make([]byte, csrfTokenLen)
	_, err := rand.Read(bytes)
	if err != nil {
		panic("failed to generate csrf token: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}

func validCSRFToken(expected, actual string) bool {
	if expected == "" || actual == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(actual)) == 1
}
