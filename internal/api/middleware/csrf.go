package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CSRFCookieName is the double-submit cookie holding the form token.
const CSRFCookieName = "csrf_token"

// CSRFFieldName is the hidden form field that carries the token back.
const CSRFFieldName = "csrf_token"

// EnsureCSRFCookie returns the request's CSRF token, minting a fresh one
// into the cookie when absent. The form page embeds the returned value in
// a hidden field.
func EnsureCSRFCookie(w http.ResponseWriter, r *http.Request, secure bool) string {
	if c, err := r.Cookie(CSRFCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	token := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return token
}

// RequireCSRF rejects form posts whose hidden field does not match the
// cookie (double-submit check).
func RequireCSRF(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CSRFCookieName)
			field := r.PostFormValue(CSRFFieldName)
			if err != nil || cookie.Value == "" || field == "" ||
				subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(field)) != 1 {
				logger.Warn().
					Str("type", "security").
					Str("event", "csrf_rejected").
					Str("ip", RealIP(r)).
					Msg("csrf token missing or mismatched")
				http.Error(w, "invalid or missing CSRF token", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
