package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuth gates the submissions views. In development everything passes
// so the table is one click away. Outside development it enforces HTTP
// basic auth against a bcrypt hash from the environment; with no
// credentials configured the endpoints refuse all requests rather than
// fall open.
type AdminAuth struct {
	user    string
	hash    string
	devMode bool
	logger  zerolog.Logger
}

// NewAdminAuth creates the admin gate.
func NewAdminAuth(user, passwordHash string, devMode bool, logger zerolog.Logger) *AdminAuth {
	return &AdminAuth{user: user, hash: passwordHash, devMode: devMode, logger: logger}
}

// Require wraps admin endpoints.
func (a *AdminAuth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.devMode {
			next.ServeHTTP(w, r)
			return
		}

		if a.user == "" || a.hash == "" {
			a.deny(w, r, http.StatusForbidden, "admin access disabled")
			return
		}

		user, pass, ok := r.BasicAuth()
		// Run both comparisons so a wrong username costs the same as a
		// wrong password.
		userOK := ok && subtle.ConstantTimeCompare([]byte(user), []byte(a.user)) == 1
		passOK := ok && bcrypt.CompareHashAndPassword([]byte(a.hash), []byte(pass)) == nil
		if !userOK || !passOK {
			a.logger.Warn().
				Str("type", "security").
				Str("event", "admin_auth_failed").
				Str("ip", RealIP(r)).
				Msg("admin authentication failed")
			w.Header().Set("WWW-Authenticate", `Basic realm="intake admin"`)
			a.deny(w, r, http.StatusUnauthorized, "authentication required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *AdminAuth) deny(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(`{"error":"` + msg + `"}`))
		return
	}
	http.Error(w, msg, status)
}
