package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/mmadness/spread-pool/internal/httputil"
)

const adminSessionKey = "isAdmin"

// RequireAdmin gates a route group on the admin session flag set by
// LoginAdmin.
func RequireAdmin(sessionManager *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !sessionManager.GetBool(r.Context(), adminSessionKey) {
				httputil.Unauthorized(w, "admin session required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoginAdmin marks the session as admin when the shared secret matches.
func LoginAdmin(r *http.Request, sessionManager *scs.SessionManager, secret, provided string) bool {
	if secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(provided)) != 1 {
		return false
	}
	sessionManager.Put(r.Context(), adminSessionKey, true)
	return true
}

func LogoutAdmin(r *http.Request, sessionManager *scs.SessionManager) {
	sessionManager.Remove(r.Context(), adminSessionKey)
}
