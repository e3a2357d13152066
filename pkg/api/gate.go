package api

import (
	"crypto/subtle"
	"net/http"
)

// SecretHeader carries the shared secret on data requests.
const SecretHeader = "Secret"

const permissionDenied = "Correct SECRET header was not provided."

// Gate admits requests whose Secret header equals the configured secret.
//
// Debug turns the check off entirely. It exists for local development only
// and must never be enabled on a reachable server.
type Gate struct {
	Secret string
	Debug  bool
}

// Permits reports whether r may read the data endpoints.
func (g Gate) Permits(r *http.Request) bool {
	if g.Debug {
		return true
	}
	got := r.Header.Get(SecretHeader)
	if got == "" || g.Secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(g.Secret)) == 1
}

// Middleware rejects requests the gate does not permit with 403.
func (g Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Permits(r) {
			writeDetail(w, http.StatusForbidden, permissionDenied)
			return
		}
		next.ServeHTTP(w, r)
	})
}
