package searchtest

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// authMiddleware enforces the configured credentials. With none configured
// every request passes.
func authMiddleware(cfg config) func(http.Handler) http.Handler {
	validKeys := make(map[string]struct{}, len(cfg.tokens))
	for _, k := range cfg.tokens {
		if k != "" {
			validKeys[k] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		if len(validKeys) == 0 && cfg.user == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, "security_exception", "missing authentication credentials")
				return
			}

			if user, pass, ok := r.BasicAuth(); ok && cfg.user != "" {
				if subtle.ConstantTimeCompare([]byte(user), []byte(cfg.user)) == 1 &&
					subtle.ConstantTimeCompare([]byte(pass), []byte(cfg.password)) == 1 {
					next.ServeHTTP(w, r)
					return
				}
				writeError(w, http.StatusUnauthorized, "security_exception", "invalid username or password")
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized, "security_exception", "unsupported authorization scheme")
				return
			}
			if _, ok := validKeys[auth[len(bearerPrefix):]]; !ok {
				writeError(w, http.StatusUnauthorized, "security_exception", "invalid bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
