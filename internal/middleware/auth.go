package middleware

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	apperrors "photometa-api/internal/errors"
	"photometa-api/internal/logger"
)

// APIKeyAuth validates the X-API-Key header, or a Bearer token, against the
// configured keys using constant-time comparison. Paths in public skip the
// check.
func APIKeyAuth(apiKeys []string, public ...string) func(http.Handler) http.Handler {
	log := logger.Component("auth")

	reject := func(w http.ResponseWriter, r *http.Request, reason string) {
		err := fmt.Errorf("%w: %s", apperrors.ErrUnauthorized, reason)
		log.WithError(err).WithField("path", r.URL.Path).Warn("Rejected request")
		writeError(w, http.StatusUnauthorized, "Unauthorized: "+reason)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, p := range public {
				if r.URL.Path == p {
					next.ServeHTTP(w, r)
					return
				}
			}

			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = bearerToken(r.Header.Get("Authorization"))
			}
			if key == "" {
				reject(w, r, "missing API key")
				return
			}

			if !validKey(key, apiKeys) {
				reject(w, r, "invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func validKey(key string, apiKeys []string) bool {
	valid := false
	for _, k := range apiKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(k)) == 1 {
			valid = true
		}
	}
	return valid
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
