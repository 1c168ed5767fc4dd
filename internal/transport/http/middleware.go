package http

import (
	"net/http"
	"strings"

	"github.com/ssdl-lang/ssdlc/internal/port"
)

// APIKeyMiddleware gates requests behind hashed API keys. Keys arrive as
// "Authorization: Bearer <id>.<secret>" or "X-API-Key". A nil store or
// required=false passes everything through.
func APIKeyMiddleware(store port.KeyStore, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !required || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			key := presentedKey(r)
			if key == "" {
				writeError(w, http.StatusUnauthorized, "API key required")
				return
			}
			ok, err := store.Verify(r.Context(), key)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "key verification failed")
				return
			}
			if !ok {
				writeError(w, http.StatusUnauthorized, "invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func presentedKey(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return r.Header.Get("X-API-Key")
}
