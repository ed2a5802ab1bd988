package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"

	"honeytrap/pkg/logger"
)

// ContextKey is a type for context keys
type ContextKey string

const (
	// ContextKeyAPIKey is the context key for the API key
	ContextKeyAPIKey ContextKey = "api_key"
)

// HeaderAPIKey carries the shared secret
const HeaderAPIKey = "X-API-Key"

// APIKeyAuth rejects requests whose X-API-Key does not match key. An empty
// key disables the check.
func APIKeyAuth(key string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip auth for OPTIONS requests (CORS preflight)
			if r.Method == http.MethodOptions || key == "" {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get(HeaderAPIKey)
			if provided == "" {
				writeError(w, http.StatusUnauthorized, "missing API key")
				return
			}
			if !keysEqual(provided, key) {
				writeError(w, http.StatusUnauthorized, "invalid API key")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyAPIKey, provided)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SoftAPIKeyAuth logs a missing or wrong X-API-Key but always lets the
// request through. The conversation platform must never see a rejection.
func SoftAPIKeyAuth(key string, log *logger.Logger) func(next http.Handler) http.Handler {
	log = log.WithComponent("auth")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get(HeaderAPIKey)
			if key != "" && !keysEqual(provided, key) {
				log.Warn().
					Str("path", r.URL.Path).
					Bool("key_present", provided != "").
					Msg("API key mismatch, continuing")
			}
			if provided != "" {
				r = r.WithContext(context.WithValue(r.Context(), ContextKeyAPIKey, provided))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetAPIKey returns the API key from context
func GetAPIKey(ctx context.Context) string {
	if key, ok := ctx.Value(ContextKeyAPIKey).(string); ok {
		return key
	}
	return ""
}

func keysEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
