package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"

	"honeytrap/pkg/logger"
)

// FallbackRecoverer turns a panic into a 200 response carrying body, so a
// caller that only understands success replies keeps the conversation going.
func FallbackRecoverer(body any, log *logger.Logger) func(next http.Handler) http.Handler {
	payload, err := json.Marshal(body)
	if err != nil {
		panic(fmt.Sprintf("fallback body is not JSON encodable: %v", err))
	}
	log = log.WithComponent("recoverer")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error().
					Str("panic", fmt.Sprint(rec)).
					Str("stack", string(debug.Stack())).
					Str("path", r.URL.Path).
					Str("request_id", middleware.GetReqID(r.Context())).
					Msg("handler panicked, sending fallback reply")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(payload)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
