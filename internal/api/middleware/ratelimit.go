package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"honeytrap/internal/config"
	"honeytrap/pkg/logger"
)

// RateLimitStore counts requests per client in a shared window
type RateLimitStore interface {
	CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, time.Time, error)
}

// RateLimiter returns middleware that implements rate limiting. With a
// store the window is shared across replicas; without one, or while the
// store is failing, a per-process token bucket applies.
func RateLimiter(store RateLimitStore, cfg config.RateLimitConfig, log *logger.Logger) func(next http.Handler) http.Handler {
	local := newLocalLimiter(cfg)
	log = log.WithComponent("ratelimit")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip rate limiting for OPTIONS
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			clientID := getClientID(r)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.RequestsPerMinute))

			if store != nil {
				allowed, remaining, resetTime, err := store.CheckRateLimit(
					r.Context(),
					clientID,
					int64(cfg.RequestsPerMinute),
					time.Minute,
				)
				if err == nil {
					w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
					w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

					if !allowed {
						retry := int64(time.Until(resetTime).Seconds())
						if retry < 1 {
							retry = 1
						}
						w.Header().Set("Retry-After", strconv.FormatInt(retry, 10))
						writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
						return
					}
					next.ServeHTTP(w, r)
					return
				}
				log.Warn().Err(err).Str("client", clientID).Msg("rate limit store unavailable, using local limiter")
			}

			if !local.allow(clientID) {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// localLimiter keeps one token bucket per client
type localLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*rate.Limiter
}

func newLocalLimiter(cfg config.RateLimitConfig) *localLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &localLimiter{
		limit:   rate.Limit(float64(cfg.RequestsPerMinute) / 60),
		burst:   burst,
		clients: make(map[string]*rate.Limiter),
	}
}

func (l *localLimiter) allow(clientID string) bool {
	l.mu.Lock()
	lim, ok := l.clients[clientID]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.clients[clientID] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// getClientID returns a unique identifier for the client
func getClientID(r *http.Request) string {
	// First try API key
	if apiKey := GetAPIKey(r.Context()); apiKey != "" {
		return fmt.Sprintf("key:%s", apiKey)
	}

	// RealIP has already folded X-Forwarded-For / X-Real-IP into RemoteAddr
	return fmt.Sprintf("ip:%s", r.RemoteAddr)
}
