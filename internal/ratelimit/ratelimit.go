// Package ratelimit enforces the per-identity ceiling on pipeline requests with
// a sliding window kept in Redis. When the store fails the request is allowed.
package ratelimit

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/watching-app/watching/internal/logging"
	"github.com/watching-app/watching/internal/metrics"
)

// Store keeps one timestamp per accepted request under key.
type Store interface {
	// Take drops entries older than now-window and, when fewer than limit
	// remain, records now. Both happen in one step so concurrent callers
	// cannot overshoot limit. It reports whether now was recorded and, when
	// it was not, the oldest timestamp still in the window.
	Take(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (bool, time.Time, error)
}

type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	now    func() time.Time
}

// New returns a Limiter allowing limit requests per window. A nil store
// disables limiting.
func New(store Store, limit int, window time.Duration) *Limiter {
	return &Limiter{store: store, limit: limit, window: window, now: time.Now}
}

func keyFor(identity string) string {
	return "rl:recommendations:" + identity
}

// Allow reports whether identity may make another request, and if not, how
// long until the oldest request in the window ages out.
func (l *Limiter) Allow(ctx context.Context, identity string) (bool, time.Duration) {
	if l.store == nil {
		return true, 0
	}

	now := l.now()
	key := keyFor(identity)

	allowed, oldest, err := l.store.Take(ctx, key, now, l.window, l.limit)
	if err != nil {
		metrics.RateLimitDecisions.WithLabelValues("store_error").Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("identity", identity).Msg("rate limit store unavailable, allowing request")
		return true, 0
	}

	if !allowed {
		metrics.RateLimitDecisions.WithLabelValues("limited").Inc()
		retry := l.window
		if !oldest.IsZero() {
			retry = oldest.Add(l.window).Sub(now)
		}
		if retry < time.Second {
			retry = time.Second
		}
		return false, retry
	}

	metrics.RateLimitDecisions.WithLabelValues("allowed").Inc()
	return true, 0
}

// Middleware rejects requests over the limit with 429 and Retry-After.
// identify maps a request to the identity it is counted against.
func (l *Limiter) Middleware(identify func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, retry := l.Allow(r.Context(), identify(r))
			if !allowed {
				secs := int(math.Ceil(retry.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]any{
					"error":       "Too many requests, please try again later",
					"retry_after": secs,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
