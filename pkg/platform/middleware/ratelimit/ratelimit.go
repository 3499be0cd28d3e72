// Package ratelimit throttles the public verification endpoint per client
// IP. A fixed window keeps the bookkeeping cheap; limits on admin routes are
// unnecessary since they sit behind auth.
package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"unicred/pkg/requestcontext"
)

type window struct {
	start time.Time
	count int
}

// Limiter is a fixed-window per-IP request limiter.
type Limiter struct {
	limit  int
	window time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// New builds a limiter allowing limit requests per rolling window per IP.
func New(limit int, windowSize time.Duration, logger *slog.Logger, opts ...Option) *Limiter {
	if limit <= 0 {
		limit = 60
	}
	if windowSize <= 0 {
		windowSize = time.Minute
	}
	l := &Limiter{
		limit:   limit,
		window:  windowSize,
		logger:  logger,
		now:     time.Now,
		windows: make(map[string]*window),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// allow counts one request for ip and reports whether it fits the window,
// plus the remaining budget and the wait until reset.
func (l *Limiter) allow(ip string) (bool, int, time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.windows[ip]
	if w == nil || now.Sub(w.start) >= l.window {
		// Window rollover is also when stale IPs get dropped.
		if len(l.windows) > 10000 {
			l.windows = make(map[string]*window)
		}
		w = &window{start: now}
		l.windows[ip] = w
	}

	w.count++
	remaining := l.limit - w.count
	if remaining < 0 {
		remaining = 0
	}
	return w.count <= l.limit, remaining, l.window - now.Sub(w.start)
}

// Middleware enforces the limit, exposing standard rate limit headers.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := requestcontext.ClientIP(r.Context())
		if ip == "" {
			ip = r.RemoteAddr
		}

		allowed, remaining, reset := l.allow(ip)
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			retryAfter := int(reset.Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			l.logger.WarnContext(r.Context(), "rate limit exceeded",
				"ip", ip, "request_id", requestcontext.RequestID(r.Context()))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate_limited","error_description":"Too many requests"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
