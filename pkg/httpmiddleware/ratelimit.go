package httpmiddleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig bounds the number of requests one client may make per
// window. A zero Max disables limiting.
type RateLimitConfig struct {
	Max    int           `default:"120" usage:"requests per window and client, 0 disables"`
	Window time.Duration `default:"1m" usage:"rate limit window"`
}

type window struct {
	start time.Time
	count int
}

// limiter counts requests per key in fixed windows.
type limiter struct {
	max    int
	window time.Duration

	mu      sync.Mutex
	windows map[string]*window
}

// take records one request of key and reports whether it is allowed, how
// many remain and when the window resets.
func (l *limiter) take(key string, now time.Time) (ok bool, remaining int, reset time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, found := l.windows[key]
	if !found || now.Sub(w.start) >= l.window {
		w = &window{start: now.Truncate(l.window)}
		l.windows[key] = w
	}
	reset = w.start.Add(l.window)
	if w.count >= l.max {
		return false, 0, reset
	}
	w.count++
	return true, l.max - w.count, reset
}

func (l *limiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, w := range l.windows {
		if now.Sub(w.start) >= l.window {
			delete(l.windows, key)
		}
	}
}

// RateLimit limits requests per client IP. It returns nil when cfg.Max is
// zero, which Wrap skips. Expired windows are swept every
// window until ctx is done. Rejected requests get 429 with Retry-After.
func RateLimit(ctx context.Context, cfg RateLimitConfig) Middleware {
	if cfg.Max <= 0 {
		return nil
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	l := &limiter{max: cfg.Max, window: cfg.Window, windows: make(map[string]*window)}

	go func() {
		ticker := time.NewTicker(cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				l.sweep(now)
			}
		}
	}()

	limit := strconv.Itoa(cfg.Max)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			ok, remaining, reset := l.take(ClientIP(r), now)

			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
			if !ok {
				secs := int(reset.Sub(now).Seconds()) + 1
				h.Set("Retry-After", strconv.Itoa(secs))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the first X-Forwarded-For hop, X-Real-IP or the remote
// address host, in that order.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
