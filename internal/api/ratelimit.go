// Per-address throttling for the endpoints that write the save store.
package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter hands each client address its own token bucket. A bucket
// holds up to burst tokens and refills evenly over window.
type RateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	every     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type visitor struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewRateLimiter allows burst requests per window per address.
func NewRateLimiter(burst int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		visitors:  make(map[string]*visitor),
		every:     rate.Every(window / time.Duration(burst)),
		burst:     burst,
		idle:      2 * window,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// Allow takes a token for ip. When none is left it reports how long until
// the next one refills.
func (rl *RateLimiter) Allow(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > rl.idle {
		rl.sweep(now)
	}

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(rl.every, rl.burst)}
		rl.visitors[ip] = v
	}
	v.seen = now
	if v.lim.AllowN(now, 1) {
		return true, 0
	}
	r := v.lim.ReserveN(now, 1)
	wait := r.DelayFrom(now)
	r.CancelAt(now)
	return false, wait
}

// sweep forgets addresses idle long enough for their bucket to be full.
// Callers hold the lock.
func (rl *RateLimiter) sweep(now time.Time) {
	for ip, v := range rl.visitors {
		if now.Sub(v.seen) > rl.idle {
			delete(rl.visitors, ip)
		}
	}
	rl.lastSweep = now
}

// clientIP returns the caller address, preferring the first
// X-Forwarded-For entry for proxied requests.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// RateLimitMiddleware rejects throttled callers with 429 and a
// Retry-After in whole seconds.
func RateLimitMiddleware(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ok, wait := rl.Allow(clientIP(r)); !ok {
			secs := max(1, int(math.Ceil(wait.Seconds())))
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
