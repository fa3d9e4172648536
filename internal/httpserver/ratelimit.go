package httpserver

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// sweepEvery is how many lookups pass between idle-bucket sweeps.
	sweepEvery = 1024
	// bucketIdleTTL is how long a client bucket survives without traffic.
	bucketIdleTTL = 10 * time.Minute
)

// Budget is a token bucket shape applied to each client separately. Routes
// sharing a budget name share the client's bucket.
type Budget struct {
	Name  string
	Limit rate.Limit
	Burst int
}

// retryAfter is the whole number of seconds until the bucket refills one token.
func (b Budget) retryAfter() int {
	if b.Limit <= 0 || b.Limit == rate.Inf {
		return 1
	}
	return int(math.Max(1, math.Ceil(1/float64(b.Limit))))
}

type bucketKey struct {
	budget string
	client string
}

type bucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// ClientLimiter holds the per-client buckets of every budget mounted on a router.
type ClientLimiter struct {
	mu      sync.Mutex
	buckets map[bucketKey]*bucket
	lookups int
	now     func() time.Time
}

func NewClientLimiter() *ClientLimiter {
	return &ClientLimiter{
		buckets: make(map[bucketKey]*bucket),
		now:     time.Now,
	}
}

// Allow spends one token from client's bucket for b.
func (l *ClientLimiter) Allow(b Budget, client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.lookups++
	if l.lookups%sweepEvery == 0 {
		l.sweep(now)
	}

	key := bucketKey{budget: b.Name, client: client}
	bk, ok := l.buckets[key]
	if !ok {
		bk = &bucket{limiter: rate.NewLimiter(b.Limit, b.Burst)}
		l.buckets[key] = bk
	}
	bk.seen = now
	return bk.limiter.AllowN(now, 1)
}

func (l *ClientLimiter) sweep(now time.Time) {
	cutoff := now.Add(-bucketIdleTTL)
	for k, bk := range l.buckets {
		if bk.seen.Before(cutoff) {
			delete(l.buckets, k)
		}
	}
}

func (l *ClientLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Limit returns middleware charging each request to the caller's bucket for b.
// Rejected requests get 429 with a Retry-After hint.
func (l *ClientLimiter) Limit(b Budget) func(http.Handler) http.Handler {
	retry := strconv.Itoa(b.retryAfter())
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(b, clientAddr(r)) {
				w.Header().Set("Retry-After", retry)
				writeError(w, http.StatusTooManyRequests, b.Name+" rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientAddr strips the port from RemoteAddr. middleware.RealIP may already
// have replaced it with a bare address.
func clientAddr(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
