package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// KeyFunc picks the rate limit bucket for a request.
type KeyFunc func(r *http.Request) string

// RateLimiter is token bucket middleware keyed per client.
type RateLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	rate       float64 // tokens per second
	burst      float64
	maxBuckets int
	key        KeyFunc
	now        func() time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewRateLimiter creates a limiter with a sustained rate in requests per
// second and a burst size. A nil key limits by remote IP.
func NewRateLimiter(rate float64, burst int, key KeyFunc) *RateLimiter {
	if key == nil {
		key = RemoteIP
	}
	return &RateLimiter{
		buckets:    make(map[string]*bucket),
		rate:       rate,
		burst:      float64(burst),
		maxBuckets: 100_000,
		key:        key,
		now:        time.Now,
	}
}

// Handler returns middleware that answers 429 once a client's bucket is empty.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remaining, wait, ok := rl.take(rl.key(r))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) take(key string) (remaining int, wait time.Duration, ok bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, found := rl.buckets[key]
	if !found {
		if len(rl.buckets) >= rl.maxBuckets {
			return 0, rl.refillTime(1), false
		}
		b = &bucket{tokens: rl.burst, last: now}
		rl.buckets[key] = b
	}

	b.tokens = math.Min(rl.burst, b.tokens+now.Sub(b.last).Seconds()*rl.rate)
	b.last = now
	if b.tokens < 1 {
		return 0, rl.refillTime(1 - b.tokens), false
	}
	b.tokens--
	return int(b.tokens), 0, true
}

func (rl *RateLimiter) refillTime(tokens float64) time.Duration {
	return time.Duration(tokens / rl.rate * float64(time.Second))
}

// StartCleanup drops buckets idle longer than maxIdle every interval until
// ctx is done.
func (rl *RateLimiter) StartCleanup(ctx context.Context, interval, maxIdle time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.cleanup(maxIdle)
			}
		}
	}()
}

func (rl *RateLimiter) cleanup(maxIdle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-maxIdle)
	for k, b := range rl.buckets {
		if b.last.Before(cutoff) {
			delete(rl.buckets, k)
		}
	}
}

// Len returns the number of tracked buckets.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// RemoteIP keys by the connection's remote address. Proxy headers are not
// trusted since clients can forge them.
func RemoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
