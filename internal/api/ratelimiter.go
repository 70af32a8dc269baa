package api

import (
	"net/http"
	"strconv"

	"golang.org/x/time/rate"
)

const (
	defaultRatePerSecond = 25
	defaultBurst         = 50
)

type rateLimiter interface {
	Allow() bool
}

// tokenBucket limits all API traffic with a single shared bucket.
type tokenBucket struct {
	limiter *rate.Limiter
}

func newTokenBucketLimiter(ratePerSecond float64, burst int) rateLimiter {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}

	return &tokenBucket{
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

func (b *tokenBucket) Allow() bool {
	if b == nil || b.limiter == nil {
		return true
	}
	return b.limiter.Allow()
}

// retryAfterSeconds is how long a client should wait for the next token,
// rounded up to whole seconds.
func (b *tokenBucket) retryAfterSeconds() int {
	if b == nil || b.limiter == nil || b.limiter.Limit() <= 0 {
		return 1
	}
	secs := int(1 / float64(b.limiter.Limit()))
	if secs < 1 {
		return 1
	}
	return secs
}

func rateLimitMiddleware(limiter rateLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limiter.Allow() {
			next.ServeHTTP(w, r)
			return
		}
		retryAfter := 1
		if b, ok := limiter.(*tokenBucket); ok {
			retryAfter = b.retryAfterSeconds()
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		writeError(w, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded, please retry shortly")
	})
}
