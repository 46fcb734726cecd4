package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dukerupert/cardapio/internal/domain"
)

// RateLimiterConfig configures the rate limiter
type RateLimiterConfig struct {
	// RequestsPerSecond is the rate of token refill
	RequestsPerSecond float64

	// BurstSize is the maximum number of requests allowed in a burst
	BurstSize int

	// IdleTTL is how long an unused key is kept before Sweep forgets it
	IdleTTL time.Duration

	// KeyFunc extracts the rate limit key from the request.
	// Default: client IP plus establishment.
	KeyFunc func(r *http.Request) string
}

// DefaultRateLimiterConfig returns sensible defaults
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 10,
		BurstSize:         20,
		IdleTTL:           10 * time.Minute,
		KeyFunc:           ClientEstablishmentKey,
	}
}

// StrictRateLimiterConfig returns stricter limits for endpoints that can be
// used to guess secrets, such as coupon codes.
func StrictRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 0.5,
		BurstSize:         5,
		IdleTTL:           10 * time.Minute,
		KeyFunc:           ClientEstablishmentKey,
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is an in-memory, per-key rate limiter.
type RateLimiter struct {
	config RateLimiterConfig
	now    func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitor
}

// NewRateLimiter creates a new rate limiter. Call Sweep periodically to
// forget idle keys.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = ClientEstablishmentKey
	}
	if config.BurstSize < 1 {
		config.BurstSize = 1
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = 10 * time.Minute
	}
	return &RateLimiter{
		config:   config,
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
}

// Allow reports whether a request for key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	now := rl.now()

	rl.mu.Lock()
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.BurstSize)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	rl.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

// Sweep forgets keys idle for longer than IdleTTL and returns how many were removed.
func (rl *RateLimiter) Sweep() int {
	cutoff := rl.now().Add(-rl.config.IdleTTL)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for key, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// Middleware returns an HTTP middleware that applies rate limiting
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(rl.config.KeyFunc(r)) {
			w.Header().Set("Retry-After", rl.retryAfter())
			respondTooManyRequests(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) retryAfter() string {
	if rl.config.RequestsPerSecond <= 0 {
		return "60"
	}
	return strconv.Itoa(int(math.Ceil(1 / rl.config.RequestsPerSecond)))
}

// ClientEstablishmentKey keys requests by client IP and, when resolved, the
// establishment, so one storefront's traffic never throttles another's.
func ClientEstablishmentKey(r *http.Request) string {
	key := GetClientIP(r)
	if est := domain.EstablishmentFromContext(r.Context()); est != nil {
		key += "|" + est.ID.String()
	}
	return key
}
