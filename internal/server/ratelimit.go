package server

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"atsresume/internal/config"
	"atsresume/internal/errors"
	"atsresume/internal/observability"

	"golang.org/x/time/rate"
)

const defaultLimiterCleanup = 10 * time.Minute

// clientBucket is the token bucket of one client.
type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out a token bucket per client key. Buckets idle for
// longer than the cleanup interval are dropped.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*clientBucket
	limit   rate.Limit
	burst   int
	now     func() time.Time
	logger  *errors.Logger

	done chan struct{}
	once sync.Once
}

// NewRateLimiter starts the cleanup loop right away, also when limiting is
// disabled, so a config reload can switch limiting on.
func NewRateLimiter(cfg config.RateLimitConfig, logger *errors.Logger) *RateLimiter {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	rl := &RateLimiter{
		buckets: make(map[string]*clientBucket),
		limit:   perMinute(cfg.RequestsPerMin),
		burst:   cfg.BurstCapacity,
		now:     time.Now,
		logger:  logger,
		done:    make(chan struct{}),
	}

	every := cfg.CleanupInterval
	if every <= 0 {
		every = defaultLimiterCleanup
	}
	go rl.cleanupLoop(every)
	return rl
}

// perMinute converts to rate.Limit, which counts events per second.
func perMinute(n int) rate.Limit {
	return rate.Limit(float64(n) / 60)
}

// Allow takes a token from key's bucket.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	b, ok := rl.buckets[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = rl.now()
	limiter := b.limiter
	rl.mu.Unlock()

	return limiter.Allow()
}

// SetLimits applies a new rate and burst to every bucket, existing ones
// included.
func (rl *RateLimiter) SetLimits(requestsPerMin, burst int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.limit = perMinute(requestsPerMin)
	rl.burst = burst
	for _, b := range rl.buckets {
		b.limiter.SetLimit(rl.limit)
		b.limiter.SetBurst(burst)
	}
}

func (rl *RateLimiter) GetStats() map[string]any {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return map[string]any{
		"active_limiters": len(rl.buckets),
		"rate_per_second": float64(rl.limit),
		"rate_per_minute": float64(rl.limit) * 60,
		"burst_capacity":  rl.burst,
	}
}

func (rl *RateLimiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(every)
		case <-rl.done:
			return
		}
	}
}

// cleanup drops buckets not used within maxIdle.
func (rl *RateLimiter) cleanup(maxIdle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-maxIdle)
	removed := 0
	for key, b := range rl.buckets {
		if !b.lastSeen.After(cutoff) {
			delete(rl.buckets, key)
			removed++
		}
	}
	if removed > 0 {
		rl.logger.Debug("Dropped idle rate limiters", "removed", removed, "remaining", len(rl.buckets))
	}
}

// Close stops the cleanup loop. Safe to call more than once.
func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.done) })
}

// rateLimitMiddleware answers 429 once a client's bucket is empty. The
// enabled flag is read per request so a config reload applies at once.
func (s *Server) rateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.rateLimitConfig().Enabled {
			next(w, r)
			return
		}

		clientIP := getClientIP(r)
		if s.RateLimiter.Allow("ip:" + clientIP) {
			next(w, r)
			return
		}

		s.Logger.Info("Rate limit exceeded", "endpoint", r.URL.Path, "client_ip", clientIP)
		s.events.RecordEvent(r.Context(), observability.MetricRateLimitHit, false)
		writeErrorResponse(w, "Rate limit exceeded",
			"Too many requests, please wait a moment and try again", http.StatusTooManyRequests)
	}
}

// getClientIP prefers the first valid X-Forwarded-For address, then
// X-Real-IP, then the connection's remote address.
func getClientIP(r *http.Request) string {
	for _, candidate := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if addr, err := netip.ParseAddr(strings.TrimSpace(candidate)); err == nil {
			return addr.String()
		}
	}
	if addr, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return addr.String()
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
