package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	apperrors "slotkeeper/pkg/errors"
	"slotkeeper/pkg/logger"

	"golang.org/x/time/rate"
)

const RequesterHeader = "X-Requester-ID"

type KeyExtractor func(r *http.Request) string

// RequesterRateLimiter keeps one token bucket per requester.
type RequesterRateLimiter struct {
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	rps       rate.Limit
	burst     int
	idleTTL   time.Duration
	extractor KeyExtractor
	log       *logger.Logger
	stopCh    chan struct{}
	stopOnce  sync.Once
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewRequesterRateLimiter(rps float64, burst int, extractor KeyExtractor, log *logger.Logger) *RequesterRateLimiter {
	if extractor == nil {
		extractor = DefaultRequesterExtractor
	}
	limiter := &RequesterRateLimiter{
		entries:   make(map[string]*limiterEntry),
		rps:       rate.Limit(rps),
		burst:     burst,
		idleTTL:   15 * time.Minute,
		extractor: extractor,
		log:       log,
		stopCh:    make(chan struct{}),
	}

	go limiter.cleanup(2 * time.Minute)

	return limiter
}

func (rl *RequesterRateLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RequesterRateLimiter) evictIdle(now time.Time) {
	cutoff := now.Add(-rl.idleTTL)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, ent := range rl.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(rl.entries, key)
		}
	}
}

func (rl *RequesterRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *RequesterRateLimiter) Allow(key string) bool {
	if key == "" {
		return true
	}
	return rl.limiter(key).Allow()
}

func (rl *RequesterRateLimiter) limiter(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if ent, ok := rl.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.entries[key] = &limiterEntry{lim: lim, lastSeen: now}
	return lim
}

func RequesterRateLimit(limiter *RequesterRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := limiter.extractor(r)

			if !limiter.Allow(key) {
				limiter.log.Warn("Rate limit exceeded",
					"request_id", RequestIDFromContext(r.Context()),
					"key", key,
					"path", r.URL.Path,
				)
				w.Header().Set("Retry-After", "1")
				writeJSONError(w, http.StatusTooManyRequests, apperrors.CodeTooManyRequests, "Rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// DefaultRequesterExtractor keys by the X-Requester-ID header and falls back
// to the remote IP.
func DefaultRequesterExtractor(r *http.Request) string {
	if requester := r.Header.Get(RequesterHeader); requester != "" {
		return "requester:" + requester
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
