package security

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/leslieo2/devstack/internal/config"
	"github.com/leslieo2/devstack/internal/constants"
)

// RateLimiter applies a token bucket per client IP. Buckets live in a
// go-cache so idle clients expire.
type RateLimiter struct {
	limiters *cache.Cache
	config   config.RateLimitConfig
	skip     map[string]struct{}
	clock    Clock
	logger   *zap.Logger
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

type RateLimitStatus struct {
	Limit      int           `json:"limit"`
	Remaining  int           `json:"remaining"`
	Reset      time.Time     `json:"reset"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

// NewRateLimiter builds a limiter from configuration. Zero cleanup interval
// and cache size fall back to package defaults.
func NewRateLimiter(cfg config.RateLimitConfig, logger *zap.Logger) *RateLimiter {
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = constants.RateLimitCleanupInterval
	}
	if cfg.MaxCacheSize == 0 {
		cfg.MaxCacheSize = constants.RateLimitMaxCacheSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return &RateLimiter{
		limiters: cache.New(cfg.CleanupInterval, cfg.CleanupInterval*2),
		config:   cfg,
		skip:     skip,
		clock:    RealClock{},
		logger:   logger,
	}
}

// Run enforces the cache size bound until ctx is cancelled.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := rl.evict(rl.config.MaxCacheSize); removed > 0 {
				rl.logger.Debug("evicted rate limit entries", zap.Int("removed", removed))
			}
		}
	}
}

// evict drops random entries once the cache exceeds maxSize, removing an
// extra 10% so the next tick is unlikely to need another pass.
func (rl *RateLimiter) evict(maxSize int) int {
	currentSize := rl.limiters.ItemCount()
	if currentSize <= maxSize {
		return 0
	}

	toRemove := currentSize - maxSize + maxSize/10
	keys := make([]string, 0, currentSize)
	for key := range rl.limiters.Items() {
		keys = append(keys, key)
	}
	rand.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })

	removed := 0
	for ; removed < toRemove && removed < len(keys); removed++ {
		rl.limiters.Delete(keys[removed])
	}
	return removed
}

func (rl *RateLimiter) limiterFor(identifier string) *rate.Limiter {
	if item, found := rl.limiters.Get(identifier); found {
		return item.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.BurstSize)
	// Add fails if a concurrent request stored a limiter first; use theirs.
	if err := rl.limiters.Add(identifier, limiter, cache.DefaultExpiration); err != nil {
		if item, found := rl.limiters.Get(identifier); found {
			return item.(*rate.Limiter)
		}
	}
	return limiter
}

// Allow consumes one token for identifier and reports whether the request
// may proceed, along with the bucket state afterwards.
func (rl *RateLimiter) Allow(identifier string) (bool, RateLimitStatus) {
	now := rl.clock.Now()
	limiter := rl.limiterFor(identifier)
	allowed := limiter.AllowN(now, 1)

	tokens := limiter.TokensAt(now)
	status := RateLimitStatus{
		Limit:     rl.config.BurstSize,
		Remaining: int(math.Max(0, math.Floor(tokens))),
	}

	perToken := time.Duration(float64(time.Second) / float64(rl.config.RequestsPerSecond))
	missing := float64(rl.config.BurstSize) - tokens
	status.Reset = now.Add(time.Duration(missing * float64(perToken)))
	if !allowed {
		status.RetryAfter = time.Duration((1 - tokens) * float64(perToken))
		if status.RetryAfter < time.Second {
			status.RetryAfter = time.Second
		}
	}
	return allowed, status
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.config.Enabled || rl.shouldSkipRateLimit(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		identifier := "ip:" + ClientIP(r)
		allowed, status := rl.Allow(identifier)

		w.Header().Set(constants.HeaderXRateLimitLimit, strconv.Itoa(status.Limit))
		w.Header().Set(constants.HeaderXRateLimitRemaining, strconv.Itoa(status.Remaining))
		w.Header().Set(constants.HeaderXRateLimitReset, strconv.FormatInt(status.Reset.Unix(), 10))

		if !allowed {
			retryAfter := int(math.Ceil(status.RetryAfter.Seconds()))
			w.Header().Set(constants.HeaderRetryAfter, strconv.Itoa(retryAfter))
			w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
			w.WriteHeader(http.StatusTooManyRequests)

			rl.logger.Warn("rate limit exceeded",
				zap.String("client", identifier),
				zap.String("path", r.URL.Path),
			)

			_ = json.NewEncoder(w).Encode(map[string]any{
				"error":       "Rate limit exceeded",
				"message":     fmt.Sprintf("Rate limit exceeded. Try again in %ds", retryAfter),
				"code":        constants.ErrorCodeRateLimitExceeded,
				"retry_after": retryAfter,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ClientIP resolves the caller address, preferring proxy headers.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get(constants.HeaderXForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := r.Header.Get(constants.HeaderXRealIP); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (rl *RateLimiter) shouldSkipRateLimit(path string) bool {
	_, ok := rl.skip[path]
	return ok
}
