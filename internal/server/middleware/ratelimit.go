package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/IvanChernomyrdin/go-polls/internal/shared/logger"
)

// RateLimiterConfig — лимит на ключ (ip или пользователь).
type RateLimiterConfig struct {
	Rate            rate.Limit
	Burst           int
	ByUser          bool // false — по IP
	CleanupInterval time.Duration
}

type keyLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter держит token bucket на каждый ключ и раз в CleanupInterval
// выкидывает те, к которым давно не обращались.
type RateLimiter struct {
	cfg RateLimiterConfig
	log *logger.HTTPLogger

	mu       sync.Mutex
	limiters map[string]*keyLimiter

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter создаёт лимитер и запускает фоновую чистку.
func NewRateLimiter(cfg RateLimiterConfig, log *logger.HTTPLogger) *RateLimiter {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	rl := &RateLimiter{
		cfg:      cfg,
		log:      log,
		limiters: make(map[string]*keyLimiter),
		stopCh:   make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop останавливает фоновую чистку. Повторный вызов безопасен.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// ByUser — ключ лимита по пользователю, middleware надо ставить после auth.
func (rl *RateLimiter) ByUser() bool { return rl.cfg.ByUser }

// Middleware отвечает 429, когда ключ исчерпал лимит.
// По пользователю лимит работает только после auth middleware,
// анонимные запросы считаются по IP.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "ip:" + clientIP(r)
		if rl.cfg.ByUser {
			if uid, ok := UserIDFromContext(r.Context()); ok {
				key = "user:" + uid
			}
		}

		if !rl.limiter(key).Allow() {
			rl.log.Warn("rate limit exceeded", zap.String("key", key), zap.String("uri", r.RequestURI))
			writeRateLimited(w, rl.cfg.Rate)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Len — сколько ключей сейчас отслеживается.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	kl, ok := rl.limiters[key]
	if !ok {
		kl = &keyLimiter{limiter: rate.NewLimiter(rl.cfg.Rate, rl.cfg.Burst)}
		rl.limiters[key] = kl
	}
	kl.lastAccess = time.Now()
	return kl.limiter
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup удаляет ключи, не обращавшиеся дольше двух интервалов.
func (rl *RateLimiter) cleanup(now time.Time) {
	ttl := rl.cfg.CleanupInterval * 2

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for k, kl := range rl.limiters {
		if now.Sub(kl.lastAccess) > ttl {
			delete(rl.limiters, k)
		}
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeRateLimited — 429 с Retry-After до появления следующего токена.
func writeRateLimited(w http.ResponseWriter, r rate.Limit) {
	retry := 1
	if r > 0 {
		retry = int(math.Ceil(1.0 / float64(r)))
		if retry < 1 {
			retry = 1
		}
	}
	w.Header().Set("Retry-After", strconv.Itoa(retry))
	writeJSONError(w, http.StatusTooManyRequests, "too many requests")
}
