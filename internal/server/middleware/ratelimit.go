package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/iudanet/gamesync/internal/server/handlers"
)

// RateLimiter ограничивает число запросов на ключ в фиксированном окне.
// Ключ - user_id для аутентифицированных запросов, иначе адрес клиента.
type RateLimiter struct {
	lastPrune time.Time
	windows   map[string]*window
	now       func() time.Time
	limit     int
	period    time.Duration
	mu        sync.Mutex
}

type window struct {
	start time.Time
	count int
}

// NewRateLimiter создает limiter: не больше limit запросов за period
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*window),
		now:     time.Now,
		limit:   limit,
		period:  period,
	}
}

// Allow проверяет, разрешен ли запрос для ключа
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastPrune) > rl.period {
		rl.prune(now)
	}

	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rl.period {
		w = &window{start: now}
		rl.windows[key] = w
	}

	if w.count >= rl.limit {
		return false
	}
	w.count++
	return true
}

// retryAfter секунд до открытия следующего окна ключа
func (rl *RateLimiter) retryAfter(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok {
		return 0
	}
	left := rl.period - rl.now().Sub(w.start)
	return int(left.Round(time.Second).Seconds())
}

// prune удаляет истекшие окна, вызывается под mu
func (rl *RateLimiter) prune(now time.Time) {
	for key, w := range rl.windows {
		if now.Sub(w.start) >= rl.period {
			delete(rl.windows, key)
		}
	}
	rl.lastPrune = now
}

// Middleware ограничивает частоту запросов.
// Адрес клиента берется из r.RemoteAddr: за прокси его заполняет chi middleware.RealIP.
func (rl *RateLimiter) Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientAddr(r)
			if userID, ok := handlers.GetUserID(r.Context()); ok {
				key = "user:" + userID
			}

			if !rl.Allow(key) {
				logger.WarnContext(r.Context(), "Rate limit exceeded",
					"key", key,
					"method", r.Method,
					"path", r.URL.Path,
				)
				w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfter(key)))
				writeError(w, "rate limit exceeded, please try again later", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientAddr адрес клиента без порта
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
