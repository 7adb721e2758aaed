package httpx

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// LoginRateLimit throttles requests per client address.
type LoginRateLimit struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu        sync.Mutex
	clients   map[string]*clientLimiter
	lastSweep time.Time
}

type clientLimiter struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewLoginRateLimit allows perMinute requests per client with the given burst.
// A non-positive perMinute disables limiting.
func NewLoginRateLimit(perMinute, burst int) *LoginRateLimit {
	if burst < 1 {
		burst = 1
	}
	l := rate.Inf
	if perMinute > 0 {
		l = rate.Limit(float64(perMinute) / 60)
	}
	return &LoginRateLimit{limit: l, burst: burst, now: time.Now, clients: map[string]*clientLimiter{}}
}

// Middleware rejects requests over the limit with 429.
func (l *LoginRateLimit) Middleware(next http.Handler) http.Handler {
	if l == nil || l.limit == rate.Inf {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r)) {
			w.Header().Set("Retry-After", strconv.Itoa(int(time.Minute.Seconds())))
			WriteError(w, ErrorParams{
				Code:    http.StatusTooManyRequests,
				ErrCode: "rate_limited",
				Err:     errors.New("too many login attempts, try again later"),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *LoginRateLimit) allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > limiterIdleTTL {
		for k, c := range l.clients {
			if now.Sub(c.seen) > limiterIdleTTL {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	c, ok := l.clients[key]
	if !ok {
		c = &clientLimiter{lim: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.seen = now
	return c.lim.AllowN(now, 1)
}

// clientIP prefers the first X-Forwarded-For hop, then the connection address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
