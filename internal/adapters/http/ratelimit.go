package httpadapter

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/PabloGalante/prima-scholar/internal/config"
	"github.com/PabloGalante/prima-scholar/internal/observability"
)

const (
	clientIdleTTL = 10 * time.Minute
	sweepInterval = time.Minute
)

// rateLimits holds one limiter per endpoint group.
type rateLimits struct {
	predictions *clientLimiter
	mentorship  *clientLimiter
	uploads     *clientLimiter
	general     *clientLimiter
}

func newRateLimits(cfg config.RateLimits) *rateLimits {
	return &rateLimits{
		predictions: newClientLimiter("predictions", cfg.Predictions),
		mentorship:  newClientLimiter("mentorship", cfg.Mentorship),
		uploads:     newClientLimiter("uploads", cfg.Uploads),
		general:     newClientLimiter("general", cfg.General),
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter gives every client IP its own token bucket of perMinute
// requests, refilled evenly over the minute. perMinute <= 0 disables it.
type clientLimiter struct {
	group     string
	perMinute int

	mu        sync.Mutex
	clients   map[string]*visitor
	lastSweep time.Time
	now       func() time.Time
}

func newClientLimiter(group string, perMinute int) *clientLimiter {
	return &clientLimiter{
		group:     group,
		perMinute: perMinute,
		clients:   make(map[string]*visitor),
		now:       time.Now,
	}
}

// allow takes one token for ip and returns the tokens left and, when denied,
// how long until the next token.
func (l *clientLimiter) allow(ip string) (ok bool, remaining int, retry time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	v, found := l.clients[ip]
	if !found {
		every := time.Minute / time.Duration(l.perMinute)
		v = &visitor{limiter: rate.NewLimiter(rate.Every(every), l.perMinute)}
		l.clients[ip] = v
	}
	v.lastSeen = now

	ok = v.limiter.AllowN(now, 1)
	tokens := v.limiter.TokensAt(now)
	remaining = max(0, int(math.Floor(tokens)))
	if !ok {
		retry = time.Duration((1 - tokens) / float64(v.limiter.Limit()) * float64(time.Second))
	}
	return ok, remaining, retry
}

// sweep drops clients idle for clientIdleTTL; l.mu must be held.
func (l *clientLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < sweepInterval {
		return
	}
	l.lastSweep = now
	for ip, v := range l.clients {
		if now.Sub(v.lastSeen) > clientIdleTTL {
			delete(l.clients, ip)
		}
	}
}

func (l *clientLimiter) middleware(next http.Handler) http.Handler {
	if l.perMinute <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		ok, remaining, retry := l.allow(ip)

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(l.perMinute))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(l.now().Add(retry).Unix(), 10))

		if !ok {
			secs := max(1, int(math.Ceil(retry.Seconds())))
			h.Set("Retry-After", strconv.Itoa(secs))
			observability.LoggerFromContext(r.Context()).Warn("rate limit exceeded",
				"group", l.group,
				"client_ip", ip,
			)
			writeJSON(w, http.StatusTooManyRequests, errorResponse{
				Error:   "Rate Limit Exceeded",
				Message: "Too many requests. Please try again later.",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP prefers proxy headers over the socket address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
