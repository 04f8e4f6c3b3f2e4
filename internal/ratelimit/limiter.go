package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/unideal/unideal-server/internal/config"
	"github.com/unideal/unideal-server/internal/httputil"
)

// Policy is a fixed-window request budget for one endpoint class.
type Policy struct {
	Name    string
	Max     int
	Window  time.Duration
	Message string
}

// Policies groups the per-class request budgets.
type Policies struct {
	Auth     Policy
	General  Policy
	Catalog  Policy
	Payments Policy
	Upload   Policy
}

// PoliciesFromConfig builds the endpoint-class policies from config.
func PoliciesFromConfig(cfg config.RateLimitConfig) Policies {
	return Policies{
		Auth:     Policy{Name: "auth", Max: cfg.Auth, Window: cfg.Window, Message: "Too many auth attempts, please try again later"},
		General:  Policy{Name: "general", Max: cfg.General, Window: cfg.Window, Message: "Too many requests, please try again later"},
		Catalog:  Policy{Name: "catalog", Max: cfg.Catalog, Window: cfg.Window, Message: "Too many requests, please try again later"},
		Payments: Policy{Name: "payments", Max: cfg.Payments, Window: cfg.Window, Message: "Too many payment requests, please try again later"},
		Upload:   Policy{Name: "upload", Max: cfg.Upload, Window: cfg.Window, Message: "Too many requests, please try again later"},
	}
}

type counterKey struct {
	policy string
	client string
}

type window struct {
	count   int
	resetAt time.Time
}

// Limiter counts requests per client within wall-clock-aligned fixed
// windows. Counters are process-local; each window class is
// independent, so the same client has separate budgets per policy.
// Construct one per process and pass it to the router explicitly.
type Limiter struct {
	mu        sync.Mutex
	windows   map[counterKey]*window
	lastPrune time.Time

	// now is replaceable in tests
	now func() time.Time
}

func NewLimiter() *Limiter {
	return &Limiter{
		windows: make(map[counterKey]*window),
		now:     time.Now,
	}
}

// Allow reports whether the client may proceed under the policy,
// incrementing the window counter when it may. A rejected request
// does not increment further.
func (l *Limiter) Allow(p Policy, client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.pruneLocked(now)

	key := counterKey{policy: p.Name, client: client}
	win, ok := l.windows[key]
	if !ok || !now.Before(win.resetAt) {
		// Windows are aligned to the wall clock, not to the first request
		start := now.Truncate(p.Window)
		win = &window{resetAt: start.Add(p.Window)}
		l.windows[key] = win
	}

	if win.count >= p.Max {
		return false
	}

	win.count++
	return true
}

// pruneLocked drops elapsed windows, at most once per minute.
func (l *Limiter) pruneLocked(now time.Time) {
	if now.Sub(l.lastPrune) < time.Minute {
		return
	}
	l.lastPrune = now

	for key, win := range l.windows {
		if !now.Before(win.resetAt) {
			delete(l.windows, key)
		}
	}
}

// Middleware rejects requests over the policy budget with 429.
func (l *Limiter) Middleware(p Policy) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(p, clientKey(r)) {
				httputil.RespondErrorWithCode(w, p.Message, httputil.CodeRateLimited, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientKey identifies the caller by IP. chi's RealIP middleware has
// already folded X-Forwarded-For into RemoteAddr by this point.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
