package authapi

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// loginLimiter throttles password login attempts per client address with a
// sliding window. Entries idle for a full window are dropped on sweep so the
// map does not grow without bound.
type loginLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientWindow
	limit   int
	window  time.Duration

	lastSweep time.Time
}

type clientWindow struct {
	events []time.Time
}

func newLoginLimiter(limit int, window time.Duration) *loginLimiter {
	if limit <= 0 {
		limit = defaultLoginRateLimit
	}
	if window <= 0 {
		window = defaultLoginRateWindow
	}
	return &loginLimiter{
		clients: make(map[string]*clientWindow),
		limit:   limit,
		window:  window,
	}
}

// Allow reports whether a login attempt from key at time "now" is permitted.
func (l *loginLimiter) Allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > l.window {
		l.sweepLocked(now)
		l.lastSweep = now
	}

	cw := l.clients[key]
	if cw == nil {
		cw = &clientWindow{events: make([]time.Time, 0, l.limit+1)}
		l.clients[key] = cw
	}

	cut := now.Add(-l.window)
	dst := cw.events[:0]
	for _, t := range cw.events {
		if t.After(cut) {
			dst = append(dst, t)
		}
	}
	cw.events = dst

	if len(cw.events) >= l.limit {
		return false
	}
	cw.events = append(cw.events, now)
	return true
}

func (l *loginLimiter) sweepLocked(now time.Time) {
	cut := now.Add(-l.window)
	for key, cw := range l.clients {
		alive := false
		for _, t := range cw.events {
			if t.After(cut) {
				alive = true
				break
			}
		}
		if !alive {
			delete(l.clients, key)
		}
	}
}

// clientKey picks the throttle key for a request: the remote IP without port.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
