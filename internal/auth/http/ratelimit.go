package http

import (
	"sync"

	"golang.org/x/time/rate"
)

const (
	loginRatePerSecond = 1
	loginBurst         = 5
)

// ipLimiter keeps one token bucket per client IP. Entries are never evicted;
// the login route sees few distinct IPs and the buckets are tiny.
type ipLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	r       rate.Limit
	b       int
}

func newIPLimiter(r rate.Limit, b int) *ipLimiter {
	return &ipLimiter{
		buckets: make(map[string]*rate.Limiter),
		r:       r,
		b:       b,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	lim, ok := l.buckets[ip]
	if !ok {
		lim = rate.NewLimiter(l.r, l.b)
		l.buckets[ip] = lim
	}
	l.mu.Unlock()

	return lim.Allow()
}
