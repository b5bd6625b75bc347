package limiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Visitors hands out one token bucket per key (client IP) for request throttling.
// Buckets idle for longer than ttl are dropped by Sweep.
type Visitors struct {
	mu    sync.Mutex
	r     rate.Limit
	burst int
	ttl   time.Duration
	byKey map[string]*visitor
	now   func() time.Time
}

type visitor struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewVisitors constructs a per-key limiter allowing r events/sec with the given burst.
func NewVisitors(r rate.Limit, burst int, ttl time.Duration) *Visitors {
	return &Visitors{r: r, burst: burst, ttl: ttl, byKey: make(map[string]*visitor), now: time.Now}
}

// Allow reports whether one more event for key fits the budget.
func (v *Visitors) Allow(key string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	vis, ok := v.byKey[key]
	if !ok {
		vis = &visitor{lim: rate.NewLimiter(v.r, v.burst)}
		v.byKey[key] = vis
	}
	vis.seen = v.now()
	return vis.lim.AllowN(vis.seen, 1)
}

// Sweep removes buckets not used within ttl and returns how many were dropped.
func (v *Visitors) Sweep() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	cut := v.now().Add(-v.ttl)
	n := 0
	for k, vis := range v.byKey {
		if vis.seen.Before(cut) {
			delete(v.byKey, k)
			n++
		}
	}
	return n
}

// Len returns the number of tracked keys.
func (v *Visitors) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.byKey)
}
