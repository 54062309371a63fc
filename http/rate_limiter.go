package http

import (
	"sync"
	"time"
)

const (
	idleClientTTL   = 1 * time.Hour
	cleanupInterval = 30 * time.Minute
)

// RateLimiter lets each client make capacity requests per window, with the
// allowance coming back gradually rather than all at once. Per client it keeps
// only the time at which its bucket would be full again.
type RateLimiter struct {
	mu       sync.Mutex
	perToken time.Duration
	burst    time.Duration
	fullAt   map[string]time.Time
	now      func() time.Time
	done     chan struct{}
	stopOnce sync.Once
}

func NewRateLimiter(capacity int, window time.Duration) *RateLimiter {
	capacity = max(capacity, 1)
	perToken := window / time.Duration(capacity)
	rl := &RateLimiter{
		perToken: perToken,
		burst:    perToken * time.Duration(capacity),
		fullAt:   make(map[string]time.Time),
		now:      time.Now,
		done:     make(chan struct{}),
	}
	go rl.evictLoop()
	return rl
}

func (r *RateLimiter) evictLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.cleanup()
		case <-r.done:
			return
		}
	}
}

// cleanup forgets clients whose bucket has been full for over idleClientTTL.
func (r *RateLimiter) cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for client, full := range r.fullAt {
		if now.Sub(full) > idleClientTTL {
			delete(r.fullAt, client)
		}
	}
}

func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.done) })
}

// Allow spends one request of client's allowance. When nothing is left it
// reports how long until the next request would be let through.
func (r *RateLimiter) Allow(client string) (bool, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	full, ok := r.fullAt[client]
	if !ok || full.Before(now) {
		full = now
	}

	next := full.Add(r.perToken)
	if over := next.Sub(now) - r.burst; over > 0 {
		return false, over
	}
	r.fullAt[client] = next
	return true, 0
}
