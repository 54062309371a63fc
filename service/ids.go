package service

import (
	"sync"
	"time"
)

type IDGenerator interface {
	// Observe tells the generator about an ID already in use.
	Observe(id int64)
	Next() int64
}

// MonotonicIDs hands out time-derived IDs that never repeat: each ID is the
// current unix millisecond or last+1, whichever is larger.
type MonotonicIDs struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewMonotonicIDs(now func() time.Time) *MonotonicIDs {
	if now == nil {
		now = time.Now
	}
	return &MonotonicIDs{now: now}
}

func (g *MonotonicIDs) Observe(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id > g.last {
		g.last = id
	}
}

func (g *MonotonicIDs) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}
