package alert

import (
	"sync"
	"time"
)

type emission struct {
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	last       time.Time
}

// Deduper suppresses repeat alerts for the same subject and alert type inside
// the configured window. A zero window disables suppression.
type Deduper struct {
	mu     sync.Mutex
	m      map[string]*emission
	window time.Duration
}

func NewDeduper(window time.Duration) *Deduper {
	return &Deduper{m: make(map[string]*emission), window: window}
}

// Allow returns true if an alert for key may be emitted now.
func (d *Deduper) Allow(key string) bool {
	if d.window <= 0 {
		return true
	}
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.m[key]
	if !ok {
		e = &emission{tokens: 1, capacity: 1, refillRate: 1 / d.window.Seconds(), last: now}
		d.m[key] = e
	}
	elapsed := now.Sub(e.last).Seconds()
	if elapsed > 0 {
		e.tokens += elapsed * e.refillRate
		if e.tokens > e.capacity {
			e.tokens = e.capacity
		}
		e.last = now
	}
	if e.tokens >= 1 {
		e.tokens -= 1
		return true
	}
	return false
}
