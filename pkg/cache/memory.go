package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Config configures replay-guard behavior.
type Config struct {
	TTL     time.Duration
	MaxSize int
}

// Stats tracks replay-guard counters.
type Stats struct {
	Marks     int64         `json:"marks"`
	Replays   int64         `json:"replays"`
	Evictions int64         `json:"evictions"`
	Size      int           `json:"size"`
	TTL       time.Duration `json:"ttl"`
}

// ReplayGuard remembers recently used single-use token IDs so the same
// token cannot be redeemed twice within its validity window. Entries expire
// after the configured TTL, which should be at least the longest token
// lifetime.
type ReplayGuard struct {
	mu      sync.Mutex
	used    map[string]time.Time
	ttl     time.Duration
	maxSize int

	// counters
	marks     int64
	replays   int64
	evictions int64
}

// NewReplayGuard creates an in-memory replay guard.
func NewReplayGuard(c Config) *ReplayGuard {
	if c.TTL == 0 {
		c.TTL = 30 * time.Minute
	}
	if c.MaxSize == 0 {
		c.MaxSize = 10000
	}

	return &ReplayGuard{
		used:    make(map[string]time.Time),
		ttl:     c.TTL,
		maxSize: c.MaxSize,
	}
}

// MarkUsed records the ID as consumed. It returns true on first use and
// false when the ID was already consumed within the TTL.
func (g *ReplayGuard) MarkUsed(id string) bool {
	now := time.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	if usedAt, exists := g.used[id]; exists && now.Sub(usedAt) <= g.ttl {
		atomic.AddInt64(&g.replays, 1)
		return false
	}

	// Simple eviction if full: drop expired entries first, then arbitrary
	// ones.
	if len(g.used) >= g.maxSize {
		for k, usedAt := range g.used {
			if now.Sub(usedAt) > g.ttl {
				delete(g.used, k)
				atomic.AddInt64(&g.evictions, 1)
			}
		}
		for k := range g.used {
			if len(g.used) < g.maxSize {
				break
			}
			delete(g.used, k)
			atomic.AddInt64(&g.evictions, 1)
		}
	}

	g.used[id] = now
	atomic.AddInt64(&g.marks, 1)
	return true
}

// Len returns the number of remembered IDs, including expired ones not yet
// evicted.
func (g *ReplayGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.used)
}

// Clear forgets all remembered IDs.
func (g *ReplayGuard) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.used = make(map[string]time.Time)
}

// Stats returns a snapshot of the counters.
func (g *ReplayGuard) Stats() Stats {
	g.mu.Lock()
	size := len(g.used)
	g.mu.Unlock()

	return Stats{
		Marks:     atomic.LoadInt64(&g.marks),
		Replays:   atomic.LoadInt64(&g.replays),
		Evictions: atomic.LoadInt64(&g.evictions),
		Size:      size,
		TTL:       g.ttl,
	}
}
