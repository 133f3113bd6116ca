package bot

import (
	"fmt"
	"sync"
	"time"
)

// RateLimiter implements per-user per-event in-memory rate limiting. It is a
// courtesy brake on chatty users, not a correctness mechanism: duplicate
// deliveries are handled by the de-duplication window, not here.

type RateLimiter struct {
	mu       sync.Mutex
	lastCall map[string]time.Time
	limits   map[string]time.Duration
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		lastCall: make(map[string]time.Time),
		limits: map[string]time.Duration{
			EventStart:      3 * time.Second,
			EventSelectPlan: 5 * time.Second,
		},
	}
}

// IsLimited returns true if the user must wait before this event is served.
func (r *RateLimiter) IsLimited(botID uint, userID int64, event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	limit, ok := r.limits[event]
	if !ok {
		limit = 2 * time.Second
	}
	key := fmt.Sprintf("%d:%d:%s", botID, userID, event)
	now := time.Now()
	if now.Sub(r.lastCall[key]) < limit {
		return true
	}
	r.lastCall[key] = now
	return false
}
