package ratelimit

import (
	"math"
	"sync"
	"time"
)

// Decision is the result of a TryAcquire call.
type Decision struct {
	// Granted indicates the request may proceed.
	Granted bool

	// RetryAfter is how long to wait before retrying, in whole seconds
	// rounded up. Zero when granted.
	RetryAfter time.Duration

	// ResetAt is when the principal's window resets and a new grant
	// becomes possible.
	ResetAt time.Time
}

// RetryAfterSeconds returns RetryAfter as whole seconds for the
// Retry-After response header.
func (d Decision) RetryAfterSeconds() int {
	return int(d.RetryAfter / time.Second)
}

// Governor is a fixed-window per-principal rate limiter. Each principal
// gets at most one grant per cooldown window, measured from the last
// grant. Export endpoints and their email-delivery counterparts draw
// from the same bucket for a given principal.
//
// This is deliberately not a sliding window: a burst right at a window
// boundary can yield two grants just under 2x the cooldown apart. That
// is an accepted property of measuring from the last grant, not a bug.
type Governor struct {
	mu      sync.Mutex
	granted map[string]time.Time
}

// NewGovernor creates an empty governor. State lives for the lifetime of
// the process; entries are overwritten on each grant and only removed by
// an explicit Sweep.
func NewGovernor() *Governor {
	return &Governor{granted: make(map[string]time.Time)}
}

// TryAcquire attempts to take the single grant available to principalID
// in the current window. The check and the timestamp update happen under
// one lock so two racing requests cannot both be granted.
func (g *Governor) TryAcquire(principalID string, now time.Time, cooldown time.Duration) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	last, ok := g.granted[principalID]
	if !ok || now.Sub(last) >= cooldown {
		g.granted[principalID] = now
		return Decision{
			Granted: true,
			ResetAt: now.Add(cooldown),
		}
	}

	remaining := cooldown - now.Sub(last)
	retryAfter := time.Duration(math.Ceil(remaining.Seconds())) * time.Second
	return Decision{
		Granted:    false,
		RetryAfter: retryAfter,
		ResetAt:    last.Add(cooldown),
	}
}

// Sweep removes entries whose window expired before now. The governor
// never sweeps on its own; callers may wire this to a ticker if the
// principal population is large enough to matter.
func (g *Governor) Sweep(now time.Time, cooldown time.Duration) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	for id, last := range g.granted {
		if now.Sub(last) >= cooldown {
			delete(g.granted, id)
			removed++
		}
	}
	return removed
}

// Len returns the current number of tracked principals.
func (g *Governor) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.granted)
}
