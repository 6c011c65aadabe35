package client

import (
	"sync"
	"time"
)

// StormGuard collapses a burst of session-expiry responses into a single cleanup
// and redirect. It is set by the first expiry signal of an episode and cleared by
// the next successful response or by Reset.
type StormGuard struct {
	mu      sync.Mutex
	active  bool
	pending *time.Timer
	fn      func()
	delay   time.Duration
}

func NewStormGuard(redirectDelay time.Duration) *StormGuard {
	return &StormGuard{delay: redirectDelay}
}

// Trip sets the flag. It returns true only for the caller that opened the
// episode; that caller owns the cleanup.
func (g *StormGuard) Trip() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active {
		return false
	}
	g.active = true
	return true
}

// Schedule runs fn once after the redirect delay. A schedule already pending is
// kept and fn is dropped.
func (g *StormGuard) Schedule(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending != nil {
		return
	}
	var t *time.Timer
	t = time.AfterFunc(g.delay, func() {
		g.mu.Lock()
		if g.pending != t {
			g.mu.Unlock()
			return
		}
		g.pending, g.fn = nil, nil
		g.mu.Unlock()
		fn()
	})
	g.pending, g.fn = t, fn
}

// Recover clears the flag after a successful response. The pending redirect, if
// any, still runs.
func (g *StormGuard) Recover() {
	g.mu.Lock()
	g.active = false
	g.mu.Unlock()
}

// Active reports whether an expiry episode is in progress.
func (g *StormGuard) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// Reset clears the flag and cancels a pending redirect. Called on logout.
func (g *StormGuard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active = false
	if g.pending != nil {
		g.pending.Stop()
		g.pending, g.fn = nil, nil
	}
}

// Flush runs a pending redirect now instead of waiting for the delay. Called
// on shutdown so a short-lived process still delivers it. The redirect runs at
// most once whether the timer or Flush gets there first.
func (g *StormGuard) Flush() {
	g.mu.Lock()
	fn := g.fn
	if g.pending != nil {
		g.pending.Stop()
	}
	g.pending, g.fn = nil, nil
	g.mu.Unlock()
	if fn != nil {
		fn()
	}
}
