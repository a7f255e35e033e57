// Package ratelimit implements per-client admission control for the
// enrichment endpoint.
package ratelimit

import (
	"sync"
	"time"
)

// Defaults match the dashboard's expected quota.
const (
	DefaultMaxRequests = 10
	DefaultWindow      = time.Minute
)

// SlidingWindow admits at most max requests per key within any trailing
// window. Admitted requests are recorded; rejected ones are not.
type SlidingWindow struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	now     func() time.Time
	entries map[string][]time.Time
}

// NewSlidingWindow creates a limiter. A nil now uses time.Now.
func NewSlidingWindow(maxRequests int, window time.Duration, now func() time.Time) *SlidingWindow {
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if now == nil {
		now = time.Now
	}
	return &SlidingWindow{
		max:     maxRequests,
		window:  window,
		now:     now,
		entries: make(map[string][]time.Time),
	}
}

// Allow reports whether key may make another request now, recording the
// request when it is admitted.
func (l *SlidingWindow) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := l.prune(l.entries[key], now)
	if len(recent) >= l.max {
		l.entries[key] = recent
		return false
	}
	l.entries[key] = append(recent, now)
	return true
}

// Len returns the number of tracked keys.
func (l *SlidingWindow) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Sweep drops keys with no request inside the window.
func (l *SlidingWindow) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, ts := range l.entries {
		recent := l.prune(ts, now)
		if len(recent) == 0 {
			delete(l.entries, key)
			continue
		}
		l.entries[key] = recent
	}
}

// StartSweeper runs Sweep once per window until done is closed.
func (l *SlidingWindow) StartSweeper(done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(l.window)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				l.Sweep()
			}
		}
	}()
}

// prune keeps timestamps with now-ts < window. ts is ordered oldest first.
func (l *SlidingWindow) prune(ts []time.Time, now time.Time) []time.Time {
	i := 0
	for i < len(ts) && now.Sub(ts[i]) >= l.window {
		i++
	}
	return ts[i:]
}
