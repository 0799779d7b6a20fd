// Package flood rate limits API clients with a sliding one-minute window.
package flood

import (
	"sync"
	"time"
)

const (
	// windowDuration is the fixed sliding window (always 1 minute)
	windowDuration = 60 * time.Second
	// cleanupInterval is how often idle clients are dropped
	cleanupInterval = 10 * time.Minute
	// idleTimeout is how long a client may stay silent before it is forgotten
	idleTimeout = 10 * time.Minute
)

// Floodgate limits requests per client and route
type Floodgate struct {
	limitPerMinute int
	entries        map[string]*clientEntry // Key: "route|client"
	mutex          sync.Mutex
	stopCleanup    chan struct{}
	stopOnce       sync.Once
	now            func() time.Time
}

// clientEntry tracks request timestamps of one client on one route
type clientEntry struct {
	timestamps []time.Time
	lastSeen   time.Time
}

// New creates a Floodgate admitting limitPerMinute requests per client and
// route. It starts a cleanup goroutine that Stop ends.
func New(limitPerMinute int) *Floodgate {
	fg := &Floodgate{
		limitPerMinute: limitPerMinute,
		entries:        make(map[string]*clientEntry),
		stopCleanup:    make(chan struct{}),
		now:            time.Now,
	}

	go fg.cleanup()

	return fg
}

// Stop stops the background cleanup goroutine. It is safe to call twice.
func (fg *Floodgate) Stop() {
	fg.stopOnce.Do(func() { close(fg.stopCleanup) })
}

// Allow records a request from client on route. When the client is over the
// limit it returns false and how long until a request would be admitted.
func (fg *Floodgate) Allow(route, client string) (bool, time.Duration) {
	key := route + "|" + client
	now := fg.now()

	fg.mutex.Lock()
	defer fg.mutex.Unlock()

	entry, exists := fg.entries[key]
	if !exists {
		entry = &clientEntry{}
		fg.entries[key] = entry
	}
	entry.lastSeen = now

	windowStart := now.Add(-windowDuration)
	valid := entry.timestamps[:0]
	for _, ts := range entry.timestamps {
		if ts.After(windowStart) {
			valid = append(valid, ts)
		}
	}
	entry.timestamps = valid

	if len(entry.timestamps) >= fg.limitPerMinute {
		if len(entry.timestamps) == 0 {
			return false, windowDuration
		}
		return false, entry.timestamps[0].Sub(windowStart)
	}

	entry.timestamps = append(entry.timestamps, now)
	return true, 0
}

func (fg *Floodgate) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fg.performCleanup()
		case <-fg.stopCleanup:
			return
		}
	}
}

// performCleanup removes clients idle for longer than idleTimeout
func (fg *Floodgate) performCleanup() {
	fg.mutex.Lock()
	defer fg.mutex.Unlock()

	cutoff := fg.now().Add(-idleTimeout)
	for key, entry := range fg.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(fg.entries, key)
		}
	}
}

// GetStats returns statistics about the floodgate for monitoring
func (fg *Floodgate) GetStats() Stats {
	fg.mutex.Lock()
	defer fg.mutex.Unlock()

	return Stats{
		ActiveClients:  len(fg.entries),
		LimitPerMinute: fg.limitPerMinute,
		WindowSeconds:  int(windowDuration.Seconds()),
	}
}

// Stats contains floodgate statistics
type Stats struct {
	ActiveClients  int `json:"active_clients"`
	LimitPerMinute int `json:"limit_per_minute"`
	WindowSeconds  int `json:"window_seconds"`
}
