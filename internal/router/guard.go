package router

import "sync"

// Guard admits or refuses a turn before any provider work starts. Admit and
// Release are paired on every exit path of the pipeline.
type Guard interface {
	// Admit reports whether the turn may proceed. Implementations either
	// reject duplicates (RequestGuard) or block until the lane is free
	// (SerialGuard).
	Admit(key RequestKey) bool

	// Release ends the turn admitted under key.
	Release(key RequestKey)
}

// RequestGuard refuses a turn while an identical request key is already in
// flight. Because the arrival timestamp is part of the key, it only filters
// duplicated deliveries of the same event; two concurrent turns from one
// sender run in parallel.
type RequestGuard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewRequestGuard creates an empty RequestGuard.
func NewRequestGuard() *RequestGuard {
	return &RequestGuard{inflight: make(map[string]struct{})}
}

// Admit marks the key in flight. It returns false when the same key is
// already being processed.
func (g *RequestGuard) Admit(key RequestKey) bool {
	k := key.String()
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inflight[k]; busy {
		return false
	}
	g.inflight[k] = struct{}{}
	return true
}

// Release removes the key from the in-flight set.
func (g *RequestGuard) Release(key RequestKey) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inflight, key.String())
}

// SerialGuard queues turns of the same (thread, sender) lane instead of
// running them in parallel: Admit blocks until the lane is free and always
// returns true. Enabled by the router's serialize option.
type SerialGuard struct {
	lanes *LaneLock
}

// NewSerialGuard creates a SerialGuard with its own lane map.
func NewSerialGuard() *SerialGuard {
	return &SerialGuard{lanes: NewLaneLock()}
}

// Admit acquires the sender's lane, blocking behind any running turn.
func (g *SerialGuard) Admit(key RequestKey) bool {
	g.lanes.Acquire(key.Session)
	return true
}

// Release frees the sender's lane.
func (g *SerialGuard) Release(key RequestKey) {
	g.lanes.Release(key.Session)
}

// Lanes exposes the lane map for periodic cleanup of idle entries.
func (g *SerialGuard) Lanes() *LaneLock {
	return g.lanes
}
