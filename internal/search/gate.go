package search

import (
	"context"
	"sync"
	"time"
)

// intervalGate spaces calls at least interval apart across goroutines.
type intervalGate struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

func newIntervalGate(interval time.Duration) *intervalGate {
	return &intervalGate{interval: max(interval, 0)}
}

// wait blocks until the caller's slot arrives. Slots are reserved under the
// lock so concurrent callers queue instead of firing together.
func (g *intervalGate) wait(ctx context.Context) error {
	if g == nil || g.interval == 0 {
		return ctx.Err()
	}
	g.mu.Lock()
	now := time.Now()
	slot := g.next
	if slot.Before(now) {
		slot = now
	}
	g.next = slot.Add(g.interval)
	g.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// keyGate serializes requests that share an API key and holds the next
// caller back for a server-advised delay. The one-slot channel is the lock,
// so waiters can give up when their context ends.
type keyGate struct {
	slot chan struct{}
	// readyAt is only touched by the slot holder.
	readyAt time.Time
}

func newKeyGate() *keyGate {
	return &keyGate{slot: make(chan struct{}, 1)}
}

var (
	keyGatesMu sync.Mutex
	keyGates   = map[string]*keyGate{}
)

func keyGateFor(scope, apiKey string) *keyGate {
	keyGatesMu.Lock()
	defer keyGatesMu.Unlock()
	id := scope + "\x00" + apiKey
	g, ok := keyGates[id]
	if !ok {
		g = newKeyGate()
		keyGates[id] = g
	}
	return g
}

// acquire returns holding the gate once readyAt has passed. The caller must
// call release. On error the gate is not held.
func (g *keyGate) acquire(ctx context.Context) error {
	select {
	case g.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	wait := time.Until(g.readyAt)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		<-g.slot
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (g *keyGate) release(delay time.Duration) {
	g.readyAt = time.Now().Add(delay)
	<-g.slot
}
