package app

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// addressLocks serializes settlement flows per payer address. The coin set
// is a shared external resource; two flows racing on one address could
// both pick the same coin. One weighted semaphore of size 1 per address,
// acquired context-aware so a stuck flow cannot wedge the next caller
// forever.
//
// Entries are refcounted: an address drops out of the map once no flow
// holds or waits on it, so the map tracks active addresses rather than
// every address ever seen.
type addressLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	sem  *semaphore.Weighted
	refs int
}

func newAddressLocks() *addressLocks {
	return &addressLocks{entries: make(map[string]*lockEntry)}
}

func (l *addressLocks) acquire(ctx context.Context, addr string) error {
	l.mu.Lock()
	e, ok := l.entries[addr]
	if !ok {
		e = &lockEntry{sem: semaphore.NewWeighted(1)}
		l.entries[addr] = e
	}
	e.refs++
	l.mu.Unlock()

	if err := e.sem.Acquire(ctx, 1); err != nil {
		l.drop(addr, e)
		return err
	}
	return nil
}

func (l *addressLocks) release(addr string) {
	l.mu.Lock()
	e := l.entries[addr]
	l.mu.Unlock()
	if e == nil {
		return
	}
	e.sem.Release(1)
	l.drop(addr, e)
}

// drop decrements the refcount and evicts the entry once nobody holds or
// waits on it.
func (l *addressLocks) drop(addr string, e *lockEntry) {
	l.mu.Lock()
	e.refs--
	if e.refs == 0 && l.entries[addr] == e {
		delete(l.entries, addr)
	}
	l.mu.Unlock()
}
