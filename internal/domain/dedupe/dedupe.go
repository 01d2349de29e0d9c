// Package dedupe remembers race request ids so a retried submission is not
// simulated and settled twice.
package dedupe

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMaxSize = 10_000

// Deduper tracks request ids through claim, complete and release.
type Deduper interface {
	// Claim records id as in flight. It returns false when id is already
	// claimed or completed.
	Claim(ctx context.Context, id string) bool
	// Complete associates a claimed id with the race it produced.
	Complete(ctx context.Context, id, raceID string)
	// Release forgets id so the caller may retry after a failure.
	Release(ctx context.Context, id string)
	// Lookup returns the race recorded for id. ok is false while the id is
	// unknown or still in flight.
	Lookup(ctx context.Context, id string) (raceID string, ok bool)
	Size() int
}

// requestIDs is a Deduper backed by an LRU so the oldest ids are forgotten
// first once the bound is reached.
type requestIDs struct {
	mu    sync.Mutex
	cache *lru.Cache[string, string]
	// unbounded is used when maxSize <= 0.
	unbounded map[string]string
	maxSize   int
}

// NewInMemoryDeduper creates a Deduper holding up to WithMaxSize ids.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &requestIDs{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	if d.maxSize > 0 {
		// lru.New only fails on a non-positive size.
		d.cache, _ = lru.New[string, string](d.maxSize)
	} else {
		d.unbounded = make(map[string]string)
	}
	return d
}

func (d *requestIDs) Claim(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cache != nil {
		seen, _ := d.cache.ContainsOrAdd(id, "")
		return !seen
	}
	if _, seen := d.unbounded[id]; seen {
		return false
	}
	d.unbounded[id] = ""
	return true
}

func (d *requestIDs) Complete(_ context.Context, id, raceID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cache != nil {
		d.cache.Add(id, raceID)
		return
	}
	d.unbounded[id] = raceID
}

func (d *requestIDs) Release(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cache != nil {
		d.cache.Remove(id)
		return
	}
	delete(d.unbounded, id)
}

func (d *requestIDs) Lookup(_ context.Context, id string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var raceID string
	if d.cache != nil {
		raceID, _ = d.cache.Peek(id)
	} else {
		raceID = d.unbounded[id]
	}
	return raceID, raceID != ""
}

func (d *requestIDs) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cache != nil {
		return d.cache.Len()
	}
	return len(d.unbounded)
}
