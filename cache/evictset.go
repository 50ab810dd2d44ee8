package cache

import "sync"

// evictSet is the eviction set (C4): keys selected by the recency index
// for removal from the primary store, guarded by its own lock
// independent of the store's bins. This lock is always taken innermost
// with respect to bin locks — the evictor holds it only to snapshot
// and clear the set, then acquires bin locks one key at a time, never
// both locks for more than one key simultaneously.
type evictSet struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newEvictSet() *evictSet {
	return &evictSet{keys: make(map[string]struct{})}
}

// add enqueues keys for eviction. Called by the drainer after trimming
// the recency index.
func (e *evictSet) add(keys []string) {
	if len(keys) == 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, k := range keys {
		e.keys[k] = struct{}{}
	}
}

func (e *evictSet) len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.keys)
}

// drain removes and returns every pending key once the set has reached
// batchSize, or nil if it hasn't: batching amortizes lock
// acquisition and shrinks the evictor's critical-section share of wall
// time.
func (e *evictSet) drain(batchSize int) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.keys) < batchSize {
		return nil
	}
	victims := make([]string, 0, len(e.keys))
	for k := range e.keys {
		victims = append(victims, k)
	}
	e.keys = make(map[string]struct{})
	return victims
}
