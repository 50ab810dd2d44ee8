// Package cache implements a concurrent, capacity-bounded key/value
// store approximating LRU eviction.
//
// Exact LRU requires a single critical section per access that both
// reads the value and reorders the recency structure, which serializes
// every get behind every other get and put. This package instead
// splits recency tracking off the hot path entirely: accesses are
// recorded into a lock-free log (accessLog), periodically folded into
// an ordered index (recencyIndex) by a background drainer, and entries
// that fall off the tail of that index are queued for batched removal
// by a background evictor. The tradeoff is that eviction order is only
// approximately least-recently-used, bounded by how far the workers
// have fallen behind — acceptable for a cache, where an occasional
// wrong eviction is a cost, not a correctness bug.
package cache
