// Package cache implements the bounded LRU cache engine (C1–C7): a
// concurrent key/value store whose recency tracking is decoupled from
// the hot path through a lock-free access log drained by a background
// worker, with eviction performed in batches.
//
// Two representations are deliberately not unified: the primary store
// (C5) indexes values, the recency index (C3) indexes access order.
// They are reconciled lazily by the drainer and evictor workers, never
// synchronously on the hot path — fusing them back into one intrusive
// structure would reintroduce the critical-section length batching was
// built to remove.
package cache

import (
	"errors"
	"time"

	"github.com/abkumar/batchmemcache/log"
	"github.com/abkumar/batchmemcache/recycle"
)

// ErrInvalidKey is the only error Get/Put/Delete ever return: a nil or
// empty key. Capacity overflow is never an error.
var ErrInvalidKey = errors.New("invalid key")

var errShutdownTimeout = errors.New("cache: worker did not stop before shutdown timeout")

// Cache is the contract the protocol layer (C8/C9) consumes.
type Cache interface {
	// Get returns a view for every key found; misses are simply absent
	// from the result. Each returned ItemView.Reader must be closed by
	// the caller.
	Get(keys ...[]byte) []ItemView
	// Put inserts or overwrites key's entry and records an access.
	Put(i Item) error
	// Delete removes key's entry if present.
	Delete(key []byte) (deleted bool, err error)
	// Size returns the store's cardinality; may be stale by one
	// drainer cycle.
	Size() int
	// Close initiates orderly worker shutdown, blocking until the
	// workers stop or the shutdown timeout elapses.
	Close() error
}

// Config configures a cache instance.
type Config struct {
	// Capacity is the maximum number of entries the store settles to
	// in steady state; required, must be > 0.
	Capacity int64
	// AccessLogCapacity bounds the access log (C2); 0 picks
	// DefaultAccessLogCapacity.
	AccessLogCapacity int
	// BatchSize is how many keys accumulate before the evictor drains
	// them; 0 picks DefaultBatchSize.
	BatchSize int
	// ShutdownTimeout bounds how long Close waits for each worker; 0
	// picks DefaultShutdownTimeout.
	ShutdownTimeout time.Duration
}

// DefaultShutdownTimeout is how long Close waits for each worker to
// stop before giving up.
const DefaultShutdownTimeout = 60 * time.Second

type cache struct {
	log   log.Logger
	pool  *recycle.Pool
	store *store

	access  *accessLog
	recency *recencyIndex
	evicts  *evictSet

	drainer *drainer
	evictor *evictor

	shutdownTimeout time.Duration
}

// New constructs a Cache and starts its drainer and evictor workers.
func New(l log.Logger, p *recycle.Pool, conf Config) Cache {
	if conf.Capacity <= 0 {
		panic("cache: Capacity must be positive")
	}
	shutdownTimeout := conf.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}

	c := &cache{
		log:             l,
		pool:            p,
		store:           newStore(),
		access:          newAccessLog(conf.AccessLogCapacity),
		recency:         newRecencyIndex(),
		evicts:          newEvictSet(),
		shutdownTimeout: shutdownTimeout,
	}
	c.drainer = newDrainer(l.WithFields(log.Fields{"worker": "drainer"}), c.access, c.recency, c.evicts, conf.Capacity)
	c.evictor = newEvictor(l.WithFields(log.Fields{"worker": "evictor"}), c.evicts, c.store, c.recycleItem, conf.BatchSize)
	c.drainer.start()
	c.evictor.start()
	return c
}

var _ Cache = (*cache)(nil)

func (c *cache) Get(keys ...[]byte) (views []ItemView) {
	for _, key := range keys {
		it, ok := c.store.get(string(key))
		if !ok {
			continue
		}
		// Record only on hit: recording misses would pollute recency
		// with keys nobody actually holds data for, though recording
		// misses too would be a defensible choice.
		c.access.record(it.Key)
		views = append(views, it.NewView())
	}
	return
}

func (c *cache) Put(i Item) error {
	if len(i.Key) == 0 {
		return ErrInvalidKey
	}
	prev, hadPrev := c.store.put(i)
	c.access.record(i.Key)
	if hadPrev {
		c.recycleItem(prev)
	}
	return nil
}

func (c *cache) Delete(key []byte) (bool, error) {
	if len(key) == 0 {
		return false, ErrInvalidKey
	}
	it, deleted := c.store.delete(string(key))
	if deleted {
		c.recycleItem(it)
	}
	return deleted, nil
}

func (c *cache) Size() int {
	return c.store.size()
}

func (c *cache) Close() error {
	c.log.Info("Closing cache workers.")
	drainErr := c.drainer.close(c.shutdownTimeout)
	evictErr := c.evictor.close(c.shutdownTimeout)
	if drainErr != nil {
		return drainErr
	}
	return evictErr
}

func (c *cache) recycleItem(it Item) {
	if it.Data != nil {
		it.Data.Recycle()
	}
}
