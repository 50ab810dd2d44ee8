package cache

import (
	"sync"
	"time"

	"github.com/abkumar/batchmemcache/log"
)

const (
	// DefaultEvictPeriod is how often the evictor checks the eviction
	// set for a full batch.
	DefaultEvictPeriod = 10 * time.Millisecond
	// DefaultEvictInitialWait delays the first evict tick.
	DefaultEvictInitialWait = 10 * time.Millisecond
	// DefaultBatchSize is how many keys accumulate in the eviction set
	// before the evictor drains it.
	DefaultBatchSize = 500
)

// evictor is the evictor worker (C7): on a fixed period, once the
// eviction set holds at least batchSize keys, it drains the set and
// deletes every key from the primary store, amortizing bin-lock
// acquisition over the whole batch.
type evictor struct {
	log       log.Logger
	evict     *evictSet
	store     *store
	recycle   func(Item)
	batchSize int
	period    time.Duration
	initial   time.Duration

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newEvictor(l log.Logger, e *evictSet, s *store, recycle func(Item), batchSize int) *evictor {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &evictor{
		log:       l,
		evict:     e,
		store:     s,
		recycle:   recycle,
		batchSize: batchSize,
		period:    DefaultEvictPeriod,
		initial:   DefaultEvictInitialWait,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (ev *evictor) start() {
	go ev.run()
}

func (ev *evictor) run() {
	defer close(ev.done)
	timer := time.NewTimer(ev.initial)
	defer timer.Stop()
	for {
		select {
		case <-ev.stop:
			return
		case <-timer.C:
			ev.tick()
			timer.Reset(ev.period)
		}
	}
}

// tick performs one eviction cycle. A worker fault is logged and
// swallowed, matching the drainer's failure semantics.
func (ev *evictor) tick() {
	defer func() {
		if r := recover(); r != nil {
			ev.log.Errorf("Evictor tick panic: %v.", r)
		}
	}()

	ev.evict.checkInvariants()
	victims := ev.evict.drain(ev.batchSize)
	if len(victims) == 0 {
		return
	}
	ev.log.Debugf("Evicting batch of %v keys.", len(victims))
	for _, k := range victims {
		// A key may already be gone (overwritten then re-evicted, or a
		// straggler from a stale recency-index entry); delete is a
		// no-op in that case, never an error.
		if it, deleted := ev.store.delete(k); deleted {
			ev.recycle(it)
		}
	}
}

// close signals the evictor to stop and waits up to timeout for it to
// finish its current tick. Idempotent.
func (ev *evictor) close(timeout time.Duration) error {
	ev.stopOnce.Do(func() { close(ev.stop) })
	select {
	case <-ev.done:
		return nil
	case <-time.After(timeout):
		return errShutdownTimeout
	}
}
