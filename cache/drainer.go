package cache

import (
	"sync"
	"time"

	"github.com/abkumar/batchmemcache/log"
)

const (
	// DefaultDrainPeriod is how often the drainer lifts access records
	// into the recency index.
	DefaultDrainPeriod = 10 * time.Millisecond
	// DefaultDrainInitialWait delays the first drain tick.
	DefaultDrainInitialWait = 1 * time.Millisecond
)

// drainer is the drainer worker (C6): on a fixed period it bulk-drains
// the access log into a scratch slice, replays each key into the
// recency index to move it to the most-recent end, then trims the
// index down to capacity, handing any overflow to the eviction set.
type drainer struct {
	log      log.Logger
	access   *accessLog
	recency  *recencyIndex
	evict    *evictSet
	capacity int64
	period   time.Duration
	initial  time.Duration

	stop     chan struct{}
	done     chan struct{}
	scratch  []string
	stopOnce sync.Once
}

func newDrainer(l log.Logger, a *accessLog, r *recencyIndex, e *evictSet, capacity int64) *drainer {
	return &drainer{
		log:      l,
		access:   a,
		recency:  r,
		evict:    e,
		capacity: capacity,
		period:   DefaultDrainPeriod,
		initial:  DefaultDrainInitialWait,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (d *drainer) start() {
	go d.run()
}

func (d *drainer) run() {
	defer close(d.done)
	timer := time.NewTimer(d.initial)
	defer timer.Stop()
	for {
		select {
		case <-d.stop:
			return
		case <-timer.C:
			d.tick()
			timer.Reset(d.period)
		}
	}
}

// tick performs one drain cycle. A worker fault is logged and swallowed
// the drainer must never die permanently
// while the cache is open.
func (d *drainer) tick() {
	defer func() {
		if r := recover(); r != nil {
			d.log.Errorf("Drainer tick panic: %v.", r)
		}
	}()

	d.scratch = d.access.drainInto(d.scratch[:0])
	if len(d.scratch) == 0 {
		return
	}
	for _, k := range d.scratch {
		d.recency.touch(k)
	}
	d.recency.checkInvariants()
	victims := d.recency.trimToCapacity(d.capacity)
	if len(victims) > 0 {
		d.log.Debugf("Trimmed %v keys from recency index.", len(victims))
		d.evict.add(victims)
	}
}

// close signals the drainer to stop and waits up to timeout for it to
// finish its current tick. Idempotent.
func (d *drainer) close(timeout time.Duration) error {
	d.stopOnce.Do(func() { close(d.stop) })
	select {
	case <-d.done:
		return nil
	case <-time.After(timeout):
		return errShutdownTimeout
	}
}
