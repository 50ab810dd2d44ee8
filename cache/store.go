package cache

import "sync"

// store is the primary store (C5), partitioned into bins (C1) so a
// store/delete on one key never serializes against a get/store/delete on
// a key hashing to a different bin. This is the Go-native form of the
// reference implementation's lock striping over a ConcurrentHashMap: in
// Go a plain map has no internal striping of its own, so the shard and
// its guarding RWMutex are the same partition.
//
// get takes a read lock on the key's bin; put and delete take a write
// lock. Cross-bin operations never serialize with each other, so there
// is no global consistency snapshot and size() is approximate.
type store struct {
	mask   uint64
	shards []storeShard
}

type storeShard struct {
	mu   sync.RWMutex
	data map[string]Item
}

func newStore() *store {
	n := numBins()
	s := &store{
		mask:   uint64(n - 1),
		shards: make([]storeShard, n),
	}
	for i := range s.shards {
		s.shards[i].data = make(map[string]Item)
	}
	return s
}

func (s *store) shard(key string) *storeShard {
	return &s.shards[binIndex([]byte(key), s.mask)]
}

// get returns the item for key and true if present.
func (s *store) get(key string) (Item, bool) {
	sh := s.shard(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	it, ok := sh.data[key]
	return it, ok
}

// put inserts or overwrites key's item. The item previously stored at
// key, if any, is returned so the caller can recycle its data.
func (s *store) put(it Item) (prev Item, hadPrev bool) {
	sh := s.shard(it.Key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	prev, hadPrev = sh.data[it.Key]
	sh.data[it.Key] = it
	return
}

// delete removes key, returning the removed item so the caller can
// recycle its data.
func (s *store) delete(key string) (it Item, deleted bool) {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	it, deleted = sh.data[key]
	if deleted {
		delete(sh.data, key)
	}
	return
}

// size returns the cardinality of the store at a moment in time. Since
// shards are read independently, this is a snapshot of no particular
// instant under concurrent writers — acceptable given size()'s
// contract ("may be stale by one drainer cycle").
func (s *store) size() int {
	var n int
	for i := range s.shards {
		s.shards[i].mu.RLock()
		n += len(s.shards[i].data)
		s.shards[i].mu.RUnlock()
	}
	return n
}
