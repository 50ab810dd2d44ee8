package cache

import "container/list"

// recencyIndex is the recency index (C3): an insertion-ordered mapping
// key → ⊥, ordered least-recently-recorded first, most-recently-recorded
// last. It is a superset of the primary store during pending-evict
// windows and may transiently hold keys already removed from it —
// tolerated as a "straggler".
//
// recencyIndex has no lock of its own: it is exclusively touched by the
// drainer goroutine (C6), never from the hot path, so there is no
// concurrent access to guard against. The reference implementation
// piggybacks eviction discovery on a LinkedHashMap's removeEldestEntry
// hook, mutating shared state inside the map's own insert; here
// trimming is an explicit, separate step the drainer performs after
// each drained batch.
type recencyIndex struct {
	order *list.List
	pos   map[string]*list.Element
}

func newRecencyIndex() *recencyIndex {
	return &recencyIndex{
		order: list.New(),
		pos:   make(map[string]*list.Element),
	}
}

// touch records k as the most recently accessed key, moving it to the
// tail if already present or inserting it there otherwise (I3).
func (r *recencyIndex) touch(k string) {
	if e, ok := r.pos[k]; ok {
		r.order.MoveToBack(e)
		return
	}
	r.pos[k] = r.order.PushBack(k)
}

func (r *recencyIndex) len() int {
	return r.order.Len()
}

// trimToCapacity removes keys from the head (least recent) until the
// index holds at most capacity entries, returning the removed keys in
// eviction order. Called only by the drainer, after a batch of touches.
func (r *recencyIndex) trimToCapacity(capacity int64) []string {
	var victims []string
	for int64(r.order.Len()) > capacity {
		front := r.order.Front()
		k := front.Value.(string)
		r.order.Remove(front)
		delete(r.pos, k)
		victims = append(victims, k)
	}
	return victims
}
