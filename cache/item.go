package cache

import (
	"fmt"

	"github.com/abkumar/batchmemcache/recycle"
)

// ItemMeta is the metadata half of an Entry: everything but the
// value bytes themselves.
type ItemMeta struct {
	Key     string
	Flags   uint32
	Exptime int64
	Bytes   int
}

// Item is an Entry ready to be stored: ItemMeta plus pooled, recyclable
// value bytes. Exptime is parsed and carried, never acted on (Non-goals).
type Item struct {
	ItemMeta
	Data *recycle.Data
}

// NewView returns a read-only view of i. Callers of Cache.Get receive
// ItemViews, not Items, so they can never mutate or prematurely recycle
// a value still referenced by the store.
func (i Item) NewView() ItemView {
	return ItemView{
		ItemMeta: i.ItemMeta,
		Reader:   i.Data.NewReader(),
	}
}

// ItemView is what Cache.Get returns: metadata plus a single-use reader
// over the value. The reader must be closed by the caller once drained.
type ItemView struct {
	ItemMeta
	Reader *recycle.DataReader
}

func (i Item) GoString() string {
	return fmt.Sprintf("{ItemMeta:%#v, Data:%#v}", i.ItemMeta, i.Data)
}
