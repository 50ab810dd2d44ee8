// Package cachemocks provides a testify mock of cache.Cache, so the
// protocol layer (conn.go) can be exercised without a real cache
// engine behind it.
package cachemocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/abkumar/batchmemcache/cache"
)

type Cache struct {
	mock.Mock
}

var _ cache.Cache = (*Cache)(nil)

// Get supports either a plain []cache.ItemView return, or a
// func(...[]byte) []cache.ItemView return for tests that need to
// inspect the keys actually passed in.
func (m *Cache) Get(keys ...[]byte) []cache.ItemView {
	args := m.Called(keys)
	ret := args.Get(0)
	if ret == nil {
		return nil
	}
	if fn, ok := ret.(func(...[]byte) []cache.ItemView); ok {
		return fn(keys...)
	}
	return ret.([]cache.ItemView)
}

func (m *Cache) Put(i cache.Item) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *Cache) Delete(key []byte) (bool, error) {
	args := m.Called(key)
	return args.Bool(0), args.Error(1)
}

func (m *Cache) Size() int {
	args := m.Called()
	return args.Int(0)
}

func (m *Cache) Close() error {
	args := m.Called()
	return args.Error(0)
}
