// Package codecache provides the default implementations of the
// api.CodeCache and api.ArenaPool capabilities: a capacity-bounded store
// for generated code and a bulk-reclaimed scratch allocator.
package codecache

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/kilnvm/kiln/api"
)

// ErrCacheFull is returned by Commit when the generated code would exceed
// the cache's capacity. Backends surface this as an ordinary compile
// failure, not a fault.
var ErrCacheFull = errors.New("code cache capacity exhausted")

// DefaultCapacity bounds the default cache at 64 MiB of generated code.
const DefaultCapacity = 64 << 20

type entry struct {
	code []byte
	addr uint64
}

// Cache implements api.CodeCache. Safe for concurrent use.
type Cache struct {
	mux      sync.RWMutex
	entries  map[uint64]entry // keyed by method ID
	capacity int
	used     int
}

// NewCache returns an empty Cache bounded at capacity bytes of committed
// code. capacity <= 0 selects DefaultCapacity.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{entries: map[uint64]entry{}, capacity: capacity}
}

// Commit implements the same method on the api.CodeCache interface.
//
// The code is copied into cache-owned memory: callers may reuse their
// buffer afterwards. Committing again for the same method replaces the
// previous entry, as OSR recompilation does.
func (c *Cache) Commit(m api.Method, code []byte) (uint64, error) {
	if len(code) == 0 {
		return 0, fmt.Errorf("commit of empty code for %s", m.FullName())
	}
	c.mux.Lock()
	defer c.mux.Unlock()

	used := c.used
	if prev, ok := c.entries[m.ID()]; ok {
		used -= len(prev.code)
	}
	if used+len(code) > c.capacity {
		return 0, ErrCacheFull
	}

	owned := make([]byte, len(code))
	copy(owned, code)
	addr := uint64(uintptr(unsafe.Pointer(&owned[0])))
	c.entries[m.ID()] = entry{code: owned, addr: addr}
	c.used = used + len(code)
	return addr, nil
}

// Lookup implements the same method on the api.CodeCache interface.
func (c *Cache) Lookup(m api.Method) (uint64, bool) {
	c.mux.RLock()
	defer c.mux.RUnlock()
	e, ok := c.entries[m.ID()]
	return e.addr, ok
}

// Used returns the bytes of code currently committed.
func (c *Cache) Used() int {
	c.mux.RLock()
	defer c.mux.RUnlock()
	return c.used
}

var _ api.CodeCache = (*Cache)(nil)
