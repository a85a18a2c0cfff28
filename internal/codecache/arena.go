package codecache

import (
	"sync"
	"unsafe"

	"github.com/kilnvm/kiln/api"
)

// DefaultChunkSize is the allocation granularity of the arena: scratch
// requests are bump-allocated out of chunks of this size, and TrimMaps
// releases whole chunks.
const DefaultChunkSize = 256 << 10

// chunk is one bump-allocated region. live counts outstanding Allocs; a
// chunk with live == 0 holds no scratch the compiler still references and
// is eligible for trimming.
type chunk struct {
	buf  []byte
	off  int
	live int
}

func (c *chunk) contains(p uintptr) bool {
	base := uintptr(unsafe.Pointer(&c.buf[0]))
	return p >= base && p < base+uintptr(len(c.buf))
}

// Arena implements api.ArenaPool with chunked bump allocation. Safe for
// concurrent use.
type Arena struct {
	mux       sync.Mutex
	chunkSize int
	chunks    []*chunk
}

// NewArena returns an empty Arena with the given chunk size.
// chunkSize <= 0 selects DefaultChunkSize.
func NewArena(chunkSize int) *Arena {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Arena{chunkSize: chunkSize}
}

// Alloc implements the same method on the api.ArenaPool interface.
func (a *Arena) Alloc(size int) []byte {
	if size <= 0 {
		return nil
	}
	a.mux.Lock()
	defer a.mux.Unlock()

	// Requests larger than the chunk size get a dedicated chunk.
	if size > a.chunkSize {
		c := &chunk{buf: make([]byte, size), off: size, live: 1}
		a.chunks = append(a.chunks, c)
		return c.buf
	}

	for _, c := range a.chunks {
		if len(c.buf)-c.off >= size {
			buf := c.buf[c.off : c.off+size : c.off+size]
			c.off += size
			c.live++
			return buf
		}
	}

	c := &chunk{buf: make([]byte, a.chunkSize), off: size, live: 1}
	a.chunks = append(a.chunks, c)
	return c.buf[0:size:size]
}

// Free implements the same method on the api.ArenaPool interface.
//
// When a chunk's last allocation is freed, its bump offset resets so the
// chunk can be refilled, and its memory is re-zeroed to preserve Alloc's
// zeroed-buffer contract.
func (a *Arena) Free(buf []byte) {
	if len(buf) == 0 {
		return
	}
	a.mux.Lock()
	defer a.mux.Unlock()

	p := uintptr(unsafe.Pointer(&buf[0]))
	for _, c := range a.chunks {
		if !c.contains(p) {
			continue
		}
		c.live--
		if c.live < 0 {
			panic("BUG: arena Free without matching Alloc")
		}
		if c.live == 0 {
			c.off = 0
			for i := range c.buf {
				c.buf[i] = 0
			}
		}
		return
	}
	panic("BUG: arena Free of foreign buffer")
}

// TrimMaps implements the same method on the api.ArenaPool interface:
// every chunk without outstanding allocations is dropped, releasing its
// pages to the garbage collector.
func (a *Arena) TrimMaps() {
	a.mux.Lock()
	defer a.mux.Unlock()

	kept := a.chunks[:0]
	for _, c := range a.chunks {
		if c.live > 0 {
			kept = append(kept, c)
		}
	}
	for i := len(kept); i < len(a.chunks); i++ {
		a.chunks[i] = nil
	}
	a.chunks = kept
}

// ChunkCount returns the number of chunks currently held.
func (a *Arena) ChunkCount() int {
	a.mux.Lock()
	defer a.mux.Unlock()
	return len(a.chunks)
}

var _ api.ArenaPool = (*Arena)(nil)
