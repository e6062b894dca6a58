// Package cache implements the two-tier clean/dirty cache that serves
// FUSE reads and writes over an immutable chunk store, per spec.md
// section 4.6.
package cache

import (
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/flyingcircusio/backy-extract/pkg/chunkid"
)

// DefaultCleanCapacity is the clean cache's default byte budget.
const DefaultCleanCapacity = 256 << 20

// innerLRUCapacity bounds the underlying LRU by entry count only as a
// safety net; actual eviction is driven entirely by CleanCache's own
// byte accounting, not this count.
const innerLRUCapacity = 1 << 20

// RefCountedPlaintext is a decompressed chunk buffer shared between the
// clean cache and any in-flight reader, per spec.md section 9's
// ownership note: a reader's handle keeps the buffer valid even if the
// cache evicts it mid-read.
type RefCountedPlaintext struct {
	data []byte
	refs atomic.Int32
}

func newRefCounted(data []byte) *RefCountedPlaintext {
	rp := &RefCountedPlaintext{data: data}
	rp.refs.Store(1)
	return rp
}

// Bytes returns the underlying plaintext. Callers must not mutate it;
// buffers are shared across every holder of a handle.
func (rp *RefCountedPlaintext) Bytes() []byte {
	return rp.data
}

func (rp *RefCountedPlaintext) acquire() *RefCountedPlaintext {
	rp.refs.Add(1)
	return rp
}

// Release drops the caller's reference. The buffer itself is reclaimed
// by the garbage collector once every handle (cache entry included) has
// released it; this bookkeeping exists to make that invariant
// checkable, not to free memory by hand.
func (rp *RefCountedPlaintext) Release() {
	rp.refs.Add(-1)
}

// CleanCache is a byte-bounded least-recently-used cache of decompressed
// chunk plaintext, keyed by chunk id. Grounded on the teacher's
// pkg/cache eviction model (manual byte accounting, evict-until-fits on
// insert) with the LRU ordering delegated to a real library instead of
// the teacher's hand-rolled map-plus-timestamp scan.
type CleanCache struct {
	mu       sync.Mutex
	lru      *lru.LRU[chunkid.ChunkId, *RefCountedPlaintext]
	capacity int64
	used     atomic.Int64
}

// NewCleanCache creates a clean cache bounded to capacityBytes. A
// non-positive value falls back to DefaultCleanCapacity.
func NewCleanCache(capacityBytes int64) *CleanCache {
	if capacityBytes <= 0 {
		capacityBytes = DefaultCleanCapacity
	}
	c := &CleanCache{capacity: capacityBytes}
	inner, err := lru.NewLRU[chunkid.ChunkId, *RefCountedPlaintext](innerLRUCapacity, c.onEvicted)
	if err != nil {
		// innerLRUCapacity is a fixed positive constant; NewLRU only
		// fails for size <= 0.
		panic(err)
	}
	c.lru = inner
	return c
}

func (c *CleanCache) onEvicted(_ chunkid.ChunkId, rp *RefCountedPlaintext) {
	c.used.Add(-int64(len(rp.data)))
	rp.Release()
}

// Get returns a reference-counted handle for id and marks it
// most-recently-used. The caller must Release the handle when done.
func (c *CleanCache) Get(id chunkid.ChunkId) (*RefCountedPlaintext, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rp, ok := c.lru.Get(id)
	if !ok {
		return nil, false
	}
	return rp.acquire(), true
}

// Insert adds plaintext under id, evicting least-recently-used entries
// until it fits within capacity. If id is already present the existing
// entry wins the race and plaintext is discarded by the caller, per
// spec.md section 5: "the loser drops its buffer".
func (c *CleanCache) Insert(id chunkid.ChunkId, plaintext []byte) *RefCountedPlaintext {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.lru.Get(id); ok {
		return existing.acquire()
	}

	size := int64(len(plaintext))
	for c.used.Load()+size > c.capacity {
		if _, _, ok := c.lru.RemoveOldest(); !ok {
			break
		}
	}

	rp := newRefCounted(plaintext)
	c.lru.Add(id, rp)
	c.used.Add(size)
	return rp.acquire()
}

// UsedBytes returns the current byte accounting total.
func (c *CleanCache) UsedBytes() int64 {
	return c.used.Load()
}

var (
	zeroMu  sync.Mutex
	zeroBuf []byte
)

// sharedZeros returns a read-only slice of at least n zero bytes,
// growing a package-level buffer on demand rather than allocating fresh
// zeros per hole, per spec.md section 4.6's "Hole chunks materialise as
// a shared zero buffer without touching the store".
func sharedZeros(n int) []byte {
	zeroMu.Lock()
	defer zeroMu.Unlock()
	if len(zeroBuf) < n {
		zeroBuf = make([]byte, n)
	}
	return zeroBuf[:n]
}

// zeroPlaintext wraps n shared zero bytes as a handle with the same
// shape as a cache hit, so callers don't special-case holes.
func zeroPlaintext(n int) *RefCountedPlaintext {
	return newRefCounted(sharedZeros(n))
}
