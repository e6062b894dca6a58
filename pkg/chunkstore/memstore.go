package chunkstore

import (
	"context"
	"sync"

	"github.com/flyingcircusio/backy-extract/pkg/backyerr"
	"github.com/flyingcircusio/backy-extract/pkg/chunkid"
)

// MemStore is an in-memory Store fake for tests, grounded in the
// teacher's pkg/store/block/memory. Unlike FileStore it holds plaintext
// directly rather than compressed bytes, so tests can populate it
// without needing an LZO encoder; Load still performs the same hash
// verification FileStore does, so corruption tests remain meaningful.
type MemStore struct {
	mu     sync.RWMutex
	chunks map[chunkid.ChunkId][]byte
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{chunks: make(map[chunkid.ChunkId][]byte)}
}

// Put registers plaintext under its own content hash and returns the id.
func (s *MemStore) Put(plaintext []byte) chunkid.ChunkId {
	id := chunkid.Of(plaintext)
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]byte, len(plaintext))
	copy(copied, plaintext)
	s.chunks[id] = copied
	return id
}

// PutCorrupt registers plaintext under a different id than its real hash,
// for exercising the Corrupt error path.
func (s *MemStore) PutCorrupt(id chunkid.ChunkId, plaintext []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]byte, len(plaintext))
	copy(copied, plaintext)
	s.chunks[id] = copied
}

// Load implements Store.
func (s *MemStore) Load(ctx context.Context, id chunkid.ChunkId, expectedLen int) ([]byte, error) {
	s.mu.RLock()
	data, ok := s.chunks[id]
	s.mu.RUnlock()
	if !ok {
		return nil, backyerr.New(backyerr.NotFound, "chunk not found").WithChunk(id.String())
	}
	if len(data) != expectedLen {
		return nil, backyerr.New(backyerr.Corrupt, "stored length does not match expected length").WithChunk(id.String())
	}

	copied := make([]byte, len(data))
	copy(copied, data)

	if got := chunkid.Of(copied); got != id {
		return nil, backyerr.New(backyerr.Corrupt, "chunk hash mismatch").WithChunk(id.String())
	}
	return copied, nil
}
