// Package chunkstore implements spec.md section 4.1's Chunk Store: a
// read-only, content-addressed mapping from ChunkId to decompressed
// plaintext, backed by a directory of compressed files on disk.
package chunkstore

import (
	"context"

	"github.com/flyingcircusio/backy-extract/pkg/chunkid"
)

// Store resolves a chunk identifier to its decompressed plaintext and
// verifies the result hashes back to the requested id.
type Store interface {
	// Load returns the decompressed, hash-verified plaintext for id.
	// expectedLen is the manifest's chunk_size, or the short last
	// chunk's length, per spec.md section 4.2's Decompressor contract.
	// Errors: backyerr.NotFound (no such chunk), backyerr.Corrupt
	// (payload unreadable or hash mismatch), backyerr.IoError
	// (transient storage failure).
	Load(ctx context.Context, id chunkid.ChunkId, expectedLen int) ([]byte, error)
}
