// Package chunkid defines the content-addressed identity of a chunk: the
// blake3-256 digest of its plaintext bytes.
package chunkid

import (
	"encoding/hex"
	"fmt"

	"lukechampine.com/blake3"
)

// Size is the digest length in bytes (blake3-256).
const Size = 32

// ChunkId is the identity of a chunk in the store: the blake3-256 digest
// of its decompressed content. It is a plain array so it's comparable
// with == and usable directly as a map key, per spec.md's "equality and
// hashing are the only required operations".
type ChunkId [Size]byte

// Of computes the ChunkId of plaintext.
func Of(plaintext []byte) ChunkId {
	return ChunkId(blake3.Sum256(plaintext))
}

// String renders the id as lowercase hex.
func (id ChunkId) String() string {
	return hex.EncodeToString(id[:])
}

// Short returns an 8-character hex prefix, for compact log lines.
func (id ChunkId) Short() string {
	return id.String()[:8]
}

// IsZero reports whether id is the zero value (never a valid digest in
// practice, but useful as a "not set" sentinel for optional fields).
func (id ChunkId) IsZero() bool {
	return id == ChunkId{}
}

// ParseChunkId parses the hex string produced by String.
func ParseChunkId(s string) (ChunkId, error) {
	var id ChunkId
	if len(s) != Size*2 {
		return id, fmt.Errorf("chunkid: invalid length %d, want %d", len(s), Size*2)
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("chunkid: invalid hex: %w", err)
	}
	copy(id[:], decoded)
	return id, nil
}
