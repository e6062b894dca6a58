// Package manifest defines the ordered sequence of chunk references that
// describes one revision's image content. It has no dependency on how
// that sequence is parsed from disk (see the revisionfile subpackage) or
// on how chunks are fetched (see pkg/chunkstore); it is a pure, immutable
// view, matching the "format parser is out of scope for the core" split
// in spec.md section 1.
package manifest

import (
	"fmt"
	"iter"

	"github.com/flyingcircusio/backy-extract/pkg/chunkid"
)

// Kind distinguishes the two cases of a ChunkRef.
type Kind uint8

const (
	// RefHole denotes a chunk-sized region known to be all zeros, never
	// materialized on disk.
	RefHole Kind = iota

	// RefData denotes a chunk backed by a stored, content-addressed blob.
	RefData
)

// ChunkRef is one entry of a manifest: either a Hole or a reference to a
// stored chunk's id. Modeled as a struct with a Kind tag rather than an
// interface so a manifest of a terabyte-scale image stays cheap to hold
// fully in memory.
type ChunkRef struct {
	Kind Kind
	ID   chunkid.ChunkId // meaningful only when Kind == RefData
}

// Hole returns a Hole reference.
func Hole() ChunkRef {
	return ChunkRef{Kind: RefHole}
}

// Data returns a reference to the chunk identified by id.
func Data(id chunkid.ChunkId) ChunkRef {
	return ChunkRef{Kind: RefData, ID: id}
}

// IsHole reports whether the reference is a Hole.
func (r ChunkRef) IsHole() bool {
	return r.Kind == RefHole
}

func (r ChunkRef) String() string {
	if r.IsHole() {
		return "Hole"
	}
	return fmt.Sprintf("Data(%s)", r.ID.Short())
}

// Manifest is the immutable, ordered list of chunk references describing
// one revision's image, per spec.md section 4.3.
type Manifest interface {
	// ImageSize returns the total image size in bytes.
	ImageSize() uint64

	// ChunkSize returns the uniform chunk size in bytes (a power of two).
	ChunkSize() uint32

	// Len returns the number of chunk entries, ceil(ImageSize/ChunkSize).
	Len() int

	// RefAt returns the chunk reference at the given index. Panics if
	// index is out of [0, Len()).
	RefAt(index int) ChunkRef

	// All iterates entries in ascending index order. Iteration can be
	// stopped early by the consumer (range-over-func semantics).
	All() iter.Seq2[int, ChunkRef]

	// BoundsAt returns the half-open byte range [start, end) of the
	// image that entry index covers. end-start is ChunkSize() for every
	// entry except possibly the last, which is clipped to ImageSize().
	BoundsAt(index int) (start, end uint64)
}

// static is a simple in-memory Manifest backed by a slice, used by the
// revisionfile parser and by the in-memory Builder below.
type static struct {
	imageSize uint64
	chunkSize uint32
	refs      []ChunkRef
}

// New builds a Manifest from a fully-materialized slice of references.
// It panics if refs doesn't have exactly ceil(imageSize/chunkSize)
// entries, since a manifest is defined to cover the whole image.
func New(imageSize uint64, chunkSize uint32, refs []ChunkRef) Manifest {
	want := expectedLen(imageSize, chunkSize)
	if len(refs) != want {
		panic(fmt.Sprintf("manifest: got %d entries, want %d for image_size=%d chunk_size=%d", len(refs), want, imageSize, chunkSize))
	}
	return &static{imageSize: imageSize, chunkSize: chunkSize, refs: refs}
}

func expectedLen(imageSize uint64, chunkSize uint32) int {
	if chunkSize == 0 {
		return 0
	}
	return int((imageSize + uint64(chunkSize) - 1) / uint64(chunkSize))
}

func (m *static) ImageSize() uint64 { return m.imageSize }
func (m *static) ChunkSize() uint32 { return m.chunkSize }
func (m *static) Len() int          { return len(m.refs) }

func (m *static) RefAt(index int) ChunkRef {
	return m.refs[index]
}

func (m *static) BoundsAt(index int) (start, end uint64) {
	start = uint64(index) * uint64(m.chunkSize)
	end = start + uint64(m.chunkSize)
	if end > m.imageSize {
		end = m.imageSize
	}
	return start, end
}

func (m *static) All() iter.Seq2[int, ChunkRef] {
	return func(yield func(int, ChunkRef) bool) {
		for i, ref := range m.refs {
			if !yield(i, ref) {
				return
			}
		}
	}
}

// Builder accumulates ChunkRefs for tests (the revisionfile parser calls
// New directly), grounded in the teacher's pkg/store/block/memory fake-for-tests
// pattern: a small in-memory construction type kept separate from the
// production Manifest so callers never need a full document on disk to
// exercise the pipeline.
type Builder struct {
	chunkSize uint32
	refs      []ChunkRef
}

// NewBuilder starts a manifest builder with the given chunk size.
func NewBuilder(chunkSize uint32) *Builder {
	return &Builder{chunkSize: chunkSize}
}

// AddHole appends a Hole entry.
func (b *Builder) AddHole() *Builder {
	b.refs = append(b.refs, Hole())
	return b
}

// AddData appends a Data entry for id.
func (b *Builder) AddData(id chunkid.ChunkId) *Builder {
	b.refs = append(b.refs, Data(id))
	return b
}

// Build finalizes the manifest. imageSize must be consistent with the
// number of entries added (ceil(imageSize/chunkSize) == len(entries)).
func (b *Builder) Build(imageSize uint64) Manifest {
	return New(imageSize, b.chunkSize, b.refs)
}
