package restore

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/flyingcircusio/backy-extract/pkg/backyerr"
	"github.com/flyingcircusio/backy-extract/pkg/chunkid"
	"github.com/flyingcircusio/backy-extract/pkg/chunkstore"
	"github.com/flyingcircusio/backy-extract/pkg/manifest"
	"github.com/flyingcircusio/backy-extract/pkg/progress"
)

const testChunkSize = 8

func TestPipelineRestoresAllHolesToFile(t *testing.T) {
	store := chunkstore.NewMemStore()
	m := manifest.NewBuilder(testChunkSize).AddHole().AddHole().AddHole().Build(3 * testChunkSize)

	dir := t.TempDir()
	path := filepath.Join(dir, "out.img")
	target, err := OpenFileTarget(path)
	if err != nil {
		t.Fatalf("OpenFileTarget: %v", err)
	}

	p := New(store, m, progress.NoOp{}, Config{Workers: 2, QueueDepth: 4, Sparse: SparseAlways})
	if err := p.Run(context.Background(), target); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := target.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != 3*testChunkSize {
		t.Fatalf("restored size = %d, want %d", len(got), 3*testChunkSize)
	}
	if !allZero(got) {
		t.Error("restored all-hole image should be all zero")
	}
}

func TestPipelinePoolsBuffersSizedToChunkSize(t *testing.T) {
	store := chunkstore.NewMemStore()
	chunkA := bytes.Repeat([]byte{0xAA}, testChunkSize)
	chunkB := bytes.Repeat([]byte{0xBB}, testChunkSize)
	idA := store.Put(chunkA)
	idB := store.Put(chunkB)

	m := manifest.NewBuilder(testChunkSize).AddData(idA).AddData(idB).Build(2 * testChunkSize)

	dir := t.TempDir()
	target, err := OpenFileTarget(filepath.Join(dir, "out.img"))
	if err != nil {
		t.Fatalf("OpenFileTarget: %v", err)
	}

	p := New(store, m, progress.NoOp{}, Config{Workers: 1, QueueDepth: 1, Sparse: SparseAuto})
	if err := p.Run(context.Background(), target); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := target.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if p.bufPool.Size() != testChunkSize {
		t.Errorf("bufPool size = %d, want %d", p.bufPool.Size(), testChunkSize)
	}
	// Every verbatim write returns its buffer to the pool (runWriter's
	// deliver); whether a post-Run Get reuses one of those or allocates a
	// fresh one, it must come back at the chunk-size capacity.
	if buf := p.bufPool.Get(); cap(buf) != testChunkSize {
		t.Errorf("pooled buffer cap = %d, want %d", cap(buf), testChunkSize)
	}
}

func TestPipelineRestoresMixedImageToPipe(t *testing.T) {
	store := chunkstore.NewMemStore()
	chunkA := bytes.Repeat([]byte{0xAA}, testChunkSize)
	idA := store.Put(chunkA)
	chunkC := []byte{1, 2, 3, 4}
	idC := store.Put(chunkC)

	m := manifest.NewBuilder(testChunkSize).
		AddData(idA).
		AddHole().
		AddData(idC).
		Build(2*testChunkSize + uint64(len(chunkC)))

	var buf bytes.Buffer
	target := NewPipeTarget(&buf)

	p := New(store, m, progress.NoOp{}, Config{Workers: 3, QueueDepth: 4, Sparse: SparseAuto})
	if err := p.Run(context.Background(), target); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := target.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	want := append(append(append([]byte{}, chunkA...), make([]byte, testChunkSize)...), chunkC...)
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("pipe content = %x, want %x", buf.Bytes(), want)
	}
}

func TestPipelineCorruptChunkAbortsRestore(t *testing.T) {
	store := chunkstore.NewMemStore()
	real := bytes.Repeat([]byte{0x11}, testChunkSize)
	id := chunkStoreBadID(t, store, real)

	m := manifest.NewBuilder(testChunkSize).AddData(id).Build(testChunkSize)

	dir := t.TempDir()
	target, err := OpenFileTarget(filepath.Join(dir, "out.img"))
	if err != nil {
		t.Fatalf("OpenFileTarget: %v", err)
	}

	p := New(store, m, progress.NoOp{}, Config{Workers: 1, QueueDepth: 2, Sparse: SparseAuto})
	err = p.Run(context.Background(), target)
	if !backyerr.HasCode(err, backyerr.Corrupt) {
		t.Fatalf("Run error = %v, want Corrupt", err)
	}
}

// chunkStoreBadID stores plaintext under an id that doesn't match its
// hash, to exercise the hash-mismatch Corrupt path.
func chunkStoreBadID(t *testing.T, store *chunkstore.MemStore, plaintext []byte) chunkid.ChunkId {
	t.Helper()
	wrongPlaintext := append([]byte{}, plaintext...)
	wrongPlaintext[0] ^= 0xff
	realID := store.Put(plaintext)
	store.PutCorrupt(realID, wrongPlaintext)
	return realID
}

func TestPipelineSparseAlwaysSkipsHolesOnSeekableTarget(t *testing.T) {
	store := chunkstore.NewMemStore()
	m := manifest.NewBuilder(testChunkSize).AddHole().Build(testChunkSize)

	dir := t.TempDir()
	path := filepath.Join(dir, "out.img")
	target, err := OpenFileTarget(path)
	if err != nil {
		t.Fatalf("OpenFileTarget: %v", err)
	}

	p := New(store, m, progress.NoOp{}, Config{Workers: 1, QueueDepth: 1, Sparse: SparseAlways})
	if err := p.Run(context.Background(), target); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := target.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() != testChunkSize {
		t.Errorf("file size = %d, want %d (sparse skip should still extend via Truncate)", info.Size(), testChunkSize)
	}
}
