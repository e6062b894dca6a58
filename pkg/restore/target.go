package restore

import (
	"io"
	"os"

	"github.com/flyingcircusio/backy-extract/pkg/backyerr"
)

// Target is a restore destination, per spec.md section 4.5/6's three
// target kinds. Every implementation must support sequential ascending
// writes at strictly increasing offsets, since the Writer delivers
// chunks in manifest order.
type Target interface {
	// IsSeekable reports whether the target supports seeking/truncation
	// (regular file, block device) as opposed to a pipe.
	IsSeekable() bool

	// WriteAt writes p at the given logical offset. Implementations that
	// aren't actually seekable (PipeTarget) require offset to equal the
	// running write cursor; the Writer only ever calls WriteAt with
	// strictly ascending, contiguous offsets, so this is never a real
	// seek in practice.
	WriteAt(p []byte, offset int64) error

	// Skip advances the logical write position by n bytes without
	// writing, for sparse holes on a seekable target. Must not be
	// called on a non-seekable target.
	Skip(n int64) error

	// Truncate sets the final target length to size, per spec.md's "end
	// of image" rule. No-op for block devices (the target's own size is
	// asserted to be >= size instead, at Close).
	Truncate(size int64) error

	// Close finalizes the target.
	Close() error
}

// FileTarget restores to a regular file, created/truncated fresh.
type FileTarget struct {
	f *os.File
}

// OpenFileTarget creates (or truncates) path for restore.
func OpenFileTarget(path string) (*FileTarget, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, backyerr.Wrap(backyerr.IoError, "opening restore target", err)
	}
	return &FileTarget{f: f}, nil
}

func (t *FileTarget) IsSeekable() bool { return true }

func (t *FileTarget) WriteAt(p []byte, offset int64) error {
	if _, err := t.f.WriteAt(p, offset); err != nil {
		return backyerr.Wrap(backyerr.IoError, "writing restore target", err)
	}
	return nil
}

func (t *FileTarget) Skip(n int64) error {
	// Sparse regions are never written; the file simply grows to its
	// final size via Truncate. No seek is needed here because WriteAt
	// already positions by absolute offset.
	return nil
}

func (t *FileTarget) Truncate(size int64) error {
	if err := t.f.Truncate(size); err != nil {
		return backyerr.Wrap(backyerr.IoError, "truncating restore target", err)
	}
	return nil
}

func (t *FileTarget) Close() error {
	if err := t.f.Close(); err != nil {
		return backyerr.Wrap(backyerr.IoError, "closing restore target", err)
	}
	return nil
}

// BlockDeviceTarget restores to a pre-existing block device. Unlike
// FileTarget, Truncate is a no-op and Close instead verifies the device
// is at least image_size bytes, per spec.md's "no truncation; asserts
// device size >= image_size".
type BlockDeviceTarget struct {
	f        *os.File
	minSize  int64
	required int64
}

// OpenBlockDeviceTarget opens an existing block device for restore.
func OpenBlockDeviceTarget(path string) (*BlockDeviceTarget, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, backyerr.Wrap(backyerr.IoError, "opening block device target", err)
	}
	size, err := deviceSize(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &BlockDeviceTarget{f: f, minSize: size}, nil
}

func (t *BlockDeviceTarget) IsSeekable() bool { return true }

func (t *BlockDeviceTarget) WriteAt(p []byte, offset int64) error {
	if _, err := t.f.WriteAt(p, offset); err != nil {
		return backyerr.Wrap(backyerr.IoError, "writing block device target", err)
	}
	return nil
}

func (t *BlockDeviceTarget) Skip(n int64) error { return nil }

func (t *BlockDeviceTarget) Truncate(size int64) error {
	t.required = size
	return nil
}

func (t *BlockDeviceTarget) Close() error {
	if t.minSize < t.required {
		t.f.Close()
		return backyerr.New(backyerr.IoError, "block device is smaller than image size")
	}
	if err := t.f.Close(); err != nil {
		return backyerr.Wrap(backyerr.IoError, "closing block device target", err)
	}
	return nil
}

// PipeTarget restores to a non-seekable stream. Per spec.md, sparse
// modes other than Never are ignored: every hole is materialized as
// literal zeros, since the stream can't be made sparse after the fact.
type PipeTarget struct {
	w      io.Writer
	cursor int64
}

// NewPipeTarget wraps a writer (e.g. os.Stdout or a named pipe) as a
// restore target. w must be written to strictly sequentially.
func NewPipeTarget(w io.Writer) *PipeTarget {
	return &PipeTarget{w: w}
}

func (t *PipeTarget) IsSeekable() bool { return false }

func (t *PipeTarget) WriteAt(p []byte, offset int64) error {
	if offset != t.cursor {
		return backyerr.New(backyerr.IoError, "pipe target requires sequential writes").WithOffset(offset)
	}
	n, err := t.w.Write(p)
	t.cursor += int64(n)
	if err != nil {
		return backyerr.Wrap(backyerr.IoError, "writing pipe target", err)
	}
	return nil
}

func (t *PipeTarget) Skip(n int64) error {
	return backyerr.New(backyerr.InvalidArgument, "pipe target cannot skip bytes")
}

func (t *PipeTarget) Truncate(size int64) error {
	if t.cursor != size {
		return backyerr.New(backyerr.IoError, "pipe target did not receive the full image")
	}
	return nil
}

func (t *PipeTarget) Close() error { return nil }
