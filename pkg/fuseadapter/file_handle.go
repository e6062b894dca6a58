package fuseadapter

import (
	"context"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// fileHandle delegates reads and writes to the revision's cache tier.
// flush/fsync/release are no-ops: dirty pages live only in memory for
// the mount's lifetime, per spec.md section 4.7.
type fileHandle struct {
	entry *Entry
}

var (
	_ fs.FileReader   = (*fileHandle)(nil)
	_ fs.FileWriter   = (*fileHandle)(nil)
	_ fs.FileFlusher  = (*fileHandle)(nil)
	_ fs.FileFsyncer  = (*fileHandle)(nil)
	_ fs.FileReleaser = (*fileHandle)(nil)
)

func (h *fileHandle) Read(ctx context.Context, dest []byte, off int64) (res fuse.ReadResult, errno syscall.Errno) {
	defer func() {
		if r := recover(); r != nil {
			res, errno = nil, syscall.EIO
		}
	}()
	n, err := h.entry.Tier.ReadAt(ctx, dest, off)
	if err != nil {
		return nil, toErrno(err)
	}
	return fuse.ReadResultData(dest[:n]), 0
}

func (h *fileHandle) Write(ctx context.Context, data []byte, off int64) (written uint32, errno syscall.Errno) {
	defer func() {
		if r := recover(); r != nil {
			written, errno = 0, syscall.EIO
		}
	}()
	n, err := h.entry.Tier.WriteAt(ctx, data, off)
	if err != nil {
		return 0, toErrno(err)
	}
	return uint32(n), 0
}

func (h *fileHandle) Flush(ctx context.Context) syscall.Errno { return 0 }

func (h *fileHandle) Fsync(ctx context.Context, flags uint32) syscall.Errno { return 0 }

func (h *fileHandle) Release(ctx context.Context) syscall.Errno { return 0 }
