package fuseadapter

import (
	"context"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// RevisionNode is one revision, presented as a fixed-size regular file.
type RevisionNode struct {
	fs.Inode
	entry *Entry
}

var (
	_ fs.NodeOpener    = (*RevisionNode)(nil)
	_ fs.NodeGetattrer = (*RevisionNode)(nil)
	_ fs.NodeSetattrer = (*RevisionNode)(nil)
)

func (n *RevisionNode) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	return &fileHandle{entry: n.entry}, 0, 0
}

func (n *RevisionNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	fillRevisionAttr(&out.Attr, n.entry)
	return 0
}

// Setattr rejects size changes; every other attribute (mode, times) is
// accepted as a no-op. Revision file size is fixed by image_size.
func (n *RevisionNode) Setattr(ctx context.Context, f fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	if size, ok := in.GetSize(); ok && size != n.entry.Revision.Manifest.ImageSize() {
		return syscall.EINVAL
	}
	fillRevisionAttr(&out.Attr, n.entry)
	return 0
}
