// Package fuseadapter exposes a set of revisions as a FUSE filesystem,
// per spec.md section 4.7: one regular file per revision at the mount
// root, reads and writes delegated to that revision's cache tier.
package fuseadapter

import (
	"context"
	"sort"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/flyingcircusio/backy-extract/pkg/cache"
	"github.com/flyingcircusio/backy-extract/pkg/manifest"
)

// Entry binds one revision to the cache tier serving its reads and
// writes.
type Entry struct {
	Revision manifest.Revision
	Tier     *cache.Tier
}

// Root is the filesystem root. The revision set is fixed at
// construction time ("snapshotted at mount"); revisions created after
// mount never appear.
type Root struct {
	fs.Inode

	entries map[string]*Entry
	names   []string // sorted revision ids
}

// NewRoot builds a Root over entries, one file per revision.
func NewRoot(entries []Entry) *Root {
	m := make(map[string]*Entry, len(entries))
	names := make([]string, 0, len(entries))
	for i := range entries {
		e := entries[i]
		m[e.Revision.ID] = &e
		names = append(names, e.Revision.ID)
	}
	sort.Strings(names)
	return &Root{entries: m, names: names}
}

var (
	_ fs.NodeLookuper  = (*Root)(nil)
	_ fs.NodeReaddirer = (*Root)(nil)
	_ fs.NodeGetattrer = (*Root)(nil)
)

func (r *Root) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	entry, ok := r.entries[name]
	if !ok {
		return nil, syscall.ENOENT
	}
	fillRevisionAttr(&out.Attr, entry)
	child := r.NewInode(ctx, &RevisionNode{entry: entry}, fs.StableAttr{Mode: syscall.S_IFREG})
	return child, 0
}

func (r *Root) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = syscall.S_IFDIR | 0755
	return 0
}

func (r *Root) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	list := make([]fuse.DirEntry, 0, len(r.names))
	for _, name := range r.names {
		list = append(list, fuse.DirEntry{Name: name, Mode: syscall.S_IFREG})
	}
	return fs.NewListDirStream(list), 0
}

func fillRevisionAttr(attr *fuse.Attr, e *Entry) {
	attr.Size = e.Revision.Manifest.ImageSize()
	attr.Mode = syscall.S_IFREG | 0666
	attr.Mtime = uint64(e.Revision.CreatedAt.Unix())
}
