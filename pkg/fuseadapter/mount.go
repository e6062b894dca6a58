package fuseadapter

import (
	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// Options controls how the filesystem is mounted.
type Options struct {
	// MountOptions is passed through verbatim as FUSE mount options,
	// e.g. ["allow_root"] (the CLI's -o default, spec.md section 6).
	MountOptions []string

	// Debug enables go-fuse's own request tracing.
	Debug bool
}

// Mount mounts root at mountpoint and returns once the filesystem is
// ready to serve requests. The caller blocks on the returned server's
// Wait to hold the mount open.
func Mount(mountpoint string, root *Root, opts Options) (*fuse.Server, error) {
	mountOpts := &fs.Options{
		MountOptions: fuse.MountOptions{
			Options: opts.MountOptions,
			Debug:   opts.Debug,
		},
	}
	return fs.Mount(mountpoint, root, mountOpts)
}
