//go:build linux

package restore

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/flyingcircusio/backy-extract/pkg/backyerr"
)

// deviceSize returns a block device's size in bytes via BLKGETSIZE64. A
// file that is not a device (such as a regular file standing in for one)
// reports its length instead.
func deviceSize(f *os.File) (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, backyerr.Wrap(backyerr.IoError, "querying device size", err)
	}
	if info.Mode()&os.ModeDevice == 0 {
		return info.Size(), nil
	}
	var size uint64
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), unix.BLKGETSIZE64, uintptr(unsafe.Pointer(&size)))
	if errno != 0 {
		return 0, backyerr.Wrap(backyerr.IoError, "querying block device size", errno)
	}
	return int64(size), nil
}
