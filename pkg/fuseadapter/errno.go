package fuseadapter

import (
	"errors"
	"syscall"

	"github.com/flyingcircusio/backy-extract/pkg/backyerr"
)

// toErrno translates a backyerr error into the errno go-fuse returns to
// the kernel, per spec.md section 4.7's error translation table. Errors
// that aren't a *backyerr.Error map to EIO.
func toErrno(err error) syscall.Errno {
	if err == nil {
		return 0
	}
	var be *backyerr.Error
	if !errors.As(err, &be) {
		return syscall.EIO
	}
	switch be.Code {
	case backyerr.NotFound:
		return syscall.ENOENT
	case backyerr.InvalidArgument:
		return syscall.EINVAL
	case backyerr.Locked:
		return syscall.EBUSY
	case backyerr.Corrupt, backyerr.IoError:
		return syscall.EIO
	default:
		return syscall.EIO
	}
}
