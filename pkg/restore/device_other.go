//go:build !linux

package restore

import (
	"io"
	"os"

	"github.com/flyingcircusio/backy-extract/pkg/backyerr"
)

// deviceSize falls back to seeking to the end of the file, for non-Linux
// platforms (and for tests that back a BlockDeviceTarget with a regular
// file). BLKGETSIZE64 has no portable equivalent outside Linux.
func deviceSize(f *os.File) (int64, error) {
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, backyerr.Wrap(backyerr.IoError, "querying device size", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, backyerr.Wrap(backyerr.IoError, "resetting device position", err)
	}
	return size, nil
}
