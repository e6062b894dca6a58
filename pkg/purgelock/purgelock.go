// Package purgelock implements spec.md section 4.4: a cross-process
// advisory lock on the chunk store root that blocks the backup system's
// garbage collector from running concurrently with a restore or mount.
package purgelock

import (
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/gofrs/flock"

	"github.com/flyingcircusio/backy-extract/pkg/backyerr"
)

// lockFileName is the well-known sentinel file every backy process
// respects, matching spec.md's "well-known advisory lock on a sentinel
// file at the store root".
const lockFileName = ".purge.lock"

// Guard represents a held purge lock. Release is idempotent and safe to
// call from a signal handler or multiple times from deferred cleanup.
type Guard struct {
	flock *flock.Flock

	mu       sync.Mutex
	released bool
	sigCh    chan os.Signal
}

// Acquire takes an exclusive, non-blocking lock on storeRoot's sentinel
// file. Contention returns backyerr.Locked immediately — spec.md's
// "acquisition failure is fatal at startup", never a blocking wait.
//
// The returned Guard installs a SIGINT/SIGTERM handler that releases the
// lock before re-raising the signal, grounded in the teacher's
// cmd/dittofs/main.go graceful-shutdown pattern (signal.Notify on
// SIGINT/SIGTERM, release resources, then exit).
func Acquire(storeRoot string) (*Guard, error) {
	path := filepath.Join(storeRoot, lockFileName)
	fl := flock.New(path)

	locked, err := fl.TryLock()
	if err != nil {
		return nil, backyerr.Wrap(backyerr.IoError, "acquiring purge lock", err)
	}
	if !locked {
		return nil, backyerr.New(backyerr.Locked, "purge lock is held by another process")
	}

	g := &Guard{flock: fl}
	g.installSignalHandler()
	return g, nil
}

func (g *Guard) installSignalHandler() {
	g.sigCh = make(chan os.Signal, 1)
	signal.Notify(g.sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig, ok := <-g.sigCh
		if !ok {
			return // channel closed by an explicit Release, nothing to re-raise
		}
		g.Release()
		proc, err := os.FindProcess(os.Getpid())
		if err == nil {
			proc.Signal(sig)
		}
	}()
}

// Release unlocks and stops the signal handler. Safe to call multiple
// times, including from the signal-handling goroutine itself; only the
// first call has effect.
func (g *Guard) Release() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.released {
		return nil
	}
	g.released = true

	signal.Stop(g.sigCh)
	close(g.sigCh)

	if err := g.flock.Unlock(); err != nil {
		return backyerr.Wrap(backyerr.IoError, "releasing purge lock", err)
	}
	return nil
}
