package restore

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/flyingcircusio/backy-extract/pkg/backyerr"
	"github.com/flyingcircusio/backy-extract/pkg/bufpool"
	"github.com/flyingcircusio/backy-extract/pkg/chunkstore"
	"github.com/flyingcircusio/backy-extract/pkg/manifest"
	"github.com/flyingcircusio/backy-extract/pkg/progress"
)

// Config controls the restore pipeline's concurrency and sparse policy,
// per spec.md section 4.5.
type Config struct {
	// Workers is the number of concurrent chunk-fetch/decompress
	// goroutines. Must be >= 1.
	Workers int

	// QueueDepth bounds both the dispatcher's job channel and the
	// writer's out-of-order reorder buffer. Must be >= 1.
	QueueDepth int

	// Sparse selects how zero regions are materialized on a seekable
	// target. Ignored for non-seekable targets.
	Sparse SparseMode
}

// DefaultConfig returns the CLI's default pipeline settings.
func DefaultConfig() Config {
	return Config{Workers: 4, QueueDepth: 32, Sparse: SparseAuto}
}

// Pipeline restores one revision's manifest to a Target, reading chunk
// plaintext from a Store. It is the concrete implementation of spec.md
// section 4.5's dispatcher -> producer pool -> writer arrangement.
type Pipeline struct {
	store    chunkstore.Store
	manifest manifest.Manifest
	observer progress.Observer
	cfg      Config
	bufPool  *bufpool.Pool
}

// New builds a Pipeline. observer may be progress.NoOp{}.
func New(store chunkstore.Store, m manifest.Manifest, observer progress.Observer, cfg Config) *Pipeline {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueDepth < 1 {
		cfg.QueueDepth = 1
	}
	return &Pipeline{
		store:    store,
		manifest: m,
		observer: observer,
		cfg:      cfg,
		bufPool:  bufpool.New(int(m.ChunkSize())),
	}
}

// job is one unit of dispatcher output: the manifest entry at index.
type job struct {
	index int
	ref   manifest.ChunkRef
}

// readyChunk is one unit of producer output, handed to the writer.
type readyChunk struct {
	index int
	zero  bool
	data  []byte // nil when zero is true
}

// Run restores the full manifest to target, in ascending index order, and
// closes target's size via Truncate before returning.
//
// On any worker or writer error, Run cancels all in-flight work and
// returns the first error encountered; it first waits for the
// dispatcher, every worker and the writer to return, so no goroutine
// leaks and callers holding a purge lock can safely release it afterward.
func (p *Pipeline) Run(ctx context.Context, target Target) error {
	g, gctx := errgroup.WithContext(ctx)

	jobs := make(chan job, p.cfg.QueueDepth)
	ready := make(chan readyChunk, p.cfg.QueueDepth)

	g.Go(func() error {
		defer close(jobs)
		for index, ref := range p.manifest.All() {
			select {
			case jobs <- job{index: index, ref: ref}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var workersWG sync.WaitGroup
	workersWG.Add(p.cfg.Workers)
	for i := 0; i < p.cfg.Workers; i++ {
		g.Go(func() error {
			defer workersWG.Done()
			return p.runWorker(gctx, jobs, ready)
		})
	}

	// Closer goroutine: once every worker has returned (success or
	// failure), no further sends on ready are possible, so it's safe to
	// close it and let the writer drain to completion.
	go func() {
		workersWG.Wait()
		close(ready)
	}()

	g.Go(func() error {
		return p.runWriter(gctx, ready, target)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return nil
}

// runWorker fetches and decompresses chunks for jobs until jobs is closed
// or the context is cancelled.
func (p *Pipeline) runWorker(ctx context.Context, jobs <-chan job, ready chan<- readyChunk) error {
	for {
		select {
		case j, ok := <-jobs:
			if !ok {
				return nil
			}
			out, err := p.process(ctx, j)
			if err != nil {
				return err
			}
			select {
			case ready <- out:
			case <-ctx.Done():
				return ctx.Err()
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *Pipeline) process(ctx context.Context, j job) (readyChunk, error) {
	if j.ref.IsHole() {
		p.observer.ChunkCompleted(j.index)
		return readyChunk{index: j.index, zero: true}, nil
	}

	start, end := p.manifest.BoundsAt(j.index)
	expectedLen := int(end - start)

	plaintext, err := p.store.Load(ctx, j.ref.ID, expectedLen)
	if err != nil {
		return readyChunk{}, annotate(err, j.ref.ID.String(), j.index)
	}
	if len(plaintext) != expectedLen {
		return readyChunk{}, backyerr.New(backyerr.Corrupt, "chunk length mismatch").
			WithChunk(j.ref.ID.String()).WithIndex(int64(j.index))
	}

	p.observer.ChunkCompleted(j.index)
	if allZero(plaintext) {
		return readyChunk{index: j.index, zero: true}, nil
	}

	// Copy into a pooled buffer so the writer's hand-off doesn't pin a
	// fresh allocation per chunk; the store's own decompression buffer
	// is discarded here.
	pooled := p.bufPool.Get()[:expectedLen]
	copy(pooled, plaintext)
	return readyChunk{index: j.index, data: pooled}, nil
}

// annotate adds chunk/index context to a store error so callers logging
// pipeline failures don't need to re-derive which chunk failed.
func annotate(err error, chunkID string, index int) error {
	var be *backyerr.Error
	if errors.As(err, &be) {
		return be.WithChunk(chunkID).WithIndex(int64(index))
	}
	return err
}

// runWriter delivers ready chunks to target in strict ascending index
// order, buffering out-of-order arrivals in a map capped at
// cfg.QueueDepth entries (mirroring the bound already applied to the
// ready channel, so memory use stays proportional to QueueDepth rather
// than to the full manifest length).
func (p *Pipeline) runWriter(ctx context.Context, ready <-chan readyChunk, target Target) error {
	pending := make(map[int]readyChunk)
	next := 0
	total := p.manifest.Len()

	deliver := func(rc readyChunk) error {
		start, end := p.manifest.BoundsAt(rc.index)
		length := int64(end - start)

		switch decideWrite(p.cfg.Sparse, target.IsSeekable(), rc.zero) {
		case actionWriteZeros:
			zeros := make([]byte, length)
			if err := target.WriteAt(zeros, int64(start)); err != nil {
				return err
			}
			p.observer.BytesWritten(length)
		case actionSkip:
			if err := target.Skip(length); err != nil {
				return err
			}
		case actionWriteVerbatim:
			data := rc.data
			if data == nil {
				data = make([]byte, length)
			}
			if err := target.WriteAt(data, int64(start)); err != nil {
				return err
			}
			p.observer.BytesWritten(length)
			if rc.data != nil {
				p.bufPool.Put(rc.data)
			}
		}
		return nil
	}

	for next < total {
		if rc, ok := pending[next]; ok {
			delete(pending, next)
			if err := deliver(rc); err != nil {
				return err
			}
			next++
			continue
		}

		select {
		case rc, ok := <-ready:
			if !ok {
				// Workers exited without completing the manifest; the
				// errgroup will surface the real cause from whichever
				// worker failed.
				return backyerr.New(backyerr.IoError, "restore pipeline ended early")
			}
			if rc.index == next {
				if err := deliver(rc); err != nil {
					return err
				}
				next++
				continue
			}
			pending[rc.index] = rc
			if len(pending) > p.cfg.QueueDepth {
				return backyerr.New(backyerr.IoError, "restore reorder buffer overflow")
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return target.Truncate(int64(p.manifest.ImageSize()))
}
