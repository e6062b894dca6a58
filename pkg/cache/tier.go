package cache

import (
	"context"
	"errors"

	"github.com/flyingcircusio/backy-extract/pkg/backyerr"
	"github.com/flyingcircusio/backy-extract/pkg/chunkstore"
	"github.com/flyingcircusio/backy-extract/pkg/manifest"
	"github.com/flyingcircusio/backy-extract/pkg/progress"
)

// Tier combines a shared CleanCache with a per-mount DirtyCache to serve
// one revision's reads and writes, implementing spec.md section 4.6's
// read and write algorithms exactly.
type Tier struct {
	clean      *CleanCache
	dirty      *DirtyCache
	store      chunkstore.Store
	manifest   manifest.Manifest
	revisionID string
	observer   progress.Observer
}

// NewTier builds a Tier for one revision. clean and dirty may be shared
// across revisions/tiers that share a mount; dirty pages are namespaced
// by revisionID so sharing a DirtyCache across revisions is safe too.
func NewTier(clean *CleanCache, dirty *DirtyCache, store chunkstore.Store, m manifest.Manifest, revisionID string, observer progress.Observer) *Tier {
	if observer == nil {
		observer = progress.NoOp{}
	}
	return &Tier{clean: clean, dirty: dirty, store: store, manifest: m, revisionID: revisionID, observer: observer}
}

// ReadAt fills p from the logical image at offset, clamping short reads
// at image_size per spec.md section 4.6 step 1. It returns the number of
// bytes actually read.
func (t *Tier) ReadAt(ctx context.Context, p []byte, offset int64) (int, error) {
	imageSize := int64(t.manifest.ImageSize())
	if offset < 0 {
		return 0, backyerr.New(backyerr.InvalidArgument, "negative read offset").WithOffset(offset)
	}
	if offset >= imageSize || len(p) == 0 {
		return 0, nil
	}

	length := len(p)
	if offset+int64(length) > imageSize {
		length = int(imageSize - offset)
	}

	chunkSize := int64(t.manifest.ChunkSize())
	written := 0
	for written < length {
		absOffset := offset + int64(written)
		chunkIndex := int(absOffset / chunkSize)
		chunkStart, chunkEnd := t.manifest.BoundsAt(chunkIndex)
		intraOffset := absOffset - int64(chunkStart)

		windowLen := int64(chunkEnd-chunkStart) - intraOffset
		if remaining := int64(length - written); windowLen > remaining {
			windowLen = remaining
		}

		dst := p[written : written+int(windowLen)]
		if err := t.readWindow(ctx, chunkIndex, intraOffset, dst); err != nil {
			return written, err
		}
		written += int(windowLen)
	}
	return written, nil
}

// readWindow fills dst, which lies entirely within chunk chunkIndex
// starting at intraOffset bytes into it, per spec.md section 4.6 step 3.
func (t *Tier) readWindow(ctx context.Context, chunkIndex int, intraOffset int64, dst []byte) error {
	chunkStart, chunkEnd := t.manifest.BoundsAt(chunkIndex)
	absStart := int64(chunkStart) + intraOffset
	absEnd := absStart + int64(len(dst))

	if t.dirty.fullyCovers(t.revisionID, absStart, absEnd) {
		t.dirty.readRange(t.revisionID, absStart, dst)
		return nil
	}

	clean, err := t.loadClean(ctx, chunkIndex, int(chunkEnd-chunkStart))
	if err != nil {
		return err
	}
	defer clean.Release()

	copy(dst, clean.Bytes()[intraOffset:intraOffset+int64(len(dst))])
	t.dirty.overlayRange(t.revisionID, absStart, dst)
	return nil
}

// loadClean resolves chunkIndex's plaintext via the clean cache, the
// chunk store on miss, or a shared zero buffer for a Hole.
func (t *Tier) loadClean(ctx context.Context, chunkIndex int, chunkLen int) (*RefCountedPlaintext, error) {
	ref := t.manifest.RefAt(chunkIndex)
	if ref.IsHole() {
		return zeroPlaintext(chunkLen), nil
	}

	if rp, ok := t.clean.Get(ref.ID); ok {
		t.observer.CacheHit(true)
		return rp, nil
	}
	t.observer.CacheHit(false)

	plaintext, err := t.store.Load(ctx, ref.ID, chunkLen)
	if err != nil {
		var be *backyerr.Error
		if errors.As(err, &be) {
			return nil, be.WithChunk(ref.ID.String()).WithIndex(int64(chunkIndex))
		}
		return nil, err
	}
	return t.clean.Insert(ref.ID, plaintext), nil
}

// WriteAt overwrites the logical image at offset with p, per spec.md
// section 4.6's write path: read-modify-write at page granularity.
// Writes that would extend past image_size fail with InvalidArgument
// and write nothing.
func (t *Tier) WriteAt(ctx context.Context, p []byte, offset int64) (int, error) {
	imageSize := int64(t.manifest.ImageSize())
	if offset < 0 || offset+int64(len(p)) > imageSize {
		return 0, backyerr.New(backyerr.InvalidArgument, "write extends beyond image size").WithOffset(offset)
	}
	if len(p) == 0 {
		return 0, nil
	}

	written := 0
	for written < len(p) {
		absOffset := offset + int64(written)
		pageIndex := uint64(absOffset / PageSize)
		pageStart, pageEnd := pageBounds(pageIndex)

		remaining := int64(len(p) - written)
		n := pageEnd - absOffset
		if n > remaining {
			n = remaining
		}

		initEnd := pageEnd
		if initEnd > imageSize {
			initEnd = imageSize
		}

		key := dirtyKey{t.revisionID, pageIndex}
		_, err := t.dirty.getOrInitPage(key, func() ([]byte, error) {
			buf := make([]byte, PageSize)
			if initEnd > pageStart {
				if _, err := t.ReadAt(ctx, buf[:initEnd-pageStart], pageStart); err != nil {
					return nil, err
				}
			}
			return buf, nil
		})
		if err != nil {
			return written, err
		}

		t.dirty.writeRange(key, pageStart, absOffset, p[written:written+int(n)])
		written += int(n)
	}
	return written, nil
}
