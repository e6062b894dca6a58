package manifest

import "time"

// Revision is a point-in-time snapshot of a source, identified by a short
// token (spec.md's "21 URL-safe characters" example). The core only
// consumes the id, the manifest, and a creation time used as a file
// mtime under FUSE.
type Revision struct {
	ID        string
	Manifest  Manifest
	CreatedAt time.Time
}
