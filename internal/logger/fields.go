package logger

// Standard structured field keys shared across the restore pipeline, the
// two-tier cache, and the FUSE adapter. Using the same keys consistently
// makes log lines greppable across components.
const (
	KeyRevision  = "revision"
	KeyChunkID   = "chunk_id"
	KeyIndex     = "index"
	KeyOffset    = "offset"
	KeyLength    = "length"
	KeyTarget    = "target"
	KeyError     = "error"
	KeyBytes     = "bytes"
	KeyWorkers   = "workers"
	KeySparse    = "sparse"
	KeyMountpath = "mountpoint"
)
