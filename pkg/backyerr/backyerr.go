// Package backyerr provides the error taxonomy shared by every component
// of backy-extract: the chunk store, the restore pipeline, the two-tier
// cache, and the FUSE adapter all return *Error so callers can recover a
// stable Code via errors.As, regardless of which layer raised it.
//
// Import graph: backyerr sits at the bottom, imported by chunkstore,
// manifest/revisionfile, restore, cache, fuseadapter and both CLIs.
package backyerr

import (
	"errors"
	"fmt"
)

// Code identifies the class of failure, per spec.md's error taxonomy.
type Code int

const (
	// Locked indicates the purge lock is held by another process.
	Locked Code = iota + 1

	// NotFound indicates a missing revision or chunk.
	NotFound

	// Corrupt indicates a decompression or hash-verification failure.
	Corrupt

	// IoError indicates a target or store I/O failure.
	IoError

	// InvalidArgument indicates an out-of-range offset or bad CLI input.
	InvalidArgument
)

// String returns a human-readable name for the code.
func (c Code) String() string {
	switch c {
	case Locked:
		return "Locked"
	case NotFound:
		return "NotFound"
	case Corrupt:
		return "Corrupt"
	case IoError:
		return "IoError"
	case InvalidArgument:
		return "InvalidArgument"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// Error is the concrete error type returned across package boundaries. It
// carries enough structured context (chunk id, index, offset) for the
// pipeline and the FUSE adapter to log and translate failures without
// re-parsing a message string.
type Error struct {
	Code    Code
	Message string
	Cause   error

	ChunkID string // hex-encoded, empty if not chunk-scoped
	Index   int64  // manifest index, -1 if not applicable
	Offset  int64  // byte offset, -1 if not applicable
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.ChunkID != "" {
		msg += fmt.Sprintf(" (chunk %s)", e.ChunkID)
	}
	if e.Index >= 0 {
		msg += fmt.Sprintf(" (index %d)", e.Index)
	}
	if e.Offset >= 0 {
		msg += fmt.Sprintf(" (offset %d)", e.Offset)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause for errors.Is/errors.As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an *Error with no chunk context.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message, Index: -1, Offset: -1}
}

// Wrap creates an *Error that carries an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause, Index: -1, Offset: -1}
}

// WithChunk returns a copy of e annotated with a chunk id.
func (e *Error) WithChunk(chunkID string) *Error {
	cp := *e
	cp.ChunkID = chunkID
	return &cp
}

// WithIndex returns a copy of e annotated with a manifest index.
func (e *Error) WithIndex(index int64) *Error {
	cp := *e
	cp.Index = index
	return &cp
}

// WithOffset returns a copy of e annotated with a byte offset.
func (e *Error) WithOffset(offset int64) *Error {
	cp := *e
	cp.Offset = offset
	return &cp
}

// HasCode reports whether err is a *Error (directly or via errors.As)
// carrying the given code.
func HasCode(err error, code Code) bool {
	var be *Error
	if !errors.As(err, &be) {
		return false
	}
	return be.Code == code
}
