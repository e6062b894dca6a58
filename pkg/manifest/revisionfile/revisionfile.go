// Package revisionfile parses the on-disk revision document (spec.md
// section 6) into an in-memory manifest.Revision. This is the "format
// parser" spec.md explicitly scopes out of the core engine; it lives in
// its own subpackage so pkg/manifest stays a pure, dependency-free leaf,
// mirroring the teacher's separation of pkg/metadata/errors from the
// store implementations that produce those errors.
package revisionfile

import (
	"fmt"
	"os"
	"time"

	"github.com/flyingcircusio/backy-extract/pkg/backyerr"
	"github.com/flyingcircusio/backy-extract/pkg/chunkid"
	"github.com/flyingcircusio/backy-extract/pkg/manifest"
	"gopkg.in/yaml.v3"
)

// document is the on-disk shape: a small key/value YAML document with an
// ordered chunk list. A null entry in chunks denotes a Hole.
type document struct {
	UUID      string    `yaml:"uuid"`
	Timestamp time.Time `yaml:"timestamp"`
	ChunkSize uint32    `yaml:"chunk_size"`
	ImageSize uint64    `yaml:"image_size"`
	Chunks    []*string `yaml:"chunks"`
}

// Load reads and parses a revision document from path.
func Load(path string) (*manifest.Revision, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, backyerr.Wrap(backyerr.NotFound, "revision file not found", err)
		}
		return nil, backyerr.Wrap(backyerr.IoError, "reading revision file", err)
	}
	return Parse(data)
}

// Parse decodes raw YAML bytes into a manifest.Revision.
func Parse(data []byte) (*manifest.Revision, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, backyerr.Wrap(backyerr.InvalidArgument, "malformed revision document", err)
	}

	if doc.UUID == "" {
		return nil, backyerr.New(backyerr.InvalidArgument, "revision document missing uuid")
	}
	if doc.ChunkSize == 0 {
		return nil, backyerr.New(backyerr.InvalidArgument, "revision document missing or zero chunk_size")
	}

	refs := make([]manifest.ChunkRef, len(doc.Chunks))
	for i, entry := range doc.Chunks {
		if entry == nil {
			refs[i] = manifest.Hole()
			continue
		}
		id, err := chunkid.ParseChunkId(*entry)
		if err != nil {
			return nil, backyerr.Wrap(backyerr.InvalidArgument, fmt.Sprintf("chunk entry %d", i), err).WithIndex(int64(i))
		}
		refs[i] = manifest.Data(id)
	}

	want := (doc.ImageSize + uint64(doc.ChunkSize) - 1) / uint64(doc.ChunkSize)
	if uint64(len(refs)) != want {
		return nil, backyerr.New(backyerr.InvalidArgument,
			fmt.Sprintf("chunk list has %d entries, want %d for image_size=%d chunk_size=%d", len(refs), want, doc.ImageSize, doc.ChunkSize))
	}

	m := manifest.New(doc.ImageSize, doc.ChunkSize, refs)
	return &manifest.Revision{
		ID:        doc.UUID,
		Manifest:  m,
		CreatedAt: doc.Timestamp,
	}, nil
}
