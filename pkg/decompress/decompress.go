// Package decompress implements spec.md section 4.2's Decompressor: LZO
// (stream-less, single-block per chunk) decoding of one chunk's
// compressed payload into its plaintext.
package decompress

import (
	"bytes"
	"fmt"

	"github.com/flyingcircusio/backy-extract/pkg/backyerr"
	lzo "github.com/rasky/go-lzo"
)

// Decompress decodes compressed into plaintext and verifies the result is
// exactly expectedLen bytes. expectedLen is the manifest's chunk_size for
// interior chunks, or the short last-chunk length.
func Decompress(compressed []byte, expectedLen int) ([]byte, error) {
	plaintext, err := lzo.Decompress1X(bytes.NewReader(compressed), len(compressed), expectedLen)
	if err != nil {
		return nil, backyerr.Wrap(backyerr.Corrupt, "lzo decompress failed", err)
	}
	if len(plaintext) != expectedLen {
		return nil, backyerr.New(backyerr.Corrupt,
			fmt.Sprintf("decompressed length %d does not match expected %d", len(plaintext), expectedLen))
	}
	return plaintext, nil
}
