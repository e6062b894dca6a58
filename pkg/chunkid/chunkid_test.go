package chunkid

import (
	"testing"

	"lukechampine.com/blake3"
)

func TestOfMatchesBlake3(t *testing.T) {
	data := []byte("hello world")
	id := Of(data)
	want := blake3.Sum256(data)
	if [Size]byte(id) != want {
		t.Errorf("Of() = %x, want %x", id, want)
	}
}

func TestStringRoundTrip(t *testing.T) {
	id := Of([]byte("roundtrip"))
	parsed, err := ParseChunkId(id.String())
	if err != nil {
		t.Fatalf("ParseChunkId: %v", err)
	}
	if parsed != id {
		t.Errorf("ParseChunkId(id.String()) = %v, want %v", parsed, id)
	}
}

func TestShortIsPrefix(t *testing.T) {
	id := Of([]byte("short"))
	full := id.String()
	short := id.Short()
	if len(short) != 8 {
		t.Fatalf("expected 8-char short id, got %d", len(short))
	}
	if full[:8] != short {
		t.Errorf("Short() = %q, want prefix of %q", short, full)
	}
}

func TestParseChunkIdInvalid(t *testing.T) {
	valid := Of([]byte("filler")).String()
	nonHex := "zz" + valid[2:] // right length, invalid hex chars

	cases := []string{"", "too-short", nonHex}
	for _, s := range cases {
		if _, err := ParseChunkId(s); err == nil {
			t.Errorf("ParseChunkId(%q): expected error, got nil", s)
		}
	}
}

func TestEqualityIsNativeComparable(t *testing.T) {
	a := Of([]byte("same"))
	b := Of([]byte("same"))
	c := Of([]byte("different"))

	if a != b {
		t.Error("expected equal ChunkIds for identical content")
	}
	if a == c {
		t.Error("expected different ChunkIds for different content")
	}

	m := map[ChunkId]bool{a: true}
	if !m[b] {
		t.Error("expected ChunkId to be usable as a map key")
	}
}

func TestIsZero(t *testing.T) {
	var zero ChunkId
	if !zero.IsZero() {
		t.Error("expected zero-value ChunkId to report IsZero")
	}
	if Of([]byte("x")).IsZero() {
		t.Error("expected non-zero digest to report !IsZero")
	}
}
