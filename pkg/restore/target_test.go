package restore

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/flyingcircusio/backy-extract/pkg/backyerr"
)

func TestFileTargetWriteAndTruncate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.img")

	target, err := OpenFileTarget(path)
	if err != nil {
		t.Fatalf("OpenFileTarget: %v", err)
	}
	if !target.IsSeekable() {
		t.Fatal("FileTarget should be seekable")
	}
	if err := target.WriteAt([]byte("hello"), 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if err := target.WriteAt([]byte("world"), 10); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if err := target.Truncate(15); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	if err := target.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := append([]byte("hello"), append(make([]byte, 5), []byte("world")...)...)
	if !bytes.Equal(got, want) {
		t.Errorf("file content = %q, want %q", got, want)
	}
}

func TestPipeTargetRequiresSequentialWrites(t *testing.T) {
	var buf bytes.Buffer
	target := NewPipeTarget(&buf)

	if target.IsSeekable() {
		t.Fatal("PipeTarget should not be seekable")
	}
	if err := target.WriteAt([]byte("abc"), 0); err != nil {
		t.Fatalf("WriteAt at cursor: %v", err)
	}
	if err := target.WriteAt([]byte("xyz"), 10); !backyerr.HasCode(err, backyerr.IoError) {
		t.Errorf("WriteAt at wrong offset: got %v, want IoError", err)
	}
	if err := target.Skip(5); !backyerr.HasCode(err, backyerr.InvalidArgument) {
		t.Errorf("Skip: got %v, want InvalidArgument", err)
	}
	if err := target.Truncate(3); err != nil {
		t.Errorf("Truncate at final cursor: %v", err)
	}
	if err := target.Truncate(99); !backyerr.HasCode(err, backyerr.IoError) {
		t.Errorf("Truncate with mismatched size: got %v, want IoError", err)
	}
	if buf.String() != "abc" {
		t.Errorf("pipe content = %q, want %q", buf.String(), "abc")
	}
}

func TestBlockDeviceTargetRejectsUndersizedDevice(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dev")
	if err := os.WriteFile(path, make([]byte, 100), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	target, err := OpenBlockDeviceTarget(path)
	if err != nil {
		t.Fatalf("OpenBlockDeviceTarget: %v", err)
	}
	if err := target.Truncate(200); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	if err := target.Close(); !backyerr.HasCode(err, backyerr.IoError) {
		t.Errorf("Close with undersized device: got %v, want IoError", err)
	}
}

func TestBlockDeviceTargetAcceptsSufficientDevice(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dev")
	if err := os.WriteFile(path, make([]byte, 200), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	target, err := OpenBlockDeviceTarget(path)
	if err != nil {
		t.Fatalf("OpenBlockDeviceTarget: %v", err)
	}
	if err := target.Truncate(100); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	if err := target.Close(); err != nil {
		t.Errorf("Close with sufficient device: %v", err)
	}
}
