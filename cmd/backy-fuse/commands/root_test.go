package commands

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSplitMountOptions(t *testing.T) {
	cases := []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{"allow_root", []string{"allow_root"}},
		{"allow_root,default_permissions", []string{"allow_root", "default_permissions"}},
		{"allow_root,,ro", []string{"allow_root", "ro"}},
	}
	for _, tc := range cases {
		if got := splitMountOptions(tc.raw); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("splitMountOptions(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestScanRevisionsFiltersByExtensionAndSorts(t *testing.T) {
	dir := t.TempDir()

	writeRevision(t, dir, "b.rev", "rev-b")
	writeRevision(t, dir, "a.rev", "rev-a")
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644); err != nil {
		t.Fatal(err)
	}

	revisions, err := scanRevisions(dir)
	if err != nil {
		t.Fatalf("scanRevisions: %v", err)
	}
	if len(revisions) != 2 {
		t.Fatalf("got %d revisions, want 2", len(revisions))
	}
	if revisions[0].ID != "rev-a" || revisions[1].ID != "rev-b" {
		t.Errorf("revisions not sorted by filename: got %q, %q", revisions[0].ID, revisions[1].ID)
	}
}

func writeRevision(t *testing.T, dir, name, uuid string) {
	t.Helper()
	doc := "uuid: " + uuid + "\ntimestamp: 2026-01-01T00:00:00Z\nchunk_size: 4\nimage_size: 4\nchunks:\n  - null\n"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
}
