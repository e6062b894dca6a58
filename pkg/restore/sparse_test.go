package restore

import "testing"

func TestParseSparseMode(t *testing.T) {
	cases := map[string]SparseMode{"auto": SparseAuto, "always": SparseAlways, "never": SparseNever}
	for s, want := range cases {
		got, ok := ParseSparseMode(s)
		if !ok || got != want {
			t.Errorf("ParseSparseMode(%q) = %v, %v; want %v, true", s, got, ok, want)
		}
	}
	if _, ok := ParseSparseMode("bogus"); ok {
		t.Error("ParseSparseMode(\"bogus\") should fail")
	}
}

func TestDecideWritePipeIgnoresSparseMode(t *testing.T) {
	for _, mode := range []SparseMode{SparseAuto, SparseAlways, SparseNever} {
		if got := decideWrite(mode, false, true); got != actionWriteZeros {
			t.Errorf("decideWrite(%v, seekable=false, zero=true) = %v, want actionWriteZeros", mode, got)
		}
		if got := decideWrite(mode, false, false); got != actionWriteVerbatim {
			t.Errorf("decideWrite(%v, seekable=false, zero=false) = %v, want actionWriteVerbatim", mode, got)
		}
	}
}

func TestDecideWriteSeekableTable(t *testing.T) {
	tests := []struct {
		sparse SparseMode
		isZero bool
		want   writeAction
	}{
		{SparseNever, true, actionWriteZeros},
		{SparseNever, false, actionWriteVerbatim},
		{SparseAlways, true, actionSkip},
		{SparseAlways, false, actionWriteVerbatim},
		{SparseAuto, true, actionSkip},
		{SparseAuto, false, actionWriteVerbatim},
	}
	for _, tc := range tests {
		got := decideWrite(tc.sparse, true, tc.isZero)
		if got != tc.want {
			t.Errorf("decideWrite(%v, seekable=true, zero=%v) = %v, want %v", tc.sparse, tc.isZero, got, tc.want)
		}
	}
}
