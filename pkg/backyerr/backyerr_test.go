package backyerr

import (
	"errors"
	"strings"
	"testing"
)

func TestCodeString(t *testing.T) {
	cases := []struct {
		code Code
		want string
	}{
		{Locked, "Locked"},
		{NotFound, "NotFound"},
		{Corrupt, "Corrupt"},
		{IoError, "IoError"},
		{InvalidArgument, "InvalidArgument"},
		{Code(99), "Unknown(99)"},
	}
	for _, tc := range cases {
		if got := tc.code.String(); got != tc.want {
			t.Errorf("Code(%d).String() = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestErrorMessageIncludesContext(t *testing.T) {
	err := New(Corrupt, "hash mismatch").WithChunk("deadbeef").WithIndex(3).WithOffset(1024)
	msg := err.Error()
	for _, want := range []string{"Corrupt", "hash mismatch", "deadbeef", "3", "1024"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(IoError, "write failed", cause)

	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to find the wrapped cause")
	}
	var be *Error
	if !errors.As(err, &be) {
		t.Fatal("expected errors.As to recover *Error")
	}
	if be.Code != IoError {
		t.Fatalf("expected code IoError, got %v", be.Code)
	}
}

func TestHasCode(t *testing.T) {
	err := New(NotFound, "revision missing")
	if !HasCode(err, NotFound) {
		t.Fatal("expected HasCode to match NotFound")
	}
	if HasCode(err, Locked) {
		t.Fatal("expected HasCode not to match Locked")
	}
	if HasCode(errors.New("plain error"), NotFound) {
		t.Fatal("expected HasCode to be false for a non-*Error")
	}
}
