package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	output = &buf
	useColor = false
	SetLevel("WARN")
	SetFormat("text")

	Info("should not appear")
	if buf.Len() != 0 {
		t.Fatalf("expected no output at WARN level for Info, got %q", buf.String())
	}

	Warn("should appear", KeyRevision, "abc123")
	if !strings.Contains(buf.String(), "should appear") {
		t.Fatalf("expected warn message in output, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "revision=abc123") {
		t.Fatalf("expected structured field in output, got %q", buf.String())
	}

	SetLevel("DEBUG")
}

func TestSetFormatIgnoresInvalid(t *testing.T) {
	SetFormat("text")
	SetFormat("xml")
	format, _ := currentFormat.Load().(string)
	if format != "text" {
		t.Fatalf("expected format to remain text, got %q", format)
	}
}
