package logger

import (
	"bytes"
	"os"
	"testing"
)

func reset() {
	SetVerbose(false)
	SetOutput(os.Stderr)
}

func TestSetVerbose(t *testing.T) {
	defer reset()

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be false initially")
	}

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected verbose to be true after SetVerbose(true)")
	}
}

func TestVerboseLevels(t *testing.T) {
	defer reset()

	tests := []struct {
		name     string
		log      func(string, ...any)
		expected string
	}{
		{"debug", Debug, "[DEBUG] page 3 native\n"},
		{"info", Info, "[INFO] page 3 native\n"},
		{"warn", Warn, "[WARN] page 3 native\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetOutput(&buf)

			SetVerbose(false)
			tt.log("page %d %s", 3, "native")
			if buf.Len() != 0 {
				t.Errorf("expected no output when not verbose, got %q", buf.String())
			}

			SetVerbose(true)
			tt.log("page %d %s", 3, "native")
			if buf.String() != tt.expected {
				t.Errorf("unexpected output: %q", buf.String())
			}
		})
	}
}

func TestError_AlwaysPrinted(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Error("skip %s: %s", "scan.djvu", "no usable text")

	if buf.String() != "[ERROR] skip scan.djvu: no usable text\n" {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestSection(t *testing.T) {
	defer reset()

	var buf bytes.Buffer
	SetOutput(&buf)

	Section("Embeddings")
	if buf.Len() != 0 {
		t.Error("expected no section header when not verbose")
	}

	SetVerbose(true)
	Section("Embeddings")
	if buf.String() != "\n=== Embeddings ===\n" {
		t.Errorf("unexpected output: %q", buf.String())
	}
}
