package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"trace", LevelTrace},
		{"DEBUG", LevelDebug},
		{" warning ", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"chatty", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestHasFmtVerb(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"loaded %d frames", true},
		{"100%% done", false},
		{"plain message", false},
		{"trailing %", false},
	}
	for _, tt := range tests {
		if got := hasFmtVerb(tt.in); got != tt.want {
			t.Errorf("hasFmtVerb(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "rephrase.log")
	f, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	L_warn("written to file", "key", "value")
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file missing message: %q", data)
	}
}

func TestHoldBuffersUntilRelease(t *testing.T) {
	SetOutput(os.Stderr)
	release := Hold()

	outMu.Lock()
	held, ok := output.(*bytes.Buffer)
	outMu.Unlock()
	if !ok {
		t.Fatal("Hold did not redirect terminal output")
	}

	L_warn("while held")
	if !strings.Contains(held.String(), "while held") {
		t.Errorf("line not held: %q", held.String())
	}
	release()

	outMu.Lock()
	restored := output
	outMu.Unlock()
	if restored != os.Stderr {
		t.Error("release did not restore stderr")
	}
}

func TestHoldLeavesFileOutputAlone(t *testing.T) {
	var file bytes.Buffer
	SetOutput(&file)
	release := Hold()
	L_warn("straight through")
	if !strings.Contains(file.String(), "straight through") {
		t.Errorf("non-terminal output should not be held: %q", file.String())
	}
	release()
	SetOutput(os.Stderr)
}
