package replace

import (
	"testing"

	"github.com/roelfdiedericks/rephrase/internal/failure"
)

func TestSplice(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		start     int
		end       int
		text      string
		want      string
		wantCaret int
	}{
		{"middle run", "helloXXXXworld", 5, 9, "Y", "helloYworld", 6},
		{"whole buffer", "abc", 0, 3, "xyz", "xyz", 3},
		{"prefix", "abcdef", 0, 2, "", "cdef", 0},
		{"suffix longer text", "abc", 1, 3, "BCDE", "aBCDE", 5},
		// 'é' is one UTF-16 unit, the emoji is two.
		{"utf16 offsets", "é😀x", 1, 3, "!", "é!x", 2},
		{"insert astral", "ab", 0, 1, "😀", "😀b", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, caret, err := Splice(tt.value, tt.start, tt.end, tt.text)
			if err != nil {
				t.Fatalf("Splice failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("value = %q, want %q", got, tt.want)
			}
			if caret != tt.wantCaret {
				t.Errorf("caret = %d, want %d", caret, tt.wantCaret)
			}
		})
	}
}

func TestSpliceDegenerateBounds(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
	}{
		{"collapsed", 3, 3},
		{"reversed", 4, 2},
		{"negative", -1, 2},
		{"past end", 2, 99},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Splice("helloworld", tt.start, tt.end, "Y")
			if !failure.Is(err, failure.NoActiveSelection) {
				t.Errorf("expected NoActiveSelection, got %v", err)
			}
		})
	}
}
