package replace

import (
	"fmt"
	"unicode/utf16"

	"github.com/roelfdiedericks/rephrase/internal/failure"
)

// Splice replaces value[start:end) with text, where offsets are UTF-16 code
// units. It returns the new value and the caret offset just after text.
func Splice(value string, start, end int, text string) (string, int, error) {
	units := utf16.Encode([]rune(value))
	if start < 0 || end < start || end > len(units) {
		return "", 0, failure.Newf(failure.NoActiveSelection, "invalid selection bounds [%d,%d) for length %d", start, end, len(units))
	}
	if start == end {
		return "", 0, failure.New(failure.NoActiveSelection, fmt.Sprintf("collapsed selection at %d", start))
	}

	ins := utf16.Encode([]rune(text))
	out := make([]uint16, 0, len(units)-(end-start)+len(ins))
	out = append(out, units[:start]...)
	out = append(out, ins...)
	out = append(out, units[end:]...)
	return string(utf16.Decode(out)), start + len(ins), nil
}
