// Package replace substitutes generated text for the selection inside one
// frame, whatever kind of editable surface holds it.
//
// Nothing here caches page state: every call re-derives the active element
// and selection through Document, because the page may have changed during
// the generation round trip.
package replace

import (
	"context"

	"github.com/roelfdiedericks/rephrase/internal/selection"
)

// Document is a live view of one frame's document. Each method reads or
// mutates current page state; implementations must not cache results.
type Document interface {
	Frame() selection.FrameID

	Hostname(ctx context.Context) (string, error)
	// HasFocus mirrors document.hasFocus().
	HasFocus(ctx context.Context) (bool, error)

	// ActiveControl returns the focused input/textarea, or nil when the
	// active element is not a text control.
	ActiveControl(ctx context.Context) (*ControlState, error)
	// SetControlValue writes the control's whole value, places the caret,
	// and fires input then change.
	SetControlValue(ctx context.Context, value string, caret int) error

	// Selection describes the window selection.
	Selection(ctx context.Context) (RangeState, error)
	// MatchMarker returns the index of the first selector matching the
	// selection anchor or one of its ancestors, or -1.
	MatchMarker(ctx context.Context, selectors []string) (int, error)

	// ExecInsertText runs the native insertText command and returns the
	// command's own success report.
	ExecInsertText(ctx context.Context, text string) (bool, error)
	// ReplaceRange deletes the selected range, inserts a text node and
	// collapses the selection after it.
	ReplaceRange(ctx context.Context, text string) error

	// DispatchInput fires a synthetic insertText InputEvent on the editing host.
	DispatchInput(ctx context.Context, text string) error
	// CollapseAfterInsertion focuses the editing host and collapses the
	// selection to its end.
	CollapseAfterInsertion(ctx context.Context) error
}

// ControlState is a snapshot of a focused input or textarea.
// Offsets count UTF-16 code units, as the DOM does.
type ControlState struct {
	Tag        string `json:"tag"`
	Type       string `json:"type,omitempty"`
	Value      string `json:"value"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	HasOffsets bool   `json:"hasOffsets"`
}

// Collapsed reports a caret with no selected text.
func (c ControlState) Collapsed() bool { return c.Start == c.End }

// RangeState is a snapshot of the window selection.
type RangeState struct {
	RangeCount       int    `json:"rangeCount"`
	Collapsed        bool   `json:"collapsed"`
	AnchorInDocument bool   `json:"anchorInDocument"`
	Editable         bool   `json:"editable"`
	Text             string `json:"text"`
}
