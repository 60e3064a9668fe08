// Package selection locates the frame holding the user's text selection.
//
// Every frame only sees its own selection, so discovery is modelled as one
// independent read probe per frame, aggregated by a deterministic picker:
// the first frame in traversal order with non-empty text wins.
package selection

import (
	"errors"
	"strings"
)

// FrameID is an opaque frame identity within one page.
type FrameID string

// SelectionHandle identifies the frame a selection came from and a snapshot
// of its trimmed text. It is immutable; the text may be stale by the time a
// replacement runs.
type SelectionHandle struct {
	frame FrameID
	text  string
}

// NewHandle builds a handle, trimming text. Empty text is rejected.
func NewHandle(frame FrameID, text string) (SelectionHandle, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return SelectionHandle{}, errors.New("selection: empty selection text")
	}
	return SelectionHandle{frame: frame, text: text}, nil
}

// Frame returns the frame the selection was captured in.
func (h SelectionHandle) Frame() FrameID { return h.frame }

// Text returns the trimmed selection snapshot.
func (h SelectionHandle) Text() string { return h.text }

// IsZero reports whether h was never set.
func (h SelectionHandle) IsZero() bool { return h.text == "" }

// FrameProbe is one frame's probe result.
type FrameProbe struct {
	Frame FrameID `json:"frameId"`
	Order int     `json:"order"`
	Text  string  `json:"text"`
	Err   error   `json:"-"`
}

// FrameScanResult holds probe results in traversal order.
type FrameScanResult []FrameProbe

// First returns the earliest probe with non-empty text. Later frames never
// win a tie.
func (r FrameScanResult) First() (SelectionHandle, bool) {
	for _, p := range r {
		if h, err := NewHandle(p.Frame, p.Text); err == nil {
			return h, true
		}
	}
	return SelectionHandle{}, false
}

// Failed returns the probes that could not be evaluated.
func (r FrameScanResult) Failed() []FrameProbe {
	var out []FrameProbe
	for _, p := range r {
		if p.Err != nil {
			out = append(out, p)
		}
	}
	return out
}
