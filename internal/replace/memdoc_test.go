package replace

import (
	"context"
	"errors"
	"fmt"

	"github.com/roelfdiedericks/rephrase/internal/selection"
)

// memDoc is an in-memory document. A region is modelled as
// before + selected + after; a control as a ControlState.
type memDoc struct {
	frame    selection.FrameID
	hostname string
	focused  bool

	control *ControlState
	events  []string

	region       bool
	editable     bool
	before       string
	selected     string
	after        string
	anchorHere   bool
	execSupport  bool
	execPanics   bool
	surgeryFails bool
	markerIdx    int

	inputEvents []string
	collapsed   bool
}

func newControlDoc(value string, start, end int) *memDoc {
	return &memDoc{
		frame:   "top",
		focused: true,
		control: &ControlState{Tag: "textarea", Value: value, Start: start, End: end, HasOffsets: true},
	}
}

func newRegionDoc(before, selected, after string) *memDoc {
	return &memDoc{
		frame:      "top",
		focused:    true,
		region:     true,
		editable:   true,
		before:     before,
		selected:   selected,
		after:      after,
		anchorHere: true,
		markerIdx:  -1,
	}
}

func (d *memDoc) content() string { return d.before + d.selected + d.after }

func (d *memDoc) Frame() selection.FrameID { return d.frame }

func (d *memDoc) Hostname(ctx context.Context) (string, error) { return d.hostname, nil }

func (d *memDoc) HasFocus(ctx context.Context) (bool, error) { return d.focused, nil }

func (d *memDoc) ActiveControl(ctx context.Context) (*ControlState, error) {
	if d.control == nil {
		return nil, nil
	}
	c := *d.control
	return &c, nil
}

func (d *memDoc) SetControlValue(ctx context.Context, value string, caret int) error {
	if d.control == nil {
		return errors.New("no active control")
	}
	d.control.Value = value
	d.control.Start = caret
	d.control.End = caret
	d.events = append(d.events, "input", "change")
	return nil
}

func (d *memDoc) Selection(ctx context.Context) (RangeState, error) {
	if !d.region {
		return RangeState{}, nil
	}
	return RangeState{
		RangeCount:       1,
		Collapsed:        d.selected == "",
		AnchorInDocument: d.anchorHere,
		Editable:         d.editable,
		Text:             d.selected,
	}, nil
}

func (d *memDoc) MatchMarker(ctx context.Context, selectors []string) (int, error) {
	return d.markerIdx, nil
}

func (d *memDoc) ExecInsertText(ctx context.Context, text string) (bool, error) {
	if d.execPanics {
		panic("execCommand exploded")
	}
	if !d.execSupport {
		return false, nil
	}
	d.selected = ""
	d.before += text
	return true, nil
}

func (d *memDoc) ReplaceRange(ctx context.Context, text string) error {
	if d.surgeryFails {
		return fmt.Errorf("range detached")
	}
	if d.selected == "" {
		return errors.New("no selection range")
	}
	d.selected = ""
	d.before += text
	return nil
}

func (d *memDoc) DispatchInput(ctx context.Context, text string) error {
	d.inputEvents = append(d.inputEvents, text)
	return nil
}

func (d *memDoc) CollapseAfterInsertion(ctx context.Context) error {
	d.collapsed = true
	return nil
}

// fakeTree answers focus questions from a static map of active children.
type fakeTree struct {
	chains map[selection.FrameID][]selection.FrameID
	active map[[2]selection.FrameID]bool
	err    error
}

func (t *fakeTree) Ancestry(ctx context.Context, frame selection.FrameID) ([]selection.FrameID, error) {
	if t.err != nil {
		return nil, t.err
	}
	chain, ok := t.chains[frame]
	if !ok {
		return nil, fmt.Errorf("frame %s detached", frame)
	}
	return chain, nil
}

func (t *fakeTree) OwnerIsActive(ctx context.Context, parent, child selection.FrameID) (bool, error) {
	return t.active[[2]selection.FrameID{parent, child}], nil
}
