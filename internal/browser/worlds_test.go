package browser

import (
	"errors"
	"reflect"
	"testing"

	"github.com/go-rod/rod/lib/proto"
	"github.com/roelfdiedericks/rephrase/internal/selection"
)

func node(id string, children ...*proto.PageFrameTree) *proto.PageFrameTree {
	return &proto.PageFrameTree{
		Frame:       &proto.PageFrame{ID: proto.PageFrameID(id)},
		ChildFrames: children,
	}
}

// top
// ├── a
// │   ├── a1
// │   └── a2
// └── b
//     └── b1
func sampleTree() *proto.PageFrameTree {
	return node("top",
		node("a", node("a1"), node("a2")),
		node("b", node("b1")),
	)
}

func ids(s ...string) []selection.FrameID {
	out := make([]selection.FrameID, len(s))
	for i, v := range s {
		out[i] = selection.FrameID(v)
	}
	return out
}

func TestFramesPreOrder(t *testing.T) {
	got := framesPreOrder(sampleTree())
	want := ids("top", "a", "a1", "a2", "b", "b1")
	if !reflect.DeepEqual(got, want) {
		t.Errorf("framesPreOrder = %v, want %v", got, want)
	}
	if got := framesPreOrder(nil); len(got) != 0 {
		t.Errorf("nil tree = %v", got)
	}
}

func TestAncestryOf(t *testing.T) {
	tree := sampleTree()
	tests := []struct {
		frame string
		want  []selection.FrameID
	}{
		{"top", ids("top")},
		{"a2", ids("top", "a", "a2")},
		{"b1", ids("top", "b", "b1")},
		{"missing", nil},
	}
	for _, tt := range tests {
		t.Run(tt.frame, func(t *testing.T) {
			got := ancestryOf(tree, selection.FrameID(tt.frame))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ancestryOf(%s) = %v, want %v", tt.frame, got, tt.want)
			}
		})
	}
}

func TestWorldCache(t *testing.T) {
	w := newWorldCache()
	w.put("top", 1)
	w.put("child", 2)
	w.put("other", 2)

	if id, ok := w.get("top"); !ok || id != 1 {
		t.Errorf("get(top) = %v, %v", id, ok)
	}

	w.dropContext(2)
	if _, ok := w.get("child"); ok {
		t.Error("destroyed context still cached for child")
	}
	if w.len() != 1 {
		t.Errorf("len = %d, want 1", w.len())
	}

	w.put("child", 3)
	w.dropFrame("child")
	if _, ok := w.get("child"); ok {
		t.Error("navigated frame still cached")
	}

	w.clear()
	if w.len() != 0 {
		t.Errorf("len after clear = %d", w.len())
	}
}

func TestStaleContext(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("{-32000 Cannot find context with specified id }"), true},
		{errors.New("Execution context was destroyed."), true},
		{errors.New("Cannot find execution context"), true},
		{errors.New("Object reference chain is too long"), false},
	}
	for _, tt := range tests {
		if got := staleContext(tt.err); got != tt.want {
			t.Errorf("staleContext(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
