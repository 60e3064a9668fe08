package browser

import (
	"strings"
	"sync"

	"github.com/go-rod/rod/lib/proto"
	"github.com/roelfdiedericks/rephrase/internal/selection"
)

// worldCache holds the isolated world created for each frame. Entries are
// dropped when the browser destroys the context or the frame navigates.
type worldCache struct {
	mu      sync.Mutex
	byFrame map[selection.FrameID]proto.RuntimeExecutionContextID
}

func newWorldCache() *worldCache {
	return &worldCache{byFrame: make(map[selection.FrameID]proto.RuntimeExecutionContextID)}
}

func (w *worldCache) get(frame selection.FrameID) (proto.RuntimeExecutionContextID, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	id, ok := w.byFrame[frame]
	return id, ok
}

func (w *worldCache) put(frame selection.FrameID, id proto.RuntimeExecutionContextID) {
	w.mu.Lock()
	w.byFrame[frame] = id
	w.mu.Unlock()
}

func (w *worldCache) dropFrame(frame selection.FrameID) {
	w.mu.Lock()
	delete(w.byFrame, frame)
	w.mu.Unlock()
}

func (w *worldCache) dropContext(id proto.RuntimeExecutionContextID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for frame, ctxID := range w.byFrame {
		if ctxID == id {
			delete(w.byFrame, frame)
		}
	}
}

func (w *worldCache) clear() {
	w.mu.Lock()
	w.byFrame = make(map[selection.FrameID]proto.RuntimeExecutionContextID)
	w.mu.Unlock()
}

func (w *worldCache) len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.byFrame)
}

// staleContext reports whether err says the execution context is gone, which
// happens when an event about it has not arrived yet.
func staleContext(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Cannot find context with specified id") ||
		strings.Contains(msg, "Execution context was destroyed") ||
		strings.Contains(msg, "Cannot find execution context")
}

// framesPreOrder lists the frames of root, parents before children.
func framesPreOrder(root *proto.PageFrameTree) []selection.FrameID {
	var ids []selection.FrameID
	var walk func(n *proto.PageFrameTree)
	walk = func(n *proto.PageFrameTree) {
		if n == nil || n.Frame == nil {
			return
		}
		ids = append(ids, selection.FrameID(n.Frame.ID))
		for _, c := range n.ChildFrames {
			walk(c)
		}
	}
	walk(root)
	return ids
}

// ancestryOf returns the chain from root down to frame, or nil when frame is
// not in the tree.
func ancestryOf(root *proto.PageFrameTree, frame selection.FrameID) []selection.FrameID {
	var path []selection.FrameID
	var find func(n *proto.PageFrameTree) bool
	find = func(n *proto.PageFrameTree) bool {
		if n == nil || n.Frame == nil {
			return false
		}
		path = append(path, selection.FrameID(n.Frame.ID))
		if selection.FrameID(n.Frame.ID) == frame {
			return true
		}
		for _, c := range n.ChildFrames {
			if find(c) {
				return true
			}
		}
		path = path[:len(path)-1]
		return false
	}
	if !find(root) {
		return nil
	}
	return path
}
