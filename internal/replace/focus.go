package replace

import (
	"context"

	. "github.com/roelfdiedericks/rephrase/internal/logging"
	"github.com/roelfdiedericks/rephrase/internal/selection"
)

// FrameTree answers cross-frame focus questions. Focus is tracked per
// frame, so only the page-level view can tell which frame is really active.
type FrameTree interface {
	// Ancestry returns the frame chain from the top-level frame down to
	// frame, inclusive.
	Ancestry(ctx context.Context, frame selection.FrameID) ([]selection.FrameID, error)
	// OwnerIsActive reports whether parent's activeElement is the frame
	// element that owns child.
	OwnerIsActive(ctx context.Context, parent, child selection.FrameID) (bool, error)
}

// Resolver decides whether a frame's active element is the frame the user
// is actually interacting with.
type Resolver struct {
	tree FrameTree
}

// NewResolver creates a resolver. A nil tree limits resolution to hasFocus.
func NewResolver(tree FrameTree) *Resolver {
	return &Resolver{tree: tree}
}

// Authoritative reports whether doc's active element is the true focus
// target. Any error or unreachable frame fails closed.
func (r *Resolver) Authoritative(ctx context.Context, doc Document) bool {
	if focused, err := doc.HasFocus(ctx); err == nil && focused {
		return true
	}
	if r.tree == nil {
		return false
	}

	chain, err := r.tree.Ancestry(ctx, doc.Frame())
	if err != nil {
		L_debug("replace: focus ancestry unavailable", "frame", doc.Frame(), "error", err)
		return false
	}
	if len(chain) == 0 || chain[len(chain)-1] != doc.Frame() {
		L_debug("replace: focus ancestry does not end at frame", "frame", doc.Frame(), "chain", chain)
		return false
	}

	// Top-level frame: its own activeElement is the candidate.
	for i := 1; i < len(chain); i++ {
		active, err := r.tree.OwnerIsActive(ctx, chain[i-1], chain[i])
		if err != nil {
			L_debug("replace: focus check failed", "parent", chain[i-1], "child", chain[i], "error", err)
			return false
		}
		if !active {
			L_debug("replace: frame is not active in its parent", "parent", chain[i-1], "child", chain[i])
			return false
		}
	}
	return true
}
