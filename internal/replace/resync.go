package replace

import (
	"context"
	"fmt"
)

// Resynchronizer tells a host editor about an edit made behind its back.
// It runs after a region strategy succeeded on a SpecializedEditableRegion.
type Resynchronizer interface {
	Resync(ctx context.Context, doc Document, s Surface, text string) error
}

// ResyncFunc adapts a function to Resynchronizer.
type ResyncFunc func(ctx context.Context, doc Document, s Surface, text string) error

func (f ResyncFunc) Resync(ctx context.Context, doc Document, s Surface, text string) error {
	return f(ctx, doc, s, text)
}

// InputEventResync fires an insertText InputEvent carrying the inserted
// text, then moves focus and the caret past the insertion.
type InputEventResync struct{}

func (InputEventResync) Resync(ctx context.Context, doc Document, s Surface, text string) error {
	if err := doc.DispatchInput(ctx, text); err != nil {
		return fmt.Errorf("dispatch input event: %w", err)
	}
	if err := doc.CollapseAfterInsertion(ctx); err != nil {
		return fmt.Errorf("collapse selection: %w", err)
	}
	return nil
}
