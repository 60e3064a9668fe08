package replace

import (
	"context"
	"errors"
)

// Strategy is one way of putting text into a surface.
type Strategy interface {
	Name() string
	Applies(s Surface) bool
	Apply(ctx context.Context, doc Document, s Surface, text string) error
}

// DefaultStrategies returns the strategies in dispatch order.
func DefaultStrategies() []Strategy {
	return []Strategy{
		PlainSplice{},
		NativeInsert{},
		RangeSurgery{},
	}
}

func isRegion(s Surface) bool {
	return s.Kind == GenericEditableRegion || s.Kind == SpecializedEditableRegion
}

// PlainSplice splices text into an input/textarea buffer and notifies
// listeners with input and change.
type PlainSplice struct{}

func (PlainSplice) Name() string { return "plain-splice" }

func (PlainSplice) Applies(s Surface) bool { return s.Kind == PlainControl && s.Control != nil }

func (PlainSplice) Apply(ctx context.Context, doc Document, s Surface, text string) error {
	value, caret, err := Splice(s.Control.Value, s.Control.Start, s.Control.End, text)
	if err != nil {
		return err
	}
	return doc.SetControlValue(ctx, value, caret)
}

// NativeInsert uses the host's insertText command, which keeps the host's
// own formatting and undo behaviour.
type NativeInsert struct{}

func (NativeInsert) Name() string { return "native-insert" }

func (NativeInsert) Applies(s Surface) bool { return isRegion(s) }

func (NativeInsert) Apply(ctx context.Context, doc Document, s Surface, text string) error {
	ok, err := doc.ExecInsertText(ctx, text)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("insertText unsupported or reported failure")
	}
	return nil
}

// RangeSurgery replaces the range contents with a plain text node. Rich
// formatting at the insertion point is lost.
type RangeSurgery struct{}

func (RangeSurgery) Name() string { return "range-surgery" }

func (RangeSurgery) Applies(s Surface) bool { return isRegion(s) }

func (RangeSurgery) Apply(ctx context.Context, doc Document, s Surface, text string) error {
	return doc.ReplaceRange(ctx, text)
}
