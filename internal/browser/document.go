package browser

import (
	"context"
	"fmt"

	"github.com/roelfdiedericks/rephrase/internal/replace"
	"github.com/roelfdiedericks/rephrase/internal/selection"
)

// frameDocument implements replace.Document for one frame. Every method is a
// fresh round trip; nothing about the page is cached.
type frameDocument struct {
	tab   *Tab
	frame selection.FrameID
}

func (d *frameDocument) Frame() selection.FrameID { return d.frame }

func (d *frameDocument) Hostname(ctx context.Context) (string, error) {
	res, err := d.tab.call(ctx, d.frame, jsHostname, true)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (d *frameDocument) HasFocus(ctx context.Context) (bool, error) {
	res, err := d.tab.call(ctx, d.frame, jsHasFocus, true)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

func (d *frameDocument) ActiveControl(ctx context.Context) (*replace.ControlState, error) {
	res, err := d.tab.call(ctx, d.frame, jsActiveControl, true)
	if err != nil {
		return nil, err
	}
	var c *replace.ControlState
	if err := decode(res, &c); err != nil {
		return nil, fmt.Errorf("decode control state: %w", err)
	}
	return c, nil
}

func (d *frameDocument) SetControlValue(ctx context.Context, value string, caret int) error {
	_, err := d.tab.call(ctx, d.frame, jsSetControlValue, true, value, caret)
	return err
}

func (d *frameDocument) Selection(ctx context.Context) (replace.RangeState, error) {
	var st replace.RangeState
	res, err := d.tab.call(ctx, d.frame, jsSelectionState, true)
	if err != nil {
		return st, err
	}
	if err := decode(res, &st); err != nil {
		return st, fmt.Errorf("decode selection state: %w", err)
	}
	return st, nil
}

func (d *frameDocument) MatchMarker(ctx context.Context, selectors []string) (int, error) {
	if len(selectors) == 0 {
		return -1, nil
	}
	res, err := d.tab.call(ctx, d.frame, jsMatchMarker, true, selectors)
	if err != nil {
		return -1, err
	}
	return res.Value.Int(), nil
}

func (d *frameDocument) ExecInsertText(ctx context.Context, text string) (bool, error) {
	res, err := d.tab.call(ctx, d.frame, jsExecInsertText, true, text)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

func (d *frameDocument) ReplaceRange(ctx context.Context, text string) error {
	_, err := d.tab.call(ctx, d.frame, jsReplaceRange, true, text)
	return err
}

func (d *frameDocument) DispatchInput(ctx context.Context, text string) error {
	_, err := d.tab.call(ctx, d.frame, jsDispatchInput, true, text)
	return err
}

func (d *frameDocument) CollapseAfterInsertion(ctx context.Context) error {
	_, err := d.tab.call(ctx, d.frame, jsCollapseAfterInsertion, true)
	return err
}
