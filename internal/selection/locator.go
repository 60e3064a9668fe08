package selection

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/roelfdiedericks/rephrase/internal/failure"
	. "github.com/roelfdiedericks/rephrase/internal/logging"
)

// DefaultProbeTimeout bounds a single frame probe.
const DefaultProbeTimeout = 2 * time.Second

// Prober evaluates selection-read probes in a page's frames.
type Prober interface {
	// Frames returns the root frame and all descendants in document pre-order.
	Frames(ctx context.Context) ([]FrameID, error)
	// ProbeSelection returns the trimmed selection text of one frame only.
	ProbeSelection(ctx context.Context, frame FrameID) (string, error)
}

// Locator finds the frame holding the selection.
type Locator struct {
	prober       Prober
	probeTimeout time.Duration
}

// NewLocator creates a locator. A zero timeout uses DefaultProbeTimeout.
func NewLocator(prober Prober, probeTimeout time.Duration) *Locator {
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}
	return &Locator{prober: prober, probeTimeout: probeTimeout}
}

// Scan probes every frame concurrently and returns results in traversal
// order. A probe that fails counts as an empty selection.
func (l *Locator) Scan(ctx context.Context) (FrameScanResult, error) {
	frames, err := l.prober.Frames(ctx)
	if err != nil {
		return nil, failure.Wrap(failure.ChannelUnavailable, "list frames", err)
	}

	result := make(FrameScanResult, len(frames))
	var wg sync.WaitGroup
	for i, frame := range frames {
		result[i] = FrameProbe{Frame: frame, Order: i}
		wg.Add(1)
		go func(i int, frame FrameID) {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, l.probeTimeout)
			defer cancel()

			text, err := l.prober.ProbeSelection(pctx, frame)
			if err != nil {
				result[i].Err = err
				return
			}
			result[i].Text = strings.TrimSpace(text)
		}(i, frame)
	}
	wg.Wait()

	for _, p := range result.Failed() {
		L_debug("selection: probe failed", "frame", p.Frame, "order", p.Order, "error", p.Err)
	}
	return result, nil
}

// Locate scans the page and picks the first frame with a selection.
// Returns failure.NoSelectionFound when every frame is empty.
func (l *Locator) Locate(ctx context.Context) (SelectionHandle, error) {
	result, err := l.Scan(ctx)
	if err != nil {
		return SelectionHandle{}, err
	}
	h, ok := result.First()
	if !ok {
		return SelectionHandle{}, failure.New(failure.NoSelectionFound,
			fmt.Sprintf("no selection in %d frame(s)", len(result)))
	}
	L_debug("selection: located", "frame", h.Frame(), "length", len(h.Text()), "frames", len(result))
	return h, nil
}
