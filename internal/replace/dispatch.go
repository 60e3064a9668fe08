package replace

import (
	"context"
	"fmt"
	"strings"

	"github.com/roelfdiedericks/rephrase/internal/failure"
	. "github.com/roelfdiedericks/rephrase/internal/logging"
)

// Outcome is the result of one replacement attempt.
type Outcome struct {
	Success  bool         `json:"success"`
	Reason   failure.Kind `json:"reason,omitempty"`
	Strategy string       `json:"strategy,omitempty"`
	Surface  SurfaceKind  `json:"surface,omitempty"`
	Detail   string       `json:"detail,omitempty"`
}

// Succeeded builds a successful outcome.
func Succeeded(strategy string, surface SurfaceKind) Outcome {
	return Outcome{Success: true, Strategy: strategy, Surface: surface}
}

// Failed builds a failed outcome.
func Failed(reason failure.Kind, detail string) Outcome {
	return Outcome{Success: false, Reason: reason, Detail: detail}
}

// Err returns the outcome as an error, or nil on success.
func (o Outcome) Err() error {
	if o.Success {
		return nil
	}
	return failure.New(o.Reason, o.Detail)
}

// Engine classifies a frame's surface and runs the replacement strategies.
type Engine struct {
	classifier    *Classifier
	strategies    []Strategy
	resyncs       map[string]Resynchronizer
	defaultResync Resynchronizer
}

// NewEngine creates an engine with the default strategy order. tree may be
// nil; hosts are the specialized editor signatures.
func NewEngine(tree FrameTree, hosts []HostSignature) *Engine {
	return &Engine{
		classifier:    NewClassifier(NewResolver(tree), hosts),
		strategies:    DefaultStrategies(),
		resyncs:       make(map[string]Resynchronizer),
		defaultResync: InputEventResync{},
	}
}

// WithStrategies replaces the strategy list. Used to extend or reorder.
func (e *Engine) WithStrategies(strategies ...Strategy) *Engine {
	e.strategies = strategies
	return e
}

// RegisterResync sets the resynchronizer for a host signature name.
// Hosts without one use InputEventResync.
func (e *Engine) RegisterResync(host string, r Resynchronizer) {
	e.resyncs[host] = r
}

// Replace substitutes text for the current selection in doc.
func (e *Engine) Replace(ctx context.Context, doc Document, text string) Outcome {
	surface, err := e.classifier.Classify(ctx, doc)
	if err != nil {
		kind := failure.KindOf(err)
		if kind == failure.KindNone {
			kind = failure.SurfaceNotFound
		}
		L_debug("replace: no usable surface", "frame", doc.Frame(), "reason", kind, "error", err)
		return Failed(kind, err.Error())
	}
	return e.Dispatch(ctx, doc, surface, text)
}

// Dispatch tries each applicable strategy in order and stops at the first
// success. A strategy that errors or panics only fails itself.
func (e *Engine) Dispatch(ctx context.Context, doc Document, surface Surface, text string) Outcome {
	if surface.Collapsed() {
		L_warn("replace: nothing selected in surface", "frame", doc.Frame(), "surface", surface.Kind)
		return Failed(failure.NoActiveSelection, "no text selected in the focused surface")
	}

	var attempts []string
	for _, s := range e.strategies {
		if !s.Applies(surface) {
			continue
		}
		if err := runStrategy(ctx, s, doc, surface, text); err != nil {
			L_debug("replace: strategy failed", "frame", doc.Frame(), "strategy", s.Name(), "error", err)
			attempts = append(attempts, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}

		if surface.Kind == SpecializedEditableRegion {
			e.resync(ctx, doc, surface, text)
		}
		L_info("replace: text replaced", "frame", doc.Frame(), "surface", surface.Kind, "strategy", s.Name())
		return Succeeded(s.Name(), surface.Kind)
	}

	if len(attempts) == 0 {
		return Failed(failure.SurfaceNotFound, fmt.Sprintf("no strategy applies to %s", surface.Kind))
	}
	L_error("replace: all strategies failed", "frame", doc.Frame(), "surface", surface.Kind, "attempts", len(attempts))
	return Failed(failure.StrategyExhausted, strings.Join(attempts, "; "))
}

// resync failures are logged only: the text is already in the DOM.
func (e *Engine) resync(ctx context.Context, doc Document, surface Surface, text string) {
	r := e.defaultResync
	if surface.Host != nil {
		if custom, ok := e.resyncs[surface.Host.Name]; ok {
			r = custom
		}
	}
	if r == nil {
		return
	}
	err := func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("resync panicked: %v", p)
			}
		}()
		return r.Resync(ctx, doc, surface, text)
	}()
	if err != nil {
		host := ""
		if surface.Host != nil {
			host = surface.Host.Name
		}
		L_warn("replace: host resync failed", "frame", doc.Frame(), "host", host, "error", err)
	}
}

func runStrategy(ctx context.Context, s Strategy, doc Document, surface Surface, text string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panicked: %v", p)
		}
	}()
	return s.Apply(ctx, doc, surface, text)
}
