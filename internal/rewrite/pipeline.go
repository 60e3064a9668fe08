// Package rewrite ties discovery, generation, replacement and recovery into
// one request flow.
package rewrite

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/roelfdiedericks/rephrase/internal/history"
	"github.com/roelfdiedericks/rephrase/internal/llm"
	. "github.com/roelfdiedericks/rephrase/internal/logging"
	"github.com/roelfdiedericks/rephrase/internal/recovery"
	"github.com/roelfdiedericks/rephrase/internal/relay"
	"github.com/roelfdiedericks/rephrase/internal/replace"
	"github.com/roelfdiedericks/rephrase/internal/selection"
)

// Request is the state carried from discovery to replacement. Nothing else
// about the page survives in between.
type Request struct {
	ID          string
	Handle      selection.SelectionHandle
	Instruction string
	CreatedAt   time.Time
}

// NewRequest creates a request for a located selection.
func NewRequest(h selection.SelectionHandle, instruction string) Request {
	return Request{
		ID:          uuid.NewString(),
		Handle:      h,
		Instruction: instruction,
		CreatedAt:   time.Now(),
	}
}

// Result describes how a request ended.
type Result struct {
	Request  Request
	Text     string
	Outcome  replace.Outcome
	Recovery *recovery.Report // nil unless the outcome failed
}

// Locator finds the selection to rewrite.
type Locator interface {
	Locate(ctx context.Context) (selection.SelectionHandle, error)
}

// Sender delivers a replace command to a frame.
type Sender interface {
	Send(ctx context.Context, cmd relay.Command) replace.Outcome
}

// Recoverer shows text the page would not take.
type Recoverer interface {
	Recover(ctx context.Context, n recovery.Notice) recovery.Report
}

// Journal records attempts.
type Journal interface {
	Record(ctx context.Context, e history.Entry) error
}

// Pipeline runs rewrite requests. Concurrent Runs share nothing but their
// collaborators.
type Pipeline struct {
	locator   Locator
	generator llm.Generator
	sender    Sender
	recoverer Recoverer
	journal   Journal
}

// NewPipeline creates a pipeline. journal may be nil.
func NewPipeline(locator Locator, generator llm.Generator, sender Sender, recoverer Recoverer, journal Journal) *Pipeline {
	return &Pipeline{
		locator:   locator,
		generator: generator,
		sender:    sender,
		recoverer: recoverer,
		journal:   journal,
	}
}

// Discover locates the selection. It returns failure.NoSelectionFound when
// no frame has one.
func (p *Pipeline) Discover(ctx context.Context) (selection.SelectionHandle, error) {
	return p.locator.Locate(ctx)
}

// Run generates replacement text for req and applies it to the originating
// frame. Backend errors are returned as-is and nothing is sent. Any failed
// replacement goes through recovery, so the returned error is nil once text
// was generated.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	res := Result{Request: req}
	h := req.Handle

	L_info("rewrite: generating", "requestID", req.ID, "frame", h.Frame(), "provider", p.generator.Name(), "textLen", len(h.Text()))
	text, err := p.generator.Generate(ctx, llm.Request{SelectedText: h.Text(), Instruction: req.Instruction})
	if err != nil {
		L_warn("rewrite: generation failed", "requestID", req.ID, "error", err)
		return res, err
	}
	res.Text = text

	res.Outcome = p.sender.Send(ctx, relay.Command{
		Action:    relay.ActionReplace,
		RequestID: req.ID,
		Frame:     h.Frame(),
		Text:      text,
	})

	if res.Outcome.Success {
		L_info("rewrite: replaced", "requestID", req.ID, "strategy", res.Outcome.Strategy, "surface", res.Outcome.Surface)
	} else {
		L_warn("rewrite: replacement failed", "requestID", req.ID, "reason", res.Outcome.Reason, "detail", res.Outcome.Detail)
		report := p.recoverer.Recover(ctx, recovery.Notice{
			RequestID: req.ID,
			Frame:     h.Frame(),
			Text:      text,
			Original:  h.Text(),
			Reason:    res.Outcome.Reason,
		})
		res.Recovery = &report
	}

	p.record(ctx, res)
	return res, nil
}

func (p *Pipeline) record(ctx context.Context, res Result) {
	if p.journal == nil {
		return
	}
	e := history.Entry{
		RequestID:   res.Request.ID,
		Frame:       string(res.Request.Handle.Frame()),
		Original:    res.Request.Handle.Text(),
		Instruction: llm.ResolveInstruction(res.Request.Instruction),
		Rewritten:   res.Text,
		Success:     res.Outcome.Success,
		Reason:      string(res.Outcome.Reason),
		Strategy:    res.Outcome.Strategy,
		Provider:    p.generator.Name(),
		Model:       p.generator.Model(),
		CreatedAt:   res.Request.CreatedAt,
	}
	// The request context may already be spent by a slow replace.
	if err := p.journal.Record(context.WithoutCancel(ctx), e); err != nil {
		L_warn("rewrite: failed to record history", "requestID", res.Request.ID, "error", err)
	}
}
