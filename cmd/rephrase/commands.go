package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/roelfdiedericks/rephrase/internal/failure"
	"github.com/roelfdiedericks/rephrase/internal/history"
	"github.com/roelfdiedericks/rephrase/internal/recovery"
	"github.com/roelfdiedericks/rephrase/internal/relay"
	"github.com/roelfdiedericks/rephrase/internal/rewrite"
	"github.com/roelfdiedericks/rephrase/internal/selection"
	"github.com/roelfdiedericks/rephrase/internal/tui"
)

// RewriteCmd locates the selection, rewrites it and puts the result back.
type RewriteCmd struct {
	Instruction string `short:"i" help:"How to rewrite the text. Prompted for when omitted."`
	NoPrompt    bool   `short:"y" help:"Do not prompt; use the default instruction when none is given."`
	Print       bool   `short:"p" help:"Also print the rewritten text to stdout."`
}

func (c *RewriteCmd) Run(app *App) error {
	ctx, cancel := app.Context()
	defer cancel()

	pipeline, err := app.Pipeline(ctx)
	if err != nil {
		return err
	}
	return app.Session(ctx, func(ctx context.Context) error {
		return c.rewrite(ctx, app, pipeline)
	})
}

func (c *RewriteCmd) rewrite(ctx context.Context, app *App, pipeline *rewrite.Pipeline) error {
	handle, err := pipeline.Discover(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, tui.RenderSelection(handle))

	instruction := c.Instruction
	if instruction == "" && !c.NoPrompt {
		instruction, err = tui.AskInstruction(handle.Text())
		if errors.Is(err, tui.ErrAborted) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	instruction = app.cfg.Instruction(instruction)

	res, err := pipeline.Run(ctx, rewrite.NewRequest(handle, instruction))
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, tui.RenderResult(res))
	if c.Print {
		fmt.Println(res.Text)
	}
	return nil
}

// ProbeCmd lists the frames and their selections.
type ProbeCmd struct{}

func (c *ProbeCmd) Run(app *App) error {
	ctx, cancel := app.Context()
	defer cancel()

	locator, err := app.Locator(ctx)
	if err != nil {
		return err
	}
	scan, err := locator.Scan(ctx)
	if err != nil {
		return err
	}
	fmt.Print(tui.RenderScan(scan))
	if h, ok := scan.First(); ok {
		fmt.Println(tui.RenderSelection(h))
	}
	return nil
}

// ReplaceCmd sends a replace command without involving the backend.
type ReplaceCmd struct {
	Frame string `help:"Frame id from probe (default: the frame holding the selection)."`
	Text  string `required:"" help:"Replacement text."`
}

func (c *ReplaceCmd) Run(app *App) error {
	ctx, cancel := app.Context()
	defer cancel()

	sender, err := app.Relay(ctx)
	if err != nil {
		return err
	}
	recoverer, err := app.Recoverer(ctx)
	if err != nil {
		return err
	}
	return app.Session(ctx, func(ctx context.Context) error {
		return c.replace(ctx, app, sender, recoverer)
	})
}

func (c *ReplaceCmd) replace(ctx context.Context, app *App, sender *relay.Relay, recoverer *recovery.Recoverer) error {
	frame := selection.FrameID(c.Frame)
	original := ""
	if frame == "" {
		locator, err := app.Locator(ctx)
		if err != nil {
			return err
		}
		h, err := locator.Locate(ctx)
		if err != nil {
			return err
		}
		frame, original = h.Frame(), h.Text()
	}

	cmd := relay.Command{Action: relay.ActionReplace, RequestID: uuid.NewString(), Frame: frame, Text: c.Text}
	res := rewrite.Result{Text: c.Text, Outcome: sender.Send(ctx, cmd)}
	if !res.Outcome.Success {
		report := recoverer.Recover(ctx, recovery.Notice{
			RequestID: cmd.RequestID,
			Frame:     frame,
			Text:      c.Text,
			Original:  original,
			Reason:    res.Outcome.Reason,
		})
		res.Recovery = &report
	}
	fmt.Fprintln(os.Stderr, tui.RenderResult(res))
	return nil
}

// HistoryCmd prints the most recent journal entries.
type HistoryCmd struct {
	Limit int `short:"n" default:"20" help:"Number of entries to show."`
}

func (c *HistoryCmd) Run(app *App) error {
	ctx, cancel := app.Context()
	defer cancel()

	store, err := app.History()
	if err != nil {
		return err
	}
	if store == nil {
		return failure.New(failure.Misconfigured, "history is disabled in the config")
	}
	limit := c.Limit
	if limit <= 0 {
		limit = history.DefaultLimit
	}
	entries, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	fmt.Print(tui.RenderHistory(entries))
	return nil
}
