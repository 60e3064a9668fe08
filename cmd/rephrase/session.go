package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roelfdiedericks/rephrase/internal/failure"
	. "github.com/roelfdiedericks/rephrase/internal/logging"
	"github.com/roelfdiedericks/rephrase/internal/tui"
)

// Session runs once against a connected browser. A launched browser starts
// on a blank page and closes when rephrase exits, so there once runs in a
// loop: the user selects text in the window, confirms, and quits when done.
func (a *App) Session(ctx context.Context, once func(ctx context.Context) error) error {
	if !a.cfg.Browser.Launched() {
		return once(ctx)
	}
	if a.cfg.Browser.Headless {
		return failure.New(failure.Misconfigured, "a headless launched browser has no window to select text in; set browser.cdp or disable headless")
	}

	await := a.await
	if await == nil {
		await = tui.AwaitSelection
	}
	L_info("rephrase: browser launched, waiting for a selection")
	for {
		ready, err := await()
		if err != nil {
			return err
		}
		if !ready || ctx.Err() != nil {
			return nil
		}

		err = once(ctx)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return err
		case failure.Is(err, failure.Misconfigured):
			return err
		default:
			fmt.Fprintln(os.Stderr, tui.RenderError(err))
		}
	}
}
