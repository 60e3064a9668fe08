// Package recovery shows generated text to the user when it could not be
// put into the page, so a failed replacement never loses work.
package recovery

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/roelfdiedericks/rephrase/internal/failure"
	. "github.com/roelfdiedericks/rephrase/internal/logging"
	"github.com/roelfdiedericks/rephrase/internal/selection"
)

// DefaultPresentTimeout bounds each presenter attempt.
const DefaultPresentTimeout = 5 * time.Second

// Notice carries everything the user needs to paste the text manually.
type Notice struct {
	RequestID string
	Frame     selection.FrameID
	Text      string // literal replacement text, always shown
	Original  string
	Reason    failure.Kind
}

// Message renders the notice body shared by all presenters.
func (n Notice) Message() string {
	return "Failed to automatically replace text. Please copy the text below and paste it manually:\n\n" + n.Text
}

// Presenter shows a notice. A nil error means the user was shown the text.
type Presenter interface {
	Name() string
	Present(ctx context.Context, n Notice) error
}

// Report records how a notice reached the user.
type Report struct {
	Presenter string   `json:"presenter"`
	Failed    []string `json:"failed,omitempty"`
	Echoed    bool     `json:"echoed,omitempty"` // also written to the terminal
}

// Recoverer tries presenters in order and falls back to the terminal.
type Recoverer struct {
	presenters []Presenter
	terminal   *TerminalPresenter
	timeout    time.Duration
	echo       bool
}

// NewRecoverer creates a recoverer. fallback defaults to stderr.
func NewRecoverer(fallback io.Writer, presenters ...Presenter) *Recoverer {
	if fallback == nil {
		fallback = os.Stderr
	}
	return &Recoverer{
		presenters: presenters,
		terminal:   NewTerminalPresenter(fallback),
		timeout:    DefaultPresentTimeout,
	}
}

// SetTimeout changes the per-presenter timeout.
func (r *Recoverer) SetTimeout(d time.Duration) {
	if d > 0 {
		r.timeout = d
	}
}

// SetEcho makes the terminal show every notice, even one a presenter already
// showed. Needed when the presenter's surface may go away right after.
func (r *Recoverer) SetEcho(on bool) {
	r.echo = on
}

// Recover shows the notice. It has no failure mode: when every presenter
// fails the terminal writer is used.
func (r *Recoverer) Recover(ctx context.Context, n Notice) Report {
	var report Report
	for _, p := range r.presenters {
		err := r.present(ctx, p, n)
		if err == nil {
			L_info("recovery: text shown to user", "presenter", p.Name(), "requestID", n.RequestID, "reason", n.Reason)
			report.Presenter = p.Name()
			if r.echo {
				r.writeTerminal(n)
				report.Echoed = true
			}
			return report
		}
		L_warn("recovery: presenter failed", "presenter", p.Name(), "requestID", n.RequestID, "error", err)
		report.Failed = append(report.Failed, p.Name())
	}

	r.writeTerminal(n)
	report.Presenter = r.terminal.Name()
	return report
}

func (r *Recoverer) writeTerminal(n Notice) {
	if err := r.terminal.Present(context.Background(), n); err != nil {
		// Last resort: the log stream always carries the text.
		L_error("recovery: terminal write failed, text follows", "requestID", n.RequestID, "text", n.Text, "error", err)
	}
}

func (r *Recoverer) present(ctx context.Context, p Presenter, n Notice) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("presenter panicked: %v", rec)
		}
	}()
	pctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return p.Present(pctx, n)
}
