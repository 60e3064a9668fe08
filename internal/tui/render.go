package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/roelfdiedericks/rephrase/internal/failure"
	"github.com/roelfdiedericks/rephrase/internal/history"
	"github.com/roelfdiedericks/rephrase/internal/rewrite"
	"github.com/roelfdiedericks/rephrase/internal/selection"
)

// RenderSelection frames the located selection with its frame id.
func RenderSelection(h selection.SelectionHandle) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Selection")+" "+labelStyle.Render("frame "+string(h.Frame())),
		selectionBorder.Render(Preview(h.Text(), previewLimit)),
	)
}

// RenderScan lists every probed frame in traversal order.
func RenderScan(scan selection.FrameScanResult) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Frames (%d)", len(scan))))
	b.WriteString("\n")
	for _, p := range scan {
		state := labelStyle.Render("no selection")
		switch {
		case p.Err != nil:
			state = warningStyle.Render("probe failed: " + p.Err.Error())
		case p.Text != "":
			state = fmt.Sprintf("%q", Preview(p.Text, 60))
		}
		fmt.Fprintf(&b, "  %2d  %s  %s\n", p.Order, p.Frame, state)
	}
	return b.String()
}

// RenderResult describes how a rewrite ended.
func RenderResult(res rewrite.Result) string {
	if res.Outcome.Success {
		return successStyle.Render("✓ Replaced") + " " +
			labelStyle.Render(fmt.Sprintf("(%s, %s)", res.Outcome.Strategy, res.Outcome.Surface))
	}
	lines := []string{RenderError(res.Outcome.Err())}
	if res.Recovery != nil {
		lines = append(lines, helpStyle.Render("Rewritten text shown via "+res.Recovery.Presenter))
	}
	return strings.Join(lines, "\n")
}

// RenderError formats err as the user-facing message.
func RenderError(err error) string {
	msg := failure.UserMessage(err)
	if failure.Retryable(failure.KindOf(err)) {
		msg += " " + helpStyle.Render("(retry to try again)")
	}
	return errorStyle.Render("✗ ") + msg
}

// RenderHistory prints journal entries, newest first.
func RenderHistory(entries []history.Entry) string {
	if len(entries) == 0 {
		return helpStyle.Render("No rewrites recorded yet.")
	}
	var b strings.Builder
	for _, e := range entries {
		status := successStyle.Render("ok")
		if !e.Success {
			status = errorStyle.Render(e.Reason)
		}
		fmt.Fprintf(&b, "%s  %s  %s\n",
			labelStyle.Render(e.CreatedAt.Local().Format("2006-01-02 15:04:05")),
			status,
			labelStyle.Render(e.Provider+"/"+e.Model))
		fmt.Fprintf(&b, "  - %s\n  + %s\n", Preview(e.Original, 70), Preview(e.Rewritten, 70))
	}
	return b.String()
}
