package recovery

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")). // Orange
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")) // Gray
)

// TerminalPresenter writes the notice to a terminal or any writer.
type TerminalPresenter struct {
	w io.Writer
}

// NewTerminalPresenter creates a presenter writing to w.
func NewTerminalPresenter(w io.Writer) *TerminalPresenter {
	return &TerminalPresenter{w: w}
}

func (t *TerminalPresenter) Name() string { return "terminal" }

// Present writes a styled box with the literal text. The text sits on its
// own lines so it can be copied without the frame characters.
func (t *TerminalPresenter) Present(ctx context.Context, n Notice) error {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Automatic replacement failed"))
	b.WriteString("\n")
	meta := fmt.Sprintf("request %s", n.RequestID)
	if n.Reason != "" {
		meta += fmt.Sprintf(" · %s", n.Reason)
	}
	if n.Frame != "" {
		meta += fmt.Sprintf(" · frame %s", n.Frame)
	}
	b.WriteString(metaStyle.Render(meta))

	_, err := fmt.Fprintf(t.w, "%s\n\n%s\n\n", boxStyle.Render(b.String()), n.Text)
	return err
}
