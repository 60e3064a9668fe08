// Package tui holds the terminal prompts and output formatting of the CLI.
package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/roelfdiedericks/rephrase/internal/llm"
	. "github.com/roelfdiedericks/rephrase/internal/logging"
)

// ErrAborted is returned when the user cancels the instruction form.
var ErrAborted = errors.New("aborted")

// previewLimit caps the selection shown above the instruction input.
const previewLimit = 400

// AskInstruction shows the selected text and asks how to rewrite it.
// The answer is returned trimmed; blank means the default applies.
func AskInstruction(selected string) (string, error) {
	var instruction string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Selected text").
				Description(Preview(selected, previewLimit)),
			huh.NewInput().
				Title("Instruction").
				Description("Leave blank for the default instruction").
				Placeholder(llm.DefaultInstruction).
				Value(&instruction),
		),
	).WithShowHelp(true)

	release := Hold()
	err := form.Run()
	release()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", ErrAborted
		}
		return "", err
	}
	return strings.TrimSpace(instruction), nil
}

// Preview shortens s to at most limit runes, marking the cut with an ellipsis.
func Preview(s string, limit int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if limit <= 0 || len(r) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	return string(r[:limit-1]) + "…"
}

// AwaitSelection waits until the user has selected text in the launched
// browser. It returns false when the user chooses to quit.
func AwaitSelection() (bool, error) {
	ready := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Select text in the browser window").
				Description("The browser closes when you quit.").
				Affirmative("Rewrite").
				Negative("Quit").
				Value(&ready),
		),
	).WithShowHelp(true)

	release := Hold()
	err := form.Run()
	release()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ready, nil
}
