// Package ui renders command output for the terminal: Markdown through
// glamour, status lines through lipgloss, a bubbletea progress view for
// long runs and huh pickers for interactive choices. Every entry point
// degrades to plain text when the writer is not a terminal.
package ui

import (
	"io"
	"os"

	"golang.org/x/term"
)

// DefaultWidth is used when the terminal size cannot be determined.
const DefaultWidth = 80

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Width returns the column count of w, or DefaultWidth.
func Width(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return DefaultWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return DefaultWidth
	}
	return width
}
