package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
)

// MarkdownRenderer renders markdown text for terminal display.
type MarkdownRenderer struct {
	renderer *glamour.TermRenderer
}

// NewMarkdownRenderer creates a renderer wrapping lines at width.
func NewMarkdownRenderer(width int) (*MarkdownRenderer, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("creating glamour renderer: %w", err)
	}
	return &MarkdownRenderer{renderer: r}, nil
}

// Render converts markdown to styled terminal output. A nil renderer or a
// rendering failure returns md unchanged.
func (m *MarkdownRenderer) Render(md string) string {
	if m == nil || m.renderer == nil {
		return md
	}
	out, err := m.renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}

// PrintMarkdown writes md to w, styled when w is a terminal.
func PrintMarkdown(w io.Writer, md string) error {
	text := md
	if IsTerminal(w) {
		if r, err := NewMarkdownRenderer(Width(w)); err == nil {
			text = r.Render(md)
		}
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err := io.WriteString(w, text)
	return err
}
