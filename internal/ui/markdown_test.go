package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownRendererRendersHeading(t *testing.T) {
	r, err := NewMarkdownRenderer(80)
	require.NoError(t, err)

	out := r.Render("# Architektúra\n\nVrstvená aplikácia.")
	assert.Contains(t, out, "Architektúra")
	assert.Contains(t, out, "Vrstvená")
}

func TestMarkdownRendererNilReturnsInput(t *testing.T) {
	var r *MarkdownRenderer
	assert.Equal(t, "# hi", r.Render("# hi"))
}

func TestPrintMarkdownPlainWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintMarkdown(&buf, "# Title\n\n**bold**"))
	assert.Equal(t, "# Title\n\n**bold**\n", buf.String())
}

func TestWidthDefaultsForNonFile(t *testing.T) {
	assert.Equal(t, DefaultWidth, Width(&bytes.Buffer{}))
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}
