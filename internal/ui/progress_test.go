package ui

import (
	"bytes"
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressModelTracksReports(t *testing.T) {
	m := NewProgressModel("Dokumentácia", nil)
	assert.Zero(t, m.Percent())

	next, cmd := m.Update(ProgressMsg{Done: 1, Total: 4, Item: "app/models.py"})
	assert.Nil(t, cmd)
	m = next.(ProgressModel)

	assert.InDelta(t, 0.25, m.Percent(), 1e-9)
	view := m.View()
	assert.Contains(t, view, "Dokumentácia")
	assert.Contains(t, view, "1/4")
	assert.Contains(t, view, "app/models.py")
}

func TestProgressModelFinishQuits(t *testing.T) {
	m := NewProgressModel("x", nil)
	boom := errors.New("boom")

	next, cmd := m.Update(finishedMsg{err: boom})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	m = next.(ProgressModel)
	assert.ErrorIs(t, m.Err(), boom)
	assert.Empty(t, m.View())
}

func TestProgressModelCtrlCCancels(t *testing.T) {
	cancelled := false
	m := NewProgressModel("x", func() { cancelled = true })

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.Nil(t, cmd)
	assert.True(t, cancelled)
}

func TestRunWithProgressPlain(t *testing.T) {
	var buf bytes.Buffer
	err := RunWithProgress(context.Background(), &buf, "docs", func(_ context.Context, report ReportFunc) error {
		report(1, 2, "a.py")
		report(2, 2, "b.py")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "[1/2] a.py\n[2/2] b.py\n", buf.String())
}

func TestRunWithProgressPlainReturnsWorkError(t *testing.T) {
	boom := errors.New("boom")
	err := RunWithProgress(context.Background(), &bytes.Buffer{}, "docs", func(context.Context, ReportFunc) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}
