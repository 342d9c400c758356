package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianshen/repodoc/internal/architecture"
)

func TestArchitectureCommandAndCachedResult(t *testing.T) {
	stubLLM(t, fixedReply(`{"architecture": "Layered", "justification": "Modely a služby sú oddelené."}`))
	dir := writeProject(t)
	out := t.TempDir()
	cfg := writeConfig(t, "")

	stdout, _, err := execute(t, nil, "architecture", "--config", cfg, "--dir", dir, "--output", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Architektúra: Layered")
	assert.Contains(t, stdout, "Modely a služby sú oddelené.")

	saved, err := os.ReadFile(filepath.Join(out, "architecture.md"))
	require.NoError(t, err)
	assert.Contains(t, string(saved), "# Architektúra: Layered")

	s := stubLLM(t, func(string) (string, error) { return "", errors.New("offline") })
	stdout, _, err = execute(t, nil, "architecture", "--config", cfg, "--dir", dir, "--output", out, "--cached")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Layered")
	assert.Empty(t, s.prompts)
}

func TestArchitectureCommandPropagatesLLMError(t *testing.T) {
	stubLLM(t, func(string) (string, error) { return "", errors.New("offline") })
	dir := writeProject(t)

	_, _, err := execute(t, nil, "architecture", "--config", writeConfig(t, ""), "--dir", dir, "--output", t.TempDir())
	assert.ErrorContains(t, err, "offline")
}

func TestArchitectureMarkdown(t *testing.T) {
	assert.Equal(t, "# Architektúra: MVC\n\ndôvod\n",
		architectureMarkdown(architecture.Result{Architecture: "MVC", Justification: "dôvod"}))
	assert.Equal(t, "# Architektúra: neurčená\n\nsurový text\n",
		architectureMarkdown(architecture.Result{Justification: "surový text"}))
}

func TestClassesCommand(t *testing.T) {
	s := stubLLM(t, fixedReply("### Trieda"))
	dir := writeProject(t)
	out := t.TempDir()

	stdout, _, err := execute(t, nil, "classes", "--config", writeConfig(t, ""), "--dir", dir, "--output", out, "--top", "2")
	require.NoError(t, err)

	report, err := os.ReadFile(filepath.Join(out, "important_classes.md"))
	require.NoError(t, err)
	assert.Equal(t, "### Trieda\n\n### Trieda\n\n", string(report))
	assert.Len(t, s.prompts, 2)
	assert.Contains(t, stdout, "Najdôležitejšie triedy")
	assert.Contains(t, stdout, "important_classes.md")
}
