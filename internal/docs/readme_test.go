package docs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianshen/repodoc/internal/repo"
)

func TestGenerateReadme(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "pyproject.toml"), []byte("[project]\nname = \"demo\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "cli.py"), []byte("print(1)\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "LICENSE"), []byte("MIT License\n\nCopyright\n"), 0o644))

	fake := &fakeCompleter{reply: "# Demo"}
	m := NewMaker(fake, Config{ReadmeTemperature: 0.7})
	out := filepath.Join(t.TempDir(), "docs")

	path, err := m.GenerateReadme(context.Background(), ReadmeRequest{
		Files: map[string]string{
			"b.py": "x = 1",
			"a.py": "class A:\n    pass\n",
		},
		OutDir:   out,
		RepoRoot: root,
		Metadata: &repo.Metadata{Description: "Widgets", Topics: []string{"cli", "python"}, Stars: 42, License: "MIT"},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "README.md"), path)
	assert.Equal(t, "# Demo", readFile(t, path))

	require.Len(t, fake.prompts, 1)
	prompt := fake.prompts[0]
	assert.Contains(t, prompt, "name = \"demo\"")
	assert.Contains(t, prompt, "- `a.py`\n- `b.py`")
	assert.Contains(t, prompt, "- Python súborov: **2**")
	assert.Contains(t, prompt, "- Riadkov kódu: **4**")
	assert.Contains(t, prompt, "- Tried: **1**")
	assert.Contains(t, prompt, "## Entrypoint scripts\ncli.py")
	assert.Contains(t, prompt, "## License\nMIT License")
	assert.Contains(t, prompt, "- Description: Widgets")
	assert.Contains(t, prompt, "- Topics: cli, python")
	assert.Contains(t, prompt, "- Stars: 42")
	assert.Contains(t, prompt, "- License: MIT")
	assert.Equal(t, 0.7, fake.opts[0].Temperature)
}

func TestGenerateReadmeFallbacks(t *testing.T) {
	fake := &fakeCompleter{reply: "# Demo"}
	m := NewMaker(fake, Config{})

	_, err := m.GenerateReadme(context.Background(), ReadmeRequest{
		Files:    map[string]string{},
		OutDir:   t.TempDir(),
		RepoRoot: t.TempDir(),
		Name:     "PROJECT.md",
	})
	require.NoError(t, err)

	prompt := fake.prompts[0]
	assert.Contains(t, prompt, "No pyproject.toml found.")
	assert.Contains(t, prompt, "Žiadne entrypoint skripty")
	assert.Contains(t, prompt, "Žiadny LICENSE súbor")
	assert.NotContains(t, prompt, "## Repository metadata")
}

func TestGenerateReadmeError(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("down")}
	m := NewMaker(fake, Config{})

	_, err := m.GenerateReadme(context.Background(), ReadmeRequest{OutDir: t.TempDir(), RepoRoot: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "down")
}
