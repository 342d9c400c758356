package docs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectMetrics(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"web/app.js", "web/util.js", "tools/gen.go", "node_modules/lib/x.js", "README.md"} {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("\n"), 0o644))
	}

	files := map[string]string{
		"pkg/models.py": "import os, sys\nimport requests as rq\nfrom pkg.util import helper\nfrom . import local\n\n\nclass Car:\n    def drive(self):\n        pass\n",
		"pkg/util.py":   "from pathlib import Path\n\n\ndef helper():\n    return Path('.')\n",
		"main.py":       "import main\nimport yaml.loader\n",
	}

	m := collectMetrics(files, root)

	assert.Equal(t, 3, m.Files)
	assert.Equal(t, 1, m.Classes)
	assert.Equal(t, 2, m.Functions)
	assert.Equal(t, []string{"os", "pathlib", "requests", "sys", "yaml"}, m.External)
	assert.Equal(t, map[string]int{"javascript": 2, "go": 1}, m.Languages)

	s := m.String()
	assert.Contains(t, s, "- Funkcií a metód: **2**\n")
	assert.Contains(t, s, "- Externé moduly: os, pathlib, requests, sys, yaml\n")
	assert.Contains(t, s, "- Ďalšie jazyky: go (1), javascript (2)\n")
}

func TestCollectMetricsWithoutRoot(t *testing.T) {
	m := collectMetrics(map[string]string{"a.py": "x = 1"}, "")
	assert.Equal(t, "- Python súborov: **1**\n- Riadkov kódu: **1**\n- Tried: **0**\n- Funkcií a metód: **0**\n", m.String())
}
