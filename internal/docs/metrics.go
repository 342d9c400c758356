package docs

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/julianshen/repodoc/internal/analyzer"
	"github.com/julianshen/repodoc/internal/parser"
)

var metricsSkipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	".tox":         true,
}

// codeMetrics summarises the repository for the README prompt.
type codeMetrics struct {
	Files     int
	Lines     int
	Classes   int
	Functions int
	// External lists the top-level modules imported from outside the project.
	External []string
	// Languages counts source files of other registered languages.
	Languages map[string]int
}

func collectMetrics(files map[string]string, repoRoot string) codeMetrics {
	m := codeMetrics{Files: len(files), Languages: map[string]int{}}

	local := localModules(files)
	external := map[string]bool{}
	psr := parser.NewParser()
	for p, content := range files {
		m.Lines += strings.Count(content, "\n") + 1
		m.Classes += len(analyzer.ExtractClassesFromSource(content))

		tree, err := psr.Parse(p, []byte(content))
		if err != nil {
			continue
		}
		m.Functions += len(tree.Functions())
		for _, imp := range tree.Imports() {
			if strings.HasPrefix(imp, ".") {
				continue
			}
			top, _, _ := strings.Cut(imp, ".")
			if top != "" && !local[top] {
				external[top] = true
			}
		}
		tree.Close()
	}
	for name := range external {
		m.External = append(m.External, name)
	}
	sort.Strings(m.External)

	if repoRoot != "" {
		_ = filepath.WalkDir(repoRoot, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if metricsSkipDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if lang := parser.Language(p); lang != "" && lang != "python" {
				m.Languages[lang]++
			}
			return nil
		})
	}
	return m
}

// localModules are the names a project file can be imported by: top-level
// directories and root-level modules.
func localModules(files map[string]string) map[string]bool {
	out := map[string]bool{}
	for p := range files {
		first, _, nested := strings.Cut(p, "/")
		if nested {
			out[first] = true
			continue
		}
		out[strings.TrimSuffix(first, path.Ext(first))] = true
	}
	return out
}

func (m codeMetrics) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Python súborov: **%d**\n- Riadkov kódu: **%d**\n- Tried: **%d**\n- Funkcií a metód: **%d**\n",
		m.Files, m.Lines, m.Classes, m.Functions)
	if len(m.External) > 0 {
		fmt.Fprintf(&b, "- Externé moduly: %s\n", strings.Join(m.External, ", "))
	}
	if len(m.Languages) > 0 {
		langs := make([]string, 0, len(m.Languages))
		for lang := range m.Languages {
			langs = append(langs, lang)
		}
		sort.Strings(langs)
		parts := make([]string, len(langs))
		for i, lang := range langs {
			parts[i] = fmt.Sprintf("%s (%d)", lang, m.Languages[lang])
		}
		fmt.Fprintf(&b, "- Ďalšie jazyky: %s\n", strings.Join(parts, ", "))
	}
	return b.String()
}
