// Package ranking scores the classes of a project by importance and writes
// an LLM-authored report for the top ones.
package ranking

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/julianshen/repodoc/internal/analyzer"
	"github.com/julianshen/repodoc/internal/llm"
	"github.com/julianshen/repodoc/internal/log"
)

// ClassInfo is one scored class.
type ClassInfo struct {
	File       string   `json:"file"`
	Name       string   `json:"name"`
	Code       string   `json:"-"`
	Importance float64  `json:"importance"`
	Dependents int      `json:"dependents"`
	Methods    []string `json:"methods,omitempty"`
}

// Config holds the token budget and report size.
type Config struct {
	MaxTokens       int
	MaxOutputTokens int
	Temperature     float64
	TopN            int
}

// DefaultConfig mirrors the [ranking] defaults.
func DefaultConfig() Config {
	return Config{MaxTokens: 28000, MaxOutputTokens: 500, Temperature: 0.2, TopN: 10}
}

// Finder ranks classes and describes the most important ones.
type Finder struct {
	llm   llm.Completer
	cfg   Config
	count analyzer.TokenCounter
}

// NewFinder creates a Finder.
func NewFinder(c llm.Completer, cfg Config) *Finder {
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultConfig().TopN
	}
	return &Finder{llm: c, cfg: cfg, count: analyzer.EstimateTokens}
}

// Find scores every class outside test modules and returns the top N by
// importance, highest first, one entry per class name. Ties keep file order.
func (f *Finder) Find(files map[string]string) []ClassInfo {
	logger := log.WithComponent("ranking")

	deps := analyzer.ClassDependencies(files)
	total := len(deps)
	inDegree := make(map[string]int)
	for _, targets := range deps {
		for t := range targets {
			inDegree[t]++
		}
	}

	paths := make([]string, 0, len(files))
	for p := range files {
		if strings.HasSuffix(p, ".py") && !analyzer.IsTestPath(p) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	var classes []ClassInfo
	for _, p := range paths {
		defs, err := analyzer.ExtractClassDefinitions(files[p])
		if err != nil {
			logger.Warn().Err(err).Str("file", p).Msg("skipping unparseable file")
			continue
		}
		for _, d := range defs {
			index, err := analyzer.ImportanceIndex(d.Code, inDegree[d.Name], total)
			if err != nil {
				logger.Warn().Err(err).Str("class", d.Name).Msg("skipping class")
				continue
			}
			logger.Debug().Str("class", d.Name).Float64("importance", index).Msg("scored")
			classes = append(classes, ClassInfo{
				File:       p,
				Name:       d.Name,
				Code:       d.Code,
				Importance: index,
				Dependents: inDegree[d.Name],
			})
		}
	}

	sort.SliceStable(classes, func(i, j int) bool { return classes[i].Importance > classes[j].Importance })

	// Class names are global in the dependency map, so a name defined in
	// several files is ranked once, by its highest scoring definition.
	seen := make(map[string]bool, len(classes))
	unique := classes[:0]
	for _, c := range classes {
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		unique = append(unique, c)
	}
	return unique[:min(len(unique), f.cfg.TopN)]
}

// FindAndWrite ranks the classes, asks the model to describe each of the
// top ones and writes the concatenated answers to outDir/fileName.
func (f *Finder) FindAndWrite(ctx context.Context, files map[string]string, fileName, outDir string) ([]ClassInfo, string, error) {
	logger := log.WithComponent("ranking")
	top := f.Find(files)

	var report strings.Builder
	for i := range top {
		info := &top[i]
		if sig, ok := analyzer.ExtractSignature(info.Code); ok {
			for _, m := range sig.Methods {
				info.Methods = append(info.Methods, m.Name)
			}
		}

		prompt, err := classPrompt(*info)
		if err != nil {
			return nil, "", err
		}
		maxOut := analyzer.AllowedOutput(prompt, f.cfg.MaxTokens, f.cfg.MaxOutputTokens, f.count)
		logger.Info().Str("class", info.Name).Msg("describing class")
		resp, err := f.llm.Complete(ctx, prompt, llm.Options{MaxTokens: maxOut, Temperature: f.cfg.Temperature})
		if err != nil {
			return nil, "", fmt.Errorf("describing %s: %w", info.Name, err)
		}
		report.WriteString(resp)
		report.WriteString("\n\n")
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("creating output directory: %w", err)
	}
	out := filepath.Join(outDir, fileName)
	if err := os.WriteFile(out, []byte(report.String()), 0o644); err != nil {
		return nil, "", fmt.Errorf("writing report: %w", err)
	}
	logger.Info().Str("path", out).Int("classes", len(top)).Msg("report written")
	return top, out, nil
}

var classTmpl = template.Must(template.New("class").Parse(`
Si expert v analýze softvérového kódu.
Analyzuj nasledujúcu triedu:

# {{.Name}} (Index: {{.Importance}})

**Súbor:** {{.File}}

### Metódy
{{.MethodList}}

### Metriky
- Počet definovaných metód: {{.MethodCount}}
- Počet tried, ktoré závisia od tejto triedy (in-degree): {{.Dependents}}
(Hodnota 0 znamená, že žiadna iná trieda v projekte túto triedu nevyužíva, hoci samotná trieda môže závisieť
na iných triedach.)
- Komplexita a veľkosť: (už započítaná v Indexe)

Na základe počtu metód a volaní metód, počtu tried ktoré na nej závisia uveď, prečo je táto trieda dôležitá.
Výstup musí presne dodržať túto šablónu:

# {{.Name}}

## Popis
- Stručný popis hlavnej funkcionality triedy (1-2 vety)

## Použitie
` + "```python" + `
# Ukážkový kód základného použitia triedy
` + "```" + `

## Dôležitosť
- Vysvetlenie prečo je trieda dôležitá na základe:
  - Počtu metód
  - Komplexnosti kódu
  - Počtu tried, ktoré majú túto triedu vo svojich závislostiach (ak je 0, žiadna iná trieda ju nevyužíva,
  hoci ona sama môže závisieť na iných triedach)


Celý výsledok musí byť v slovenskom jazyku a dodržať presne tento Markdown formát.
Maš zakázané používať iné formátovanie ako je toto a písať iné časti dokumentácie vrátane nadpisov a podnadpisov, ktoré
sa nenachádzajú v šablóne.
`))

func classPrompt(info ClassInfo) (string, error) {
	methods := "- žiadne"
	if len(info.Methods) > 0 {
		methods = "- " + strings.Join(info.Methods, "\n- ")
	}
	var buf bytes.Buffer
	err := classTmpl.Execute(&buf, struct {
		Name, File, MethodList  string
		Importance              string
		MethodCount, Dependents int
	}{
		Name:        info.Name,
		File:        info.File,
		MethodList:  methods,
		Importance:  formatIndex(info.Importance),
		MethodCount: len(info.Methods),
		Dependents:  info.Dependents,
	})
	if err != nil {
		return "", fmt.Errorf("rendering class prompt: %w", err)
	}
	return buf.String(), nil
}

// formatIndex prints an index the way it is shown to users: always with a
// decimal part.
func formatIndex(v float64) string {
	s := fmt.Sprintf("%g", v)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
