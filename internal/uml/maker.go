// Package uml builds PlantUML class and method-dependency diagrams for
// Python projects and renders them through a PlantUML server.
package uml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/julianshen/repodoc/internal/analyzer"
	"github.com/julianshen/repodoc/internal/llm"
	"github.com/julianshen/repodoc/internal/log"
	"github.com/julianshen/repodoc/internal/ranking"
)

var (
	// ErrInvalidFormat is returned for output formats other than png, svg
	// and txt.
	ErrInvalidFormat = errors.New("invalid diagram format")
	// ErrUnparsedRelationships is returned when no attempt produced a
	// usable JSON reply.
	ErrUnparsedRelationships = errors.New("nepodarilo sa naparsovať validnú JSON odpoveď po niekoľkých pokusoch")
)

// AllowedFormats are the image formats a PlantUML server can produce here.
var AllowedFormats = []string{"png", "svg", "txt"}

// Relationship kinds, strongest first.
const (
	Inheritance = "inheritance"
	Aggregation = "aggregation"
	Association = "association"
)

var relationPriority = map[string]int{Inheritance: 3, Aggregation: 2, Association: 1}

// mergeRelation keeps the stronger of two relationship kinds.
func mergeRelation(existing, next string) string {
	if relationPriority[existing] >= relationPriority[next] {
		return existing
	}
	return next
}

// Relation is one edge of the class diagram.
type Relation struct {
	Source string
	Arrow  string
	Target string
	Type   string
}

func (r Relation) String() string {
	return fmt.Sprintf("%s %s %s : %s", r.Source, r.Arrow, r.Target, r.Type)
}

// Diagram is generated PlantUML source and, when rendering worked, the
// image it was written to.
type Diagram struct {
	Source string
	Path   string
}

// Config holds budgets, limits and output settings.
type Config struct {
	MaxTokens       int
	MaxOutputTokens int
	Temperature     float64
	SegmentMaxLines int
	MaxAttempts     int
	Concurrency     int
	OutputDir       string
	Format          string
}

// DefaultConfig mirrors the [uml] defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:       28000,
		MaxOutputTokens: 3500,
		SegmentMaxLines: 2500,
		MaxAttempts:     5,
		Concurrency:     5,
		OutputDir:       "uml_diagrams",
		Format:          "svg",
	}
}

// Maker collects class blocks and relations and assembles diagrams.
type Maker struct {
	llm      llm.Completer
	renderer Renderer
	cfg      Config
	count    analyzer.TokenCounter

	mu        sync.Mutex
	classDefs map[string]string
	defOrder  []string
	relations map[Relation]bool
}

// NewMaker validates the output format and creates the output directory.
func NewMaker(c llm.Completer, r Renderer, cfg Config) (*Maker, error) {
	cfg.Format = strings.ToLower(cfg.Format)
	if !slices.Contains(AllowedFormats, cfg.Format) {
		return nil, fmt.Errorf("%w %q, allowed: %s", ErrInvalidFormat, cfg.Format, strings.Join(AllowedFormats, ", "))
	}
	def := DefaultConfig()
	if cfg.SegmentMaxLines <= 0 {
		cfg.SegmentMaxLines = def.SegmentMaxLines
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating diagram directory: %w", err)
	}
	log.WithComponent("uml").Info().Str("dir", cfg.OutputDir).Msg("diagram maker ready")

	m := &Maker{llm: c, renderer: r, cfg: cfg, count: analyzer.EstimateTokens}
	m.Reset()
	return m, nil
}

// Reset forgets every collected class block and relation.
func (m *Maker) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.classDefs = make(map[string]string)
	m.defOrder = nil
	m.relations = make(map[Relation]bool)
}

func (m *Maker) options(prompt string) llm.Options {
	return llm.Options{
		MaxTokens:   analyzer.AllowedOutput(prompt, m.cfg.MaxTokens, m.cfg.MaxOutputTokens, m.count),
		Temperature: m.cfg.Temperature,
	}
}

// SegmentRelationships asks the model which project classes a class segment
// relates to. Replies are retried until one parses as JSON. Keys that are
// not project classes, the class itself and unknown kinds are dropped.
func (m *Maker) SegmentRelationships(ctx context.Context, segment, className string, projectClasses map[string]bool) (map[string]string, error) {
	logger := log.WithComponent("uml")
	prompt, err := render(segmentTmpl, struct{ ClassName, Code string }{className, segment})
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= m.cfg.MaxAttempts; attempt++ {
		reply, err := m.llm.Complete(ctx, prompt, m.options(prompt))
		if err != nil {
			return nil, fmt.Errorf("relationship request: %w", err)
		}
		parsed, err := llm.ExtractJSON(reply)
		if err != nil {
			logger.Warn().Err(err).Int("attempt", attempt).Str("class", className).Msg("invalid JSON, retrying")
			continue
		}

		out := make(map[string]string)
		for other, v := range parsed {
			kind, ok := v.(string)
			kind = strings.ToLower(strings.TrimSpace(kind))
			if !ok || relationPriority[kind] == 0 || other == className || !projectClasses[other] {
				continue
			}
			out[other] = kind
		}
		return out, nil
	}
	return nil, ErrUnparsedRelationships
}

// ClassRelationships splits a class into segments, analyses them
// concurrently and merges the results, the stronger kind winning when
// segments disagree. Failed segments are logged and skipped.
func (m *Maker) ClassRelationships(ctx context.Context, classCode, className string, files map[string]string) map[string]string {
	logger := log.WithComponent("uml")
	segments := analyzer.SplitClassForDiagrams(classCode, m.cfg.SegmentMaxLines)
	projectClasses := analyzer.AllClassNames(files)

	var mu sync.Mutex
	combined := make(map[string]string)

	p := pool.New().WithMaxGoroutines(max(1, min(m.cfg.Concurrency, len(segments))))
	for i, seg := range segments {
		p.Go(func() {
			rels, err := m.SegmentRelationships(ctx, seg, className, projectClasses)
			if err != nil {
				logger.Error().Err(err).Str("class", className).Int("segment", i).Msg("segment failed")
				return
			}
			mu.Lock()
			defer mu.Unlock()
			for other, kind := range rels {
				if existing, ok := combined[other]; ok {
					kind = mergeRelation(existing, kind)
				}
				combined[other] = kind
			}
		})
	}
	p.Wait()
	return combined
}

// ClassPlantUML asks the model for the PlantUML block of one class.
func (m *Maker) ClassPlantUML(ctx context.Context, sig analyzer.Signature, rels map[string]string) (string, error) {
	prompt, err := classPrompt(sig, rels)
	if err != nil {
		return "", err
	}
	log.WithComponent("uml").Info().Str("class", sig.Name).Msg("generating PlantUML")
	reply, err := m.llm.Complete(ctx, prompt, m.options(prompt))
	if err != nil {
		return "", fmt.Errorf("plantuml request for %s: %w", sig.Name, err)
	}
	return llm.ExtractPlantUML(strings.TrimSpace(reply)), nil
}

var relationLineRe = regexp.MustCompile(`^(\w+)\s+([^\s:]+)\s+(\w+)`)

// AddClassDiagram stores the class block for className found in puml and
// every relation line in it. A relation's kind comes from relTypes for its
// target, otherwise from the arrow shape.
func (m *Maker) AddClassDiagram(className, puml string, relTypes map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	blockRe := regexp.MustCompile(`class\s+` + regexp.QuoteMeta(className) + `\s*\{[\s\S]*?\}`)
	if block := blockRe.FindString(puml); block != "" {
		if _, seen := m.classDefs[className]; !seen {
			m.defOrder = append(m.defOrder, className)
		}
		m.classDefs[className] = block
	}

	for _, line := range strings.Split(puml, "\n") {
		text := strings.TrimSpace(line)
		if text == "" || strings.HasPrefix(text, "class ") || strings.HasPrefix(text, "interface ") || strings.HasPrefix(text, "enum ") {
			continue
		}
		match := relationLineRe.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		src, arrow, tgt := match[1], match[2], match[3]

		kind := relTypes[tgt]
		if kind == "" {
			switch {
			case strings.Contains(arrow, "<|--"):
				kind = Inheritance
			case strings.Contains(arrow, "o--"), strings.Contains(arrow, "*--"):
				kind = Aggregation
			default:
				kind = Association
			}
		}
		m.relations[Relation{Source: src, Arrow: arrow, Target: tgt, Type: kind}] = true
	}
}

// BuildDiagram assembles every stored class block followed by the sorted
// relations.
func (m *Maker) BuildDiagram() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	parts := []string{"@startuml"}
	for _, name := range m.defOrder {
		parts = append(parts, m.classDefs[name])
	}

	rels := make([]Relation, 0, len(m.relations))
	for r := range m.relations {
		rels = append(rels, r)
	}
	sort.Slice(rels, func(i, j int) bool {
		a, b := rels[i], rels[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Arrow != b.Arrow {
			return a.Arrow < b.Arrow
		}
		if a.Target != b.Target {
			return a.Target < b.Target
		}
		return a.Type < b.Type
	})
	for _, r := range rels {
		parts = append(parts, r.String())
	}
	parts = append(parts, "@enduml")
	return strings.Join(parts, "\n")
}

// ClassDiagram draws the given classes and the relations among them. Class
// attributes are left out. A rendering failure is logged and the source is
// still returned.
func (m *Maker) ClassDiagram(ctx context.Context, classes []ranking.ClassInfo, files map[string]string) (Diagram, error) {
	logger := log.WithComponent("uml")
	m.Reset()

	top := make(map[string]bool, len(classes))
	for _, c := range classes {
		top[c.Name] = true
	}

	for _, c := range classes {
		if c.Code == "" {
			logger.Warn().Str("class", c.Name).Msg("no code for class, skipping")
			continue
		}

		rels := m.ClassRelationships(ctx, c.Code, c.Name, files)
		for other := range rels {
			if !top[other] {
				delete(rels, other)
			}
		}

		sig, ok := analyzer.ExtractSignature(c.Code)
		if !ok {
			sig = analyzer.Signature{Name: c.Name}
		}
		sig.Attributes = nil

		puml, err := m.ClassPlantUML(ctx, sig, rels)
		if err != nil {
			return Diagram{}, err
		}
		m.AddClassDiagram(c.Name, puml, rels)
	}

	d := Diagram{Source: m.BuildDiagram()}
	d.Path = m.write(ctx, d.Source, "uml_class_diagram")
	return d, nil
}

// write renders source into OutputDir/<name>.<format> and returns the path,
// or "" when rendering or writing failed.
func (m *Maker) write(ctx context.Context, source, name string) string {
	logger := log.WithComponent("uml")
	if m.renderer == nil {
		return ""
	}
	image, err := m.renderer.Render(ctx, source)
	if err != nil {
		logger.Error().Err(err).Str("diagram", name).Msg("rendering diagram failed")
		return ""
	}
	out := filepath.Join(m.cfg.OutputDir, name+"."+m.cfg.Format)
	if err := os.WriteFile(out, image, 0o644); err != nil {
		logger.Error().Err(err).Str("path", out).Msg("writing diagram failed")
		return ""
	}
	logger.Info().Str("path", out).Msg("diagram generated")
	return out
}
