package analyzer

import (
	"fmt"
	"math"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/julianshen/repodoc/internal/log"
	"github.com/julianshen/repodoc/internal/parser"
)

// ClassDef is a class found in a source file together with its source lines.
type ClassDef struct {
	Name string
	Code string
}

// Method is a method name with its positional arguments, self excluded.
type Method struct {
	Name string   `json:"name"`
	Args []string `json:"args"`
}

// Signature summarises the public shape of a class.
type Signature struct {
	Name       string   `json:"class_name"`
	Attributes []string `json:"attributes"`
	Methods    []Method `json:"methods"`
}

// ExtractClassDefinitions returns every class in src, nested classes
// included, in source order.
func ExtractClassDefinitions(src string) ([]ClassDef, error) {
	ps, err := parsePython(src)
	if err != nil {
		return nil, err
	}
	defer ps.Close()

	lines := SplitLines(src)
	var defs []ClassDef
	for _, cls := range findAll(ps.root(), "class_definition") {
		start, end := startRow(cls), min(endRow(cls)+1, len(lines))
		defs = append(defs, ClassDef{
			Name: ps.text(cls.ChildByFieldName("name")),
			Code: strings.Join(lines[start:end], "\n"),
		})
	}
	return defs, nil
}

// ExtractClassesFromSource returns the names of all classes defined in src.
// Unparseable source yields an empty set.
func ExtractClassesFromSource(src string) map[string]bool {
	names := make(map[string]bool)
	ps, err := parsePython(src)
	if err != nil {
		return names
	}
	defer ps.Close()

	for _, cls := range findAll(ps.root(), "class_definition") {
		names[ps.text(cls.ChildByFieldName("name"))] = true
	}
	return names
}

// AllClassNames collects the class names defined across files. Files that
// fail to parse are logged and skipped.
func AllClassNames(files map[string]string) map[string]bool {
	logger := log.WithComponent("analyzer")
	all := make(map[string]bool)
	for path, content := range files {
		defs, err := ExtractClassDefinitions(content)
		if err != nil {
			logger.Error().Err(err).Str("file", path).Msg("extracting classes")
			continue
		}
		for _, d := range defs {
			all[d.Name] = true
		}
	}
	return all
}

// CountAttributes counts the distinct attributes of the top-level classes in
// classCode: names assigned directly in the class body plus self.<name>
// targets assigned anywhere inside its methods. Returns 0 on a parse error.
func CountAttributes(classCode string) int {
	ps, err := parsePython(classCode)
	if err != nil {
		return 0
	}
	defer ps.Close()

	found := make(map[string]bool)
	for _, cls := range ps.topLevel("class_definition") {
		for _, item := range bodyMembers(cls) {
			for _, a := range assignments(item) {
				if !isPlainAssignment(a) {
					continue
				}
				if name := ps.identifierOf(a.ChildByFieldName("left")); name != "" {
					found[name] = true
				}
			}
			if item.Type() == "function_definition" {
				for name := range ps.selfAssignments(item) {
					found[name] = true
				}
			}
		}
	}
	return len(found)
}

// selfAssignments returns the self.<name> targets of plain assignments
// anywhere below fn.
func (p *pySource) selfAssignments(fn *sitter.Node) map[string]bool {
	out := make(map[string]bool)
	for _, a := range findAll(fn, "assignment") {
		if !isPlainAssignment(a) {
			continue
		}
		if name := p.selfAttribute(a.ChildByFieldName("left")); name != "" {
			out[name] = true
		}
	}
	return out
}

var branchNodes = map[string]bool{
	"if_statement":    true,
	"elif_clause":     true,
	"for_statement":   true,
	"while_statement": true,
	"try_statement":   true,
	"with_statement":  true,
}

// CyclomaticComplexity is 1 plus one per if, elif, for, while, try and
// with statement. Returns 0 on a parse error.
func CyclomaticComplexity(classCode string) int {
	ps, err := parsePython(classCode)
	if err != nil {
		return 0
	}
	defer ps.Close()

	complexity := 1
	parser.Walk(ps.root(), func(n *sitter.Node) {
		if branchNodes[n.Type()] {
			complexity++
		}
	})
	return complexity
}

// ImportanceIndex scores a class by size, coupling and how many other
// classes depend on it. The result is rounded to two decimals.
func ImportanceIndex(classCode string, dependents, totalClasses int) (float64, error) {
	ps, err := parsePython(classCode)
	if err != nil {
		return 0, fmt.Errorf("importance index: %w", err)
	}
	methods := len(findAll(ps.root(), "function_definition"))
	calls := len(findAll(ps.root(), "call"))
	ps.Close()

	loc := float64(len(SplitLines(classCode)))
	normDependents := math.Pow(float64(dependents)/float64(max(1, totalClasses)), 1.5)

	index := 0.25*float64(methods) +
		0.15*float64(calls) +
		0.10*(loc/10.0) +
		0.10*float64(CountAttributes(classCode)) +
		0.10*float64(CyclomaticComplexity(classCode)) +
		0.30*normDependents
	return math.Round(index*100) / 100, nil
}

// FindImports returns the unique import lines of src, unmodified and in
// order of first appearance, joined by newlines.
func FindImports(src string) string {
	seen := make(map[string]bool)
	var imports []string
	for _, line := range SplitLines(src) {
		stripped := strings.TrimSpace(line)
		if !strings.HasPrefix(stripped, "import ") && !strings.HasPrefix(stripped, "from ") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			imports = append(imports, line)
		}
	}
	return strings.Join(imports, "\n")
}

// SplitClassForDiagrams cuts the code of one class into segments of about
// maxLines lines without splitting methods. The class header goes into the
// first segment and trailing lines after the last method into the last one.
// The import lines found in classCode are prepended to every segment that
// does not already contain them. Code that does not parse, or has no class
// or no methods, is cut into plain fixed-size chunks.
func SplitClassForDiagrams(classCode string, maxLines int) []string {
	lines := SplitLines(classCode)
	if len(lines) <= maxLines {
		return []string{classCode}
	}
	imports := FindImports(classCode)

	ps, err := parsePython(classCode)
	if err != nil {
		log.WithComponent("analyzer").Error().Err(err).Msg("parsing class for diagram segments")
		return chunkLines(lines, maxLines)
	}
	defer ps.Close()

	classes := ps.topLevel("class_definition")
	if len(classes) == 0 {
		return chunkLines(lines, maxLines)
	}

	type span struct{ start, end int }
	var methods []span
	for _, stmt := range namedChildren(classes[0].ChildByFieldName("body")) {
		if unwrapDefinition(stmt).Type() != "function_definition" {
			continue
		}
		// Decorators stay with their method.
		methods = append(methods, span{startRow(stmt), min(endRow(stmt)+1, len(lines))})
	}
	if len(methods) == 0 {
		return chunkLines(lines, maxLines)
	}
	sort.SliceStable(methods, func(i, j int) bool { return methods[i].start < methods[j].start })

	var segments []string
	var current []string

	if header := strings.TrimSpace(strings.Join(lines[:methods[0].start], "\n")); header != "" {
		current = append(current, SplitLines(header)...)
	}

	for _, m := range methods {
		body := lines[m.start:m.end]
		if len(current)+len(body) <= maxLines {
			current = append(current, body...)
			continue
		}
		if len(current) > 0 {
			segments = append(segments, strings.Join(current, "\n"))
		}
		current = append([]string(nil), body...)
	}

	if last := methods[len(methods)-1].end; last < len(lines) {
		tail := lines[last:]
		if len(current)+len(tail) <= maxLines {
			current = append(current, tail...)
		} else {
			if len(current) > 0 {
				segments = append(segments, strings.Join(current, "\n"))
			}
			current = append([]string(nil), tail...)
		}
	}
	if len(current) > 0 {
		segments = append(segments, strings.Join(current, "\n"))
	}

	if imports != "" {
		for i, seg := range segments {
			if !strings.Contains(seg, imports) {
				segments[i] = imports + "\n\n" + seg
			}
		}
	}
	return segments
}

func chunkLines(lines []string, size int) []string {
	var out []string
	for i := 0; i < len(lines); i += size {
		out = append(out, strings.Join(lines[i:min(i+size, len(lines))], "\n"))
	}
	return out
}

// ExtractSignature describes the first top-level class in classCode. The
// boolean is false when the code does not parse or defines no class.
func ExtractSignature(classCode string) (Signature, bool) {
	ps, err := parsePython(classCode)
	if err != nil {
		log.WithComponent("analyzer").Debug().Err(err).Msg("extracting class signature")
		return Signature{}, false
	}
	defer ps.Close()

	classes := ps.topLevel("class_definition")
	if len(classes) == 0 {
		return Signature{}, false
	}
	cls := classes[0]

	sig := Signature{
		Name:       ps.text(cls.ChildByFieldName("name")),
		Attributes: []string{},
		Methods:    []Method{},
	}
	attrs := make(map[string]bool)
	for _, item := range bodyMembers(cls) {
		if item.Type() != "function_definition" {
			continue
		}
		m := Method{Name: ps.text(item.ChildByFieldName("name")), Args: []string{}}
		for _, param := range ps.positionalParams(item) {
			if param.name != "self" {
				m.Args = append(m.Args, param.name)
			}
		}
		sig.Methods = append(sig.Methods, m)

		for name := range ps.selfAssignments(item) {
			attrs[name] = true
		}
	}
	for name := range attrs {
		sig.Attributes = append(sig.Attributes, name)
	}
	sort.Strings(sig.Attributes)
	return sig, true
}
