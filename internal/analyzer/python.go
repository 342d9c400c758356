// Package analyzer performs lightweight static analysis of Python source on
// top of tree-sitter syntax trees: splitting files into documentation
// blocks, extracting classes and their members, computing per-class metrics
// and building the class dependency graph used for ranking and diagrams.
package analyzer

import (
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/julianshen/repodoc/internal/parser"
)

// ErrParse is returned when source code cannot be parsed as Python.
var ErrParse = errors.New("python syntax error")

var psr = parser.NewParser()

// pySource is a dedented, parsed Python snippet.
type pySource struct {
	tree *parser.Tree
	src  []byte
}

// parsePython dedents and parses src. Trees containing syntax errors are
// rejected with ErrParse. Callers must Close the result.
func parsePython(src string) (*pySource, error) {
	dedented := []byte(Dedent(src))
	tree, err := psr.ParsePython(dedented)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if tree.HasError() {
		tree.Close()
		return nil, ErrParse
	}
	return &pySource{tree: tree, src: dedented}, nil
}

func (p *pySource) Close() { p.tree.Close() }

func (p *pySource) root() *sitter.Node { return p.tree.RootNode() }

func (p *pySource) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(p.src)
}

// startRow and endRow return 0-based inclusive rows of a node.
func startRow(n *sitter.Node) int { return int(n.StartPoint().Row) }

func endRow(n *sitter.Node) int {
	end := n.EndPoint()
	if end.Column == 0 && end.Row > n.StartPoint().Row {
		return int(end.Row) - 1
	}
	return int(end.Row)
}

// namedChildren returns the named children of n.
func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		if c := n.NamedChild(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// unwrapDefinition returns the class or function node behind a
// decorated_definition, or n itself.
func unwrapDefinition(n *sitter.Node) *sitter.Node {
	if n != nil && n.Type() == "decorated_definition" {
		if def := n.ChildByFieldName("definition"); def != nil {
			return def
		}
	}
	return n
}

// decorators returns the decorator expressions attached to a class or
// function definition.
func decorators(def *sitter.Node) []*sitter.Node {
	parent := def.Parent()
	if parent == nil || parent.Type() != "decorated_definition" {
		return nil
	}
	var out []*sitter.Node
	for _, c := range namedChildren(parent) {
		if c.Type() != "decorator" {
			continue
		}
		if kids := namedChildren(c); len(kids) > 0 {
			out = append(out, kids[0])
		}
	}
	return out
}

// topLevel returns the definitions of the given type directly in the module body.
func (p *pySource) topLevel(nodeType string) []*sitter.Node {
	var out []*sitter.Node
	for _, stmt := range namedChildren(p.root()) {
		if def := unwrapDefinition(stmt); def.Type() == nodeType {
			out = append(out, def)
		}
	}
	return out
}

// bodyMembers returns the statements of a class or function body, with
// decorated definitions unwrapped.
func bodyMembers(def *sitter.Node) []*sitter.Node {
	body := def.ChildByFieldName("body")
	var out []*sitter.Node
	for _, stmt := range namedChildren(body) {
		out = append(out, unwrapDefinition(stmt))
	}
	return out
}

// findAll collects every node of the given type under n, n included, in
// depth-first pre-order.
func findAll(n *sitter.Node, nodeType string) []*sitter.Node {
	var out []*sitter.Node
	parser.Walk(n, func(c *sitter.Node) {
		if c.Type() == nodeType {
			out = append(out, c)
		}
	})
	return out
}

// assignments returns the assignment nodes of an expression statement,
// following chained targets (a = b = value).
func assignments(stmt *sitter.Node) []*sitter.Node {
	if stmt.Type() != "expression_statement" {
		return nil
	}
	var out []*sitter.Node
	for _, c := range namedChildren(stmt) {
		for a := c; a != nil && a.Type() == "assignment"; a = a.ChildByFieldName("right") {
			out = append(out, a)
		}
	}
	return out
}

// assignedValue returns the value finally assigned by a, looking through
// chained targets such as a = b = value.
func assignedValue(a *sitter.Node) *sitter.Node {
	value := a.ChildByFieldName("right")
	for value != nil && value.Type() == "assignment" {
		value = value.ChildByFieldName("right")
	}
	return value
}

// isPlainAssignment reports whether an assignment node has no annotation,
// matching Python's ast.Assign rather than ast.AnnAssign.
func isPlainAssignment(a *sitter.Node) bool {
	return a.ChildByFieldName("type") == nil && a.ChildByFieldName("right") != nil
}

// selfAttribute returns the attribute name of a `self.<name>` node, or "".
func (p *pySource) selfAttribute(n *sitter.Node) string {
	if n == nil || n.Type() != "attribute" {
		return ""
	}
	obj := n.ChildByFieldName("object")
	if obj == nil || obj.Type() != "identifier" || p.text(obj) != "self" {
		return ""
	}
	return p.text(n.ChildByFieldName("attribute"))
}

// identifierOf returns the identifier text of n, or "" when n is not a bare name.
func (p *pySource) identifierOf(n *sitter.Node) string {
	if n == nil || n.Type() != "identifier" {
		return ""
	}
	return p.text(n)
}

// annotationName returns the bare name of a type annotation node.
func (p *pySource) annotationName(typeNode *sitter.Node) string {
	if typeNode == nil {
		return ""
	}
	if typeNode.Type() == "identifier" {
		return p.text(typeNode)
	}
	if typeNode.Type() == "type" {
		if kids := namedChildren(typeNode); len(kids) == 1 {
			return p.identifierOf(kids[0])
		}
	}
	return ""
}

// positionalParams returns the names of a function's regular positional
// parameters: those after any "/" marker and before any "*" or *args.
func (p *pySource) positionalParams(fn *sitter.Node) []paramInfo {
	var out []paramInfo
	for _, param := range namedChildren(fn.ChildByFieldName("parameters")) {
		switch param.Type() {
		case "positional_separator":
			out = out[:0]
		case "keyword_separator", "list_splat_pattern", "dictionary_splat_pattern":
			return out
		case "identifier":
			out = append(out, paramInfo{name: p.text(param)})
		case "default_parameter":
			out = append(out, paramInfo{name: p.text(param.ChildByFieldName("name"))})
		case "typed_default_parameter":
			out = append(out, paramInfo{
				name:       p.text(param.ChildByFieldName("name")),
				annotation: p.annotationName(param.ChildByFieldName("type")),
			})
		case "typed_parameter":
			kids := namedChildren(param)
			if len(kids) == 0 {
				continue
			}
			switch kids[0].Type() {
			case "list_splat_pattern", "dictionary_splat_pattern":
				return out
			}
			out = append(out, paramInfo{
				name:       p.text(kids[0]),
				annotation: p.annotationName(param.ChildByFieldName("type")),
			})
		}
	}
	return out
}

type paramInfo struct {
	name       string
	annotation string
}
