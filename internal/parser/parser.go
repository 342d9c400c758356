// Package parser provides tree-sitter-based source parsing with language
// detection from file extensions. Python is the primary target: its trees
// feed the analyzer package, while the other registered languages are only
// used for file-level metrics.
package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// FunctionDef represents a function or method definition found in source code.
// Lines are 1-indexed.
type FunctionDef struct {
	Name      string
	StartLine int
	EndLine   int
}

// ClassDef represents a class definition found in source code. Lines are 1-indexed.
type ClassDef struct {
	Name      string
	StartLine int
	EndLine   int
}

// langInfo holds tree-sitter language metadata including which node types
// represent functions, classes and imports for a given language.
type langInfo struct {
	name            string
	lang            *sitter.Language
	funcNodeTypes   []string
	classNodeTypes  []string
	importNodeTypes []string
}

var pythonInfo = langInfo{
	name:            "python",
	lang:            python.GetLanguage(),
	funcNodeTypes:   []string{"function_definition"},
	classNodeTypes:  []string{"class_definition"},
	importNodeTypes: []string{"import_statement", "import_from_statement"},
}

// registry maps file extensions to language info.
var registry = map[string]langInfo{
	".py":  pythonInfo,
	".pyi": pythonInfo,
	".go": {
		name:            "go",
		lang:            golang.GetLanguage(),
		funcNodeTypes:   []string{"function_declaration", "method_declaration"},
		classNodeTypes:  []string{"type_spec"},
		importNodeTypes: []string{"import_declaration"},
	},
	".js": {
		name:            "javascript",
		lang:            javascript.GetLanguage(),
		funcNodeTypes:   []string{"function_declaration"},
		classNodeTypes:  []string{"class_declaration"},
		importNodeTypes: []string{"import_statement"},
	},
	".ts": {
		name:            "typescript",
		lang:            typescript.GetLanguage(),
		funcNodeTypes:   []string{"function_declaration"},
		classNodeTypes:  []string{"class_declaration"},
		importNodeTypes: []string{"import_statement"},
	},
	".java": {
		name:            "java",
		lang:            java.GetLanguage(),
		funcNodeTypes:   []string{"method_declaration", "constructor_declaration"},
		classNodeTypes:  []string{"class_declaration", "interface_declaration"},
		importNodeTypes: []string{"import_declaration"},
	},
}

// Language returns the registered language name for filename, or "" when
// the extension is unknown.
func Language(filename string) string {
	info, ok := registry[strings.ToLower(filepath.Ext(filename))]
	if !ok {
		return ""
	}
	return info.name
}

// Parser parses source files with automatic language detection. A Parser is
// safe for concurrent use: every call allocates its own tree-sitter parser.
type Parser struct{}

// NewParser creates a new Parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses source code from the given filename, auto-detecting the language
// from the file extension. Returns an error for unsupported extensions.
func (p *Parser) Parse(filename string, source []byte) (*Tree, error) {
	return p.ParseCtx(context.Background(), filename, source)
}

// ParseCtx is Parse with a caller-supplied context.
func (p *Parser) ParseCtx(ctx context.Context, filename string, source []byte) (*Tree, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	info, ok := registry[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file extension %q: language not in registry", ext)
	}
	return parseWith(ctx, info, filename, source)
}

// ParsePython parses source as Python regardless of any file name.
func (p *Parser) ParsePython(source []byte) (*Tree, error) {
	return parseWith(context.Background(), pythonInfo, "<python>", source)
}

func parseWith(ctx context.Context, info langInfo, filename string, source []byte) (*Tree, error) {
	inner := sitter.NewParser()
	defer inner.Close()
	inner.SetLanguage(info.lang)

	sitterTree, err := inner.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	return &Tree{
		tree:   sitterTree,
		source: source,
		info:   info,
	}, nil
}

// Tree wraps a parsed tree-sitter syntax tree with convenience methods.
type Tree struct {
	tree   *sitter.Tree
	source []byte
	info   langInfo
}

// RootNode returns the root node of the parsed syntax tree.
func (t *Tree) RootNode() *sitter.Node {
	return t.tree.RootNode()
}

// Source returns the bytes the tree was parsed from.
func (t *Tree) Source() []byte {
	return t.source
}

// HasError reports whether the tree contains syntax errors.
func (t *Tree) HasError() bool {
	return t.RootNode().HasError()
}

// Close releases the underlying tree-sitter tree.
func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
	}
}

// Functions extracts all function and method definitions from the syntax tree.
func (t *Tree) Functions() []FunctionDef {
	var funcs []FunctionDef
	funcTypes := toSet(t.info.funcNodeTypes)

	Walk(t.RootNode(), func(node *sitter.Node) {
		if !funcTypes[node.Type()] {
			return
		}
		name := extractName(node, t.source)
		if name == "" {
			return
		}
		funcs = append(funcs, FunctionDef{
			Name:      name,
			StartLine: int(node.StartPoint().Row) + 1,
			EndLine:   int(node.EndPoint().Row) + 1,
		})
	})

	return funcs
}

// Classes extracts all class-like definitions, nested ones included.
func (t *Tree) Classes() []ClassDef {
	var classes []ClassDef
	classTypes := toSet(t.info.classNodeTypes)

	Walk(t.RootNode(), func(node *sitter.Node) {
		if !classTypes[node.Type()] {
			return
		}
		name := extractName(node, t.source)
		if name == "" {
			return
		}
		classes = append(classes, ClassDef{
			Name:      name,
			StartLine: int(node.StartPoint().Row) + 1,
			EndLine:   int(node.EndPoint().Row) + 1,
		})
	})

	return classes
}

// Imports extracts import paths/module names from the syntax tree.
func (t *Tree) Imports() []string {
	var imports []string
	importTypes := toSet(t.info.importNodeTypes)

	Walk(t.RootNode(), func(node *sitter.Node) {
		if !importTypes[node.Type()] {
			return
		}
		imports = append(imports, extractImportPaths(node, t.source)...)
	})

	return imports
}

// Walk performs a depth-first pre-order traversal of the syntax tree,
// calling fn for each node.
func Walk(node *sitter.Node, fn func(*sitter.Node)) {
	if node == nil {
		return
	}
	fn(node)
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child != nil {
			Walk(child, fn)
		}
	}
}

func toSet(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

// extractName returns the "name" field of a definition node.
func extractName(node *sitter.Node, source []byte) string {
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return nameNode.Content(source)
	}
	return ""
}

// extractImportPaths returns clean module/package paths for an import node.
func extractImportPaths(node *sitter.Node, source []byte) []string {
	text := node.Content(source)

	switch node.Type() {
	case "import_declaration":
		// Go: import "fmt" or import ( "fmt"\n"os" ); Java: import java.util.List;
		return extractImportDeclaration(node, source)
	case "import_statement":
		// Python: import os, sys; JS/TS: import { foo } from 'bar'
		return extractGenericImport(text)
	case "import_from_statement":
		// Python: from pathlib import Path
		return extractPythonFromImport(text)
	default:
		return []string{cleanImportPath(text)}
	}
}

func extractImportDeclaration(node *sitter.Node, source []byte) []string {
	var paths []string
	seen := make(map[string]bool)

	Walk(node, func(n *sitter.Node) {
		var content string
		switch n.Type() {
		case "interpreted_string_literal":
			content = cleanImportPath(n.Content(source))
		case "scoped_identifier":
			// Only the outermost scoped_identifier; nested ones are prefixes.
			if n.Parent() != nil && n.Parent().Type() == "scoped_identifier" {
				return
			}
			content = n.Content(source)
		default:
			return
		}
		if content != "" && !seen[content] {
			seen[content] = true
			paths = append(paths, content)
		}
	})
	return paths
}

func extractGenericImport(text string) []string {
	if strings.Contains(text, " from ") {
		parts := strings.SplitN(text, " from ", 2)
		return []string{cleanImportPath(parts[1])}
	}

	text = strings.TrimSpace(strings.TrimPrefix(text, "import "))
	var result []string
	for _, p := range strings.Split(text, ",") {
		if idx := strings.Index(p, " as "); idx >= 0 {
			p = p[:idx]
		}
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

func extractPythonFromImport(text string) []string {
	text = strings.TrimPrefix(text, "from ")
	parts := strings.SplitN(text, " import ", 2)
	if module := strings.TrimSpace(parts[0]); module != "" {
		return []string{module}
	}
	return nil
}

func cleanImportPath(text string) string {
	text = strings.TrimSpace(text)
	text = strings.Trim(text, "\"'`();")
	return strings.TrimSpace(text)
}
