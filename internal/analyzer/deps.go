package analyzer

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/julianshen/repodoc/internal/parser"
)

// ClassDependencies maps every project class to the set of other project
// classes it references. A reference is any of: a base class, a class or
// method decorator, a direct instantiation Foo(...), a call Foo.method(...),
// a parameter or variable annotation, a return annotation, an isinstance
// check, raise Foo(...) and except Foo. Imported aliases are resolved back
// to project class names. Self references are dropped.
func ClassDependencies(files map[string]string) map[string]map[string]bool {
	all := AllClassNames(files)
	deps := make(map[string]map[string]bool, len(all))
	for cls := range all {
		deps[cls] = make(map[string]bool)
	}

	for _, src := range files {
		ps, err := parsePython(src)
		if err != nil {
			continue
		}
		ps.collectDependencies(all, deps)
		ps.Close()
	}
	return deps
}

func (p *pySource) collectDependencies(all map[string]bool, deps map[string]map[string]bool) {
	aliases := p.importAliases(all)
	resolve := func(name string) string {
		if target, ok := aliases[name]; ok {
			return target
		}
		return name
	}

	for _, cls := range findAll(p.root(), "class_definition") {
		src := p.text(cls.ChildByFieldName("name"))
		if deps[src] == nil {
			deps[src] = make(map[string]bool)
		}
		add := func(target string) {
			if target != "" && target != src && all[target] {
				deps[src][target] = true
			}
		}

		for _, base := range namedChildren(cls.ChildByFieldName("superclasses")) {
			switch base.Type() {
			case "identifier":
				add(p.text(base))
			case "attribute":
				if obj := p.identifierOf(base.ChildByFieldName("object")); obj != "" {
					add(resolve(obj))
				}
			}
		}

		// Decorators live outside the class node but belong to the class.
		scope := []*sitter.Node{cls}
		for _, dec := range decorators(cls) {
			add(p.decoratorTarget(dec, resolve))
			scope = append(scope, dec)
		}

		for _, root := range scope {
			parser.Walk(root, func(n *sitter.Node) {
				p.referenceRules(n, resolve, add)
			})
		}
	}
}

// referenceRules applies every reference rule to a single node.
func (p *pySource) referenceRules(n *sitter.Node, resolve func(string) string, add func(string)) {
	switch n.Type() {
	case "call":
		fn := n.ChildByFieldName("function")
		if fn == nil {
			return
		}
		switch fn.Type() {
		case "identifier":
			add(resolve(p.text(fn)))
			if p.text(fn) == "isinstance" {
				p.isinstanceTargets(n, add)
			}
		case "attribute":
			if obj := p.identifierOf(fn.ChildByFieldName("object")); obj != "" {
				add(resolve(obj))
			}
		}

	case "typed_parameter", "typed_default_parameter", "assignment":
		add(p.annotationName(n.ChildByFieldName("type")))

	case "function_definition":
		add(p.annotationName(n.ChildByFieldName("return_type")))
		for _, dec := range decorators(n) {
			add(p.decoratorTarget(dec, resolve))
		}

	case "raise_statement":
		kids := namedChildren(n)
		if len(kids) == 0 || kids[0].Type() != "call" {
			return
		}
		fn := kids[0].ChildByFieldName("function")
		if fn == nil {
			return
		}
		switch fn.Type() {
		case "identifier":
			add(resolve(p.text(fn)))
		case "attribute":
			if obj := p.identifierOf(fn.ChildByFieldName("object")); obj != "" {
				add(resolve(obj))
			}
		}

	case "except_clause":
		kids := namedChildren(n)
		if len(kids) == 0 {
			return
		}
		exc := kids[0]
		if exc.Type() == "as_pattern" {
			if inner := namedChildren(exc); len(inner) > 0 {
				exc = inner[0]
			}
		}
		add(p.identifierOf(exc))
	}
}

// decoratorTarget returns the class a decorator refers to: a bare name as
// written, or the resolved object of a dotted name.
func (p *pySource) decoratorTarget(dec *sitter.Node, resolve func(string) string) string {
	switch dec.Type() {
	case "identifier":
		return p.text(dec)
	case "attribute":
		if obj := p.identifierOf(dec.ChildByFieldName("object")); obj != "" {
			return resolve(obj)
		}
	}
	return ""
}

func (p *pySource) isinstanceTargets(call *sitter.Node, add func(string)) {
	var positional []*sitter.Node
	for _, arg := range namedChildren(call.ChildByFieldName("arguments")) {
		switch arg.Type() {
		case "keyword_argument", "comment":
			continue
		}
		positional = append(positional, arg)
	}
	if len(positional) < 2 {
		return
	}
	second := positional[1]
	if second.Type() == "parenthesized_expression" {
		if kids := namedChildren(second); len(kids) == 1 {
			second = kids[0]
		}
	}
	switch second.Type() {
	case "identifier":
		add(p.text(second))
	case "tuple":
		for _, el := range namedChildren(second) {
			add(p.identifierOf(el))
		}
	}
}

// importAliases maps local names introduced by top-level imports to the
// project classes they import.
func (p *pySource) importAliases(all map[string]bool) map[string]string {
	aliases := make(map[string]string)
	record := func(name, alias string) {
		if !all[name] {
			return
		}
		if alias == "" {
			alias = name
		}
		aliases[alias] = name
	}

	for _, stmt := range namedChildren(p.root()) {
		switch stmt.Type() {
		case "import_statement":
			for _, item := range namedChildren(stmt) {
				name, alias := p.importedName(item)
				if i := strings.LastIndex(name, "."); i >= 0 {
					name = name[i+1:]
				}
				record(name, alias)
			}
		case "import_from_statement":
			module := stmt.ChildByFieldName("module_name")
			if module == nil || !hasModuleName(module) {
				continue
			}
			for _, item := range namedChildren(stmt) {
				if item.StartByte() == module.StartByte() {
					continue
				}
				record(p.importedName(item))
			}
		}
	}
	return aliases
}

// importedName splits a dotted_name or aliased_import into name and alias.
func (p *pySource) importedName(item *sitter.Node) (string, string) {
	switch item.Type() {
	case "dotted_name":
		return p.text(item), ""
	case "aliased_import":
		return p.text(item.ChildByFieldName("name")), p.text(item.ChildByFieldName("alias"))
	}
	return "", ""
}

// hasModuleName is false for "from . import x", which names no module.
func hasModuleName(module *sitter.Node) bool {
	if module.Type() == "dotted_name" {
		return true
	}
	for _, c := range namedChildren(module) {
		if c.Type() == "dotted_name" {
			return true
		}
	}
	return false
}
