package analyzer

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

var (
	// ErrClassNotFound is returned when a class is not defined at the top
	// level of a file.
	ErrClassNotFound = errors.New("class not found")
	// ErrMethodNotFound is returned when a class has no such method.
	ErrMethodNotFound = errors.New("method not found")
)

// MethodCallers finds, across all files, which methods of other top-level
// classes call className.methodName. A call counts when it goes through
// self.<attr> where the attribute was assigned className(...) or a factory
// whose name contains the class name, or through a parameter annotated
// with className. The result maps caller class to sorted method names.
func MethodCallers(files map[string]string, className, methodName string) map[string][]string {
	found := make(map[string]map[string]bool)
	for _, src := range files {
		ps, err := parsePython(src)
		if err != nil {
			continue
		}
		for _, cls := range ps.topLevel("class_definition") {
			caller := ps.text(cls.ChildByFieldName("name"))
			for _, m := range ps.callingMethods(cls, className, methodName) {
				if found[caller] == nil {
					found[caller] = make(map[string]bool)
				}
				found[caller][m] = true
			}
		}
		ps.Close()
	}

	out := make(map[string][]string, len(found))
	for caller, methods := range found {
		for m := range methods {
			out[caller] = append(out[caller], m)
		}
		sort.Strings(out[caller])
	}
	return out
}

func (p *pySource) callingMethods(cls *sitter.Node, className, methodName string) []string {
	var methods []*sitter.Node
	for _, item := range bodyMembers(cls) {
		if item.Type() == "function_definition" {
			methods = append(methods, item)
		}
	}

	holders := make(map[string]bool)
	params := make(map[string]bool)
	lowerClass := strings.ToLower(className)
	for _, fn := range methods {
		for _, stmt := range namedChildren(fn.ChildByFieldName("body")) {
			for _, a := range assignments(stmt) {
				attr := p.selfAttribute(a.ChildByFieldName("left"))
				value := assignedValue(a)
				if attr == "" || !isPlainAssignment(a) || value == nil || value.Type() != "call" {
					continue
				}
				callee := value.ChildByFieldName("function")
				switch {
				case p.identifierOf(callee) == className:
					holders[attr] = true
				case callee != nil && callee.Type() == "attribute" &&
					strings.Contains(strings.ToLower(p.text(callee.ChildByFieldName("attribute"))), lowerClass):
					holders[attr] = true
				}
			}
		}
		for _, param := range p.positionalParams(fn) {
			if param.annotation == className {
				params[param.name] = true
			}
		}
	}

	var callers []string
	for _, fn := range methods {
		if p.callsTarget(fn, methodName, holders, params) {
			callers = append(callers, p.text(fn.ChildByFieldName("name")))
		}
	}
	return callers
}

func (p *pySource) callsTarget(fn *sitter.Node, methodName string, holders, params map[string]bool) bool {
	for _, call := range findAll(fn, "call") {
		callee := call.ChildByFieldName("function")
		if callee == nil || callee.Type() != "attribute" || p.text(callee.ChildByFieldName("attribute")) != methodName {
			continue
		}
		obj := callee.ChildByFieldName("object")
		if attr := p.selfAttribute(obj); attr != "" && holders[attr] {
			return true
		}
		if name := p.identifierOf(obj); name != "" && params[name] {
			return true
		}
	}
	return false
}

// LookupMethod checks that src defines a top-level class className with a
// method methodName. The ErrMethodNotFound message lists the methods the
// class does have.
func LookupMethod(src, className, methodName string) error {
	ps, err := parsePython(src)
	if err != nil {
		return err
	}
	defer ps.Close()

	for _, cls := range ps.topLevel("class_definition") {
		if ps.text(cls.ChildByFieldName("name")) != className {
			continue
		}
		var available []string
		for _, item := range bodyMembers(cls) {
			if item.Type() != "function_definition" {
				continue
			}
			name := ps.text(item.ChildByFieldName("name"))
			if name == methodName {
				return nil
			}
			available = append(available, name)
		}
		return fmt.Errorf("%w: %s.%s (available: %s)", ErrMethodNotFound,
			className, methodName, strings.Join(available, ", "))
	}
	return fmt.Errorf("%w: %s", ErrClassNotFound, className)
}

// ClassMethods lists the top-level classes of src and their direct methods,
// in source order. Unparseable source yields nil.
func ClassMethods(src string) map[string][]string {
	ps, err := parsePython(src)
	if err != nil {
		return nil
	}
	defer ps.Close()

	out := make(map[string][]string)
	for _, cls := range ps.topLevel("class_definition") {
		name := ps.text(cls.ChildByFieldName("name"))
		out[name] = []string{}
		for _, item := range bodyMembers(cls) {
			if item.Type() == "function_definition" {
				out[name] = append(out[name], ps.text(item.ChildByFieldName("name")))
			}
		}
	}
	return out
}
