package uml

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/julianshen/repodoc/internal/analyzer"
)

// MethodDependencyDiagram draws which methods of other classes call
// className.methodName. file must be the key of the file defining the
// class; the method is checked to exist there first.
func (m *Maker) MethodDependencyDiagram(ctx context.Context, files map[string]string, file, className, methodName string) (Diagram, error) {
	src, ok := files[file]
	if !ok {
		return Diagram{}, fmt.Errorf("file %q not found in repository", file)
	}
	if err := analyzer.LookupMethod(src, className, methodName); err != nil {
		return Diagram{}, err
	}

	callers := analyzer.MethodCallers(files, className, methodName)
	d := Diagram{Source: methodDiagramSource(className, methodName, callers)}
	d.Path = m.write(ctx, d.Source, fmt.Sprintf("method_dependency_%s_%s", className, methodName))
	return d, nil
}

func methodDiagramSource(className, methodName string, callers map[string][]string) string {
	lines := []string{
		"@startuml",
		fmt.Sprintf("class %s {", className),
		fmt.Sprintf("    + %s()", methodName),
		"}",
		"",
	}

	names := make([]string, 0, len(callers))
	for name := range callers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, caller := range names {
		lines = append(lines, fmt.Sprintf("class %s {", caller))
		for _, method := range callers[caller] {
			lines = append(lines, fmt.Sprintf("    + %s()", method))
		}
		lines = append(lines,
			"}",
			fmt.Sprintf("%s --> %s : calls %s()", caller, className, methodName),
			"",
		)
	}
	lines = append(lines, "@enduml")
	return strings.Join(lines, "\n")
}
