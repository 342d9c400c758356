package uml

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/julianshen/repodoc/internal/analyzer"
)

var segmentTmpl = template.Must(template.New("segment").Parse(`
You are an expert in software analysis and UML diagram creation.
The following code is either an entire Python class or a fragment of a Python class. At the top, you have all the
imports used by this class. Based on the following Python class code, identify all relationships that this class has
with other classes in this project, ignoring any classes that come from external or well‑known libraries
(for example, pandas.DataFrame).

Focus only on the following three types of relationships:
- **Inheritance:** If the class explicitly inherits from another class (e.g., ` + "`class SubClass(SuperClass):`" + `),
  create an entry where:
  - Key: Name of the PARENT class (SuperClass)
  - Value: "inheritance"
- **Association:** If the class uses or references other classes via its attributes, methods, or parameters
  (without creating its own instances), label this relationship as "association"
- **Aggregation:** If the class creates and manages instances of other classes (for example, inside the constructor
  or as part of its attributes), where those instances can exist independently, label this relationship as "aggregation"

For example:
If analyzing ` + "`class Dog(Animal):`" + `, the dictionary should be {"Animal": "inheritance"}
If analyzing ` + "`class Car: def __init__(self, engine: Engine):`" + `, the dictionary should be {"Engine": "aggregation"}

Return only the resulting dictionary in valid JSON format and nothing else.

Name of the current class is: {{.ClassName}}

Python Class Code:
{{.Code}}
`))

var classTmpl = template.Must(template.New("class").Parse(`
You are an expert in UML diagram generation. Based on the following information, generate a UML class diagram
using PlantUML syntax. Generate only PlantUML code starting with @startuml and ending with @enduml, nothing else!
 Follow these rules STRICTLY:

1. **Class Structure:**
   - Start with ` + "`class {{.Name}} { ... }`" + `
   - Attributes: List with ` + "`-`" + ` prefix
   - Methods: List with ` + "`+`" + ` prefix

2. **Relationships:**
   - Inheritance: Always use ` + "`ParentClass <|-- ChildClass`" + ` format
   - Association: Use ` + "`ClassA --> ClassB`" + `
   - Aggregation: Use ` + "`ClassA o-- ClassB`" + `
   - Add ` + "`: relationship_type`" + ` label after each relationship

3. **Exclude trivial or boilerplate methods:**
   - **Do not** list simple getters (` + "`getX`" + `) or setters (` + "`setX`" + `).
   - **Skip** dunder methods except ` + "`__init__`" + ` (e.g. ` + "`__str__`, `__repr__`, `__eq__`" + `, etc.).
   - **Omit** private helper methods (starting with a single underscore), unless they represent a real part of the
   public API.

4. **Current Class: {{.Name}}**
   - YOU ARE GENERATING DIAGRAM FOR THIS CLASS
   - All relationships must originate from or point to this class

Examples of CORRECT syntax:
- Inheritance: ` + "`BaseEstimator <|-- LogisticRegression : inheritance`" + `
- Aggregation: ` + "`Car o-- Engine : aggregation`" + `
- Association: ` + "`Student --> Course : association`" + `

Now generate PlantUML code for:

### Class Info:
Name: {{.Name}}
Attributes: {{.Attributes}}
Methods: {{.Methods}}

### Relationships to other classes:
{{.Relationships}}

IMPORTANT: Always double-check arrow directions for inheritance!
Generate only PlantUML code starting with @startuml and ending with @enduml, nothing else!
`))

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

func classPrompt(sig analyzer.Signature, rels map[string]string) (string, error) {
	attrs := "none"
	if len(sig.Attributes) > 0 {
		attrs = reprList(sig.Attributes)
	}
	methods := "none"
	if len(sig.Methods) > 0 {
		parts := make([]string, len(sig.Methods))
		for i, m := range sig.Methods {
			parts[i] = fmt.Sprintf("{'name': %s, 'args': %s}", repr(m.Name), reprList(m.Args))
		}
		methods = "[" + strings.Join(parts, ", ") + "]"
	}
	return render(classTmpl, struct {
		Name, Attributes, Methods, Relationships string
	}{sig.Name, attrs, methods, reprMap(rels)})
}

// repr, reprList and reprMap print values in the dictionary notation the
// prompts use for structured data.
func repr(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

func reprList(items []string) string {
	parts := make([]string, len(items))
	for i, s := range items {
		parts[i] = repr(s)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func reprMap(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = repr(k) + ": " + repr(m[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
