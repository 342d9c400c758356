package docs

import (
	"bytes"
	"fmt"
	"text/template"
)

var plainCodeTmpl = template.Must(template.New("plain").Parse(`
You are an expert in writing software documentation.
Analyze the following block of code, which does not contain any function or method definitions,
and create documentation for it.
Briefly describe what is happening in the code.
The documentation should be written in the Slovak language and formatted using Markdown.
Code:
{{.Code}}
`))

var functionsTmpl = template.Must(template.New("functions").Parse(`
You are an expert in software documentation writing.
Analyze the following code and generate documentation ACCORDING TO THE EXACT SPECIFICATION.
The OUTPUT MUST BE WRITTEN IN SLOVAK.

The code you received contains local methods/functions definitions (one or more methods/functions), create documentation
using this structure:
a) Start with the section: ## Method: [exact_method_name]
b) Within each method follow these subsections:
    ## 1. Úvod
    ## 2. Atribúty
    ## 3. Use Case príklady
    ## 4. Zaujímavosti
    ## 5. Záver

If there are multiple methods/functions, repeat this structure for each method/function, separating them with a
line: ---.

Standard formatting:
- Attributes: ### attribute_name
- Lists use dashes (-)

### Expected output format for code with functions:

## Method Name
## 1. Úvod
- Brief description of the purpose and main functionality of the method
- Context of use within the system

## 2. Atribúty
#### AttributeName1
- Type
- Description
- Default value (if any)
- some insights about this attribute (how it works, what is it for,...)
- If there are no attributes, write "Tento kód nemá atribúty"

#### AttributeNameN...

## 3. Use Case príklady
#### Example
- Usage scenario
- Sample code
- Expected output
- If there are no use case examples, write "Tento kód nemá use case príklady"

## 4. Zaujímavosti
- Any observations or interesting notes you noticed about the code

## 5. Záver
- Summary of key features
- Recommendations for use
- Maintenance and extensibility notes

---

## Method Name 2 (if exists, repeat the above structure)


REQUIREMENTS:
1. Strictly follow the heading format
2. Number all sections
3. Always include all sections 1–5 for each entity
4. Do not add any personal comments
5. The entire documentation MUST BE WRITTEN IN SLOVAK
6. The entire documentation MUST BE IN MARKDOWN
7. Leave 3 blank lines at the end of the documentation
8. Do NOT be very brief, write the documentation so the person reading it will understand function of each element

PROHIBITIONS:
1. Changing the order of sections
2. Combining multiple methods into one section
3. Omitting section numbering
4. Adding custom formatting
5. Writing in any language other than Slovak

### Code:
{{.Code}}
`))

var classesTmpl = template.Must(template.New("classes").Parse(`
You are an expert in software documentation writing.
Analyze the following code and generate documentation ACCORDING TO THE EXACT SPECIFICATION.
The OUTPUT MUST BE WRITTEN IN SLOVAK.

The code you received contains local class definitions (one or more classes), create documentation
using this structure:
a) Start with the section: ## Class: [exact_class_name]
b) Within each class follow these subsections:
    ## 1. Úvod
    ## 2. Atribúty
    ## 3. Metódy
    ## 4. Use Case príklady
    ## 5. Zaujímavosti
    ## 6. Záver

If there are multiple classes, repeat this structure for each class, separating them with a line: ---

Standard formatting:
- Attributes: ### attribute_name
- Methods: ### method_name()
- Lists use dashes (-)

### Expected output format for code with classes:

## Class Name
## 1. Úvod
- Brief description of the purpose and main functionality of the class/code
- Context of use within the system

## 2. Atribúty
#### AttributeName1
- Type
- Description
- Default value (if any)
- some insights about this attribute (how it works, what is it for,...)
- If there are no attributes, write "Tento kód nemá atribúty"

#### AttributeNameN...

## 3. Metódy
#### MethodName1
- Description of functionality
- Parameters
- Return value
- Exceptions (if any)
- If there are no methods, write "Tento kód nemá metódy"
- some insights about this method (how it works, what it does,...)
- NEVER include the full method code

#### MethodNameN...

## 4. Use Case príklady
#### Example
- Usage scenario
- Sample code
- Expected output
- If there are no use case examples, write "Tento kód nemá use case príklady"

## 5. Zaujímavosti
- Any observations or interesting notes you noticed about the code

## 6. Záver
- Summary of key features
- Recommendations for use
- Maintenance and extensibility notes

---

## Class Name 2 (if exists, repeat the above structure)

REQUIREMENTS:
1. Strictly follow the heading format
2. Number all sections, including within classes
3. Always include all sections 1–6 for each entity
4. Do not add any personal comments
5. The entire documentation MUST BE WRITTEN IN SLOVAK
6. The entire documentation MUST BE IN MARKDOWN
7. Leave 3 blank lines at the end of the documentation
8. Do NOT be very brief, write the documentation so the person reading it will understand function of each element

PROHIBITIONS:
1. Changing the order of sections
2. Combining multiple classes into one section
3. Omitting section numbering
4. Adding custom formatting
5. Writing in any language other than Slovak

### Code:
{{.Code}}
`))

var contextTmpl = template.Must(template.New("context").Parse(`
# Kontext dokumentácie

## Dokumentácia pre súbor: [{{.Link}}]({{.Link}})

## Entitné informácie

| **Entita** | **Zoznam** |
|------------|-----------|
| **Triedy** | {{.Classes}} |
| **Funkcie** | {{.Functions}} |

## Riadkové rozpätie

- **Začiatok:** {{.Start}}
- **Koniec:** {{.End}}

---

# AI dokumentácia:
`))

var readmeTmpl = template.Must(template.New("readme").Parse(`
You are an AI assistant specialized in writing clear, user-friendly README files for Python projects.
Using the information below, generate a well-structured README.md in Slovak, formatted in Markdown.
Make it easy to read and give a concise overview of what the project is, what is it used for and how to start with it.

## pyproject.toml content:
{{if .Pyproject}}{{.Pyproject}}{{else}}No pyproject.toml found.{{end}}

## File structure
{{.FileList}}

## Code metrics
{{.Metrics}}

## Entrypoint scripts
{{.Entrypoints}}

## License
{{.License}}
{{- if .Hosting}}

## Repository metadata
{{.Hosting}}
{{- end}}
`))

// docPrompt picks the template matching what the block contains.
func docPrompt(code string, hasClasses, hasFunctions bool) (string, error) {
	tmpl := plainCodeTmpl
	switch {
	case hasClasses && hasFunctions:
		tmpl = classesTmpl
	case hasFunctions:
		tmpl = functionsTmpl
	}
	return render(tmpl, struct{ Code string }{code})
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
