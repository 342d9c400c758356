package architecture

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

var pyprojectTmpl = template.Must(template.New("pyproject").Parse(`
You are an expert software architect.
Below is the complete content of a pyproject.toml file for a Python project.
Your task: extract and return in JSON format the following fields:

1. dependencies: a list of top-level package names (e.g. Django, Flask, Celery, etc.)
2. entry_points: console scripts or plugin entry-points defined under [project.scripts] or [tool.poetry.scripts]
3. build_system: the build-backend and requirements under [build-system]
4. tool_configs: any tool-specific sections (pytest, flake8, mypy) with their key settings
5. framework_hints: any indication of frameworks or patterns (e.g. 'Django', 'FastAPI', 'Celery', 'Click',
'Flask-Plugin')

Respond **only** with valid JSON that can be parsed directly as JSON5, for example:

{
  "dependencies": ["Django>=3.2", "psycopg2", "..."],
  "entry_points": {"cli": "mypkg.cli:main", "plugins": ["mypkg.ext:plugin"] },
  "build_system": { "requires": [...], "backend": "..." },
  "tool_configs": { "pytest": {...}, "mypy": {...} },
  "framework_hints": ["MVC", "Plugin-based", "CLI"]
}

Here is the file:
` + "```toml" + `
{{.TOML}}
`))

var recognizeTmpl = template.Must(template.New("recognize").Parse(`
You are an expert software architect. Based on the following information about a Python repository, identify its
overall architectural pattern and provide a concise justification.

The GitHub repository is: {{.RepoURL}}

1) Modules (grouped by first {{.GroupLevels}} segment(s)):
{{.Modules}}

2) Heuristics (JSON object) with keys:
   - entrypoints (list of entrypoint scripts)
   - dockerfile (bool)
   - docker_compose (bool)
   - dockerfiles (list of up to 20 Dockerfile paths)
   - dockerfile_count (int)
   - compose_services (list of up to 5 service names)
   - compose_service_count (int)
   - ci.github_actions (bool)
   - ci.travis (bool)
   - dependencies (list of top-level package names)

{{.Heuristics}}

3) Pyproject.toml insights (JSON with keys):
   - dependencies: list of declared dependencies
   - entry_points: console scripts and plugin entry-points
   - build_system: build backend and requirements
   - tool_configs: settings for pytest, mypy, flake8, etc.
   - framework_hints: detected framework or pattern hints

{{.Insights}}

Use these guidelines to map signals to architecture patterns (analyze in this order):

1. **Microservices** (multiple independently deployable units):
   - Strong indicators:
     - dockerfile_count > 1 + compose_service_count > 1
     - modules named after business capabilities (e.g. 'payment_service', 'auth_service')
     - compose_services with cross-dependencies (like API gateways, service discovery)
     - dependencies like 'nameko', 'fastapi', 'grpc'

2. **Event-Driven Architecture** (asynchronous message flows):
   - Strong indicators:
     - dependencies: 'celery', 'kafka', 'rabbitmq', 'pika'
     - modules: 'events', 'messages', 'consumers', 'producers', 'tasks'
     - heuristics.entrypoints includes worker scripts
     - docker-compose contains message brokers (redis, rabbitmq)

3. **Plugin System/Microkernel** (extensible core):
   - Strong indicators:
     - pyproject.toml entry_points defining plugins
     - modules: 'plugins', 'extensions', 'core' + many small modules
     - dependencies: 'pluggy', 'importlib', 'stevedore'

4. **Hexagonal Architecture** (ports & adapters):
   - Strong indicators:
     - modules: 'adapters', 'ports', 'domain', 'application'
     - framework_hints mentioning 'clean architecture'
     - dependencies separated into 'core' and 'infrastructure'

5. **Layered (N-Tier/MVC)** (strict hierarchy):
   - Strong indicators:
     - modules: 'controllers', 'services', 'repositories', 'models'
     - framework_hints: 'django', 'flask', 'spring'
     - entrypoints like 'manage.py' with migration commands

6. **CQRS** (command/query separation):
   - Strong indicators:
     - modules: 'commands', 'queries', 'events'
     - dependencies: 'cqrses', 'eventsourcing'
     - coexists with Event-Driven patterns

7. **Modular Monolith** (logically separated components):
   - Many modules grouped by features (e.g. 'billing', 'users', 'reports')
   - No strong signals for other patterns
   - Medium/high cohesion between feature modules

8. **Monolithic** (tightly coupled):
   - Few modules with generic names ('utils', 'helpers')
   - No architectural patterns detected
   - All logic in entrypoints like 'main.py'

9. **Client-Server Architecture**
   - Strong indicators:
     • Separate modules: 'client'/'server' or 'api'/'frontend'
     • Dependencies:
       - Server: 'flask', 'django', 'fastapi', 'grpc'
       - Client: 'requests', 'aiohttp', 'grpc-client'
     • API contracts: OpenAPI specs, .proto files
     • Deployment: Different dockerfiles for client/server
     • Entrypoints: 'run_server.py' + 'client_cli.py'
   - Caution:
     • If the repository is primarily a framework or library (e.g. tiangolo/fastapi),
     it may expose server‐side plumbing but isn’t itself a deployable client–server application.
     In that case do not classify it as pure Client-Server as it is a framework or library.

CAUTION: If the project is primarily a library or framework (e.g. Pandas, FastAPI), label it as
“Library/Framework” and do not classify it as a deployable Client–Server or Microservices application—rather,
choose an appropriate internal architecture pattern (e.g. Layered, Modular Monolith) based on its module structure and
dependencies. You must also choose its internal architecture pattern. (e.g. Library/Framework with Modular Monolith
internal architecture pattern)


Key decision principles:
- Prefer combinations when justified (e.g. "Modular Monolith with Event-Driven elements")
- Business domain modules > technical modules in pattern detection
- Framework usage (Django/Flask) suggests Layered unless strong Hexagonal signals
- Prioritize patterns with multiple confirming signals
- Docker/Compose alone ≠ Microservices - must have logical module separation

Analyze all evidence together. If multiple patterns apply, choose the most dominant based on:
1) Specificity of matching signals
2) Number of confirming heuristics
3) Logical consistency between components

Respond **only** with valid JSON and response architecture name MUST be in English and justification MUST be in
slovak language:
{
"architecture": "<pattern or combination>",
"justification": "<short explanation referencing the signals>"
}
`))

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// indentJSON renders v the way the prompt shows structured inputs: two
// space indentation, no HTML escaping.
func indentJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encoding prompt data: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
