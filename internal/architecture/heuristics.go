package architecture

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/julianshen/repodoc/internal/log"
)

const (
	maxListedDockerfiles = 20
	maxListedServices    = 5
)

var heuristicEntrypoints = []string{"manage.py", "cli.py", "__main__.py"}

// CISignals records which CI systems are configured.
type CISignals struct {
	GitHubActions bool `json:"github_actions"`
	Travis        bool `json:"travis"`
}

// Heuristics are cheap repository signals that hint at the architecture.
type Heuristics struct {
	Entrypoints         []string  `json:"entrypoints"`
	Dockerfile          bool      `json:"dockerfile"`
	DockerCompose       bool      `json:"docker_compose"`
	Dockerfiles         []string  `json:"dockerfiles"`
	DockerfileCount     int       `json:"dockerfile_count"`
	ComposeServices     []string  `json:"compose_services,omitempty"`
	ComposeServiceCount int       `json:"compose_service_count,omitempty"`
	CI                  CISignals `json:"ci"`
	Dependencies        []string  `json:"dependencies"`
}

// CollectHeuristics inspects the repository at root.
func CollectHeuristics(root string) (Heuristics, error) {
	h := Heuristics{
		Entrypoints:  []string{},
		Dockerfiles:  []string{},
		Dependencies: []string{},
	}

	for _, name := range heuristicEntrypoints {
		if isFile(filepath.Join(root, name)) {
			h.Entrypoints = append(h.Entrypoints, name)
		}
	}

	h.Dockerfile = isFile(filepath.Join(root, "Dockerfile"))
	composePath := filepath.Join(root, "docker-compose.yml")
	h.DockerCompose = isFile(composePath)

	dockerDirs, err := dockerfileDirs(os.DirFS(root))
	if err != nil {
		return h, err
	}
	h.DockerfileCount = len(dockerDirs)
	h.Dockerfiles = dockerDirs[:min(len(dockerDirs), maxListedDockerfiles)]

	if h.DockerCompose {
		services, err := composeServices(composePath)
		if err != nil {
			return h, err
		}
		h.ComposeServiceCount = len(services)
		h.ComposeServices = services[:min(len(services), maxListedServices)]
	}

	h.CI = CISignals{
		GitHubActions: isDir(filepath.Join(root, ".github", "workflows")),
		Travis:        isFile(filepath.Join(root, ".travis.yml")),
	}

	deps, err := collectDependencies(root)
	if err != nil {
		return h, err
	}
	h.Dependencies = deps
	return h, nil
}

// dockerfileDirs lists every directory of fsys holding a Dockerfile.
// The root itself is ".". Unreadable entries are logged and skipped.
func dockerfileDirs(fsys fs.FS) ([]string, error) {
	var dirs []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == "." {
				return err
			}
			log.WithComponent("architecture").Warn().Err(err).Str("path", p).Msg("skipping unreadable entry")
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return fs.SkipDir
			}
			return nil
		}
		if d.Name() == "Dockerfile" {
			dirs = append(dirs, path.Dir(p))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning for Dockerfiles: %w", err)
	}
	return dirs, nil
}

// composeServices returns the service names of a compose file in the order
// they are declared.
func composeServices(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading compose file: %w", err)
	}
	var doc struct {
		Services yaml.Node `yaml:"services"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing compose file: %w", err)
	}
	if doc.Services.Kind != yaml.MappingNode {
		return []string{}, nil
	}
	services := make([]string, 0, len(doc.Services.Content)/2)
	for i := 0; i+1 < len(doc.Services.Content); i += 2 {
		services = append(services, doc.Services.Content[i].Value)
	}
	return services, nil
}

// collectDependencies merges requirements*.txt at the root, any .txt file
// under requirements/, and setup.cfg options.install_requires.
func collectDependencies(root string) ([]string, error) {
	deps := make(map[string]bool)

	var reqFiles []string
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("listing repository root: %w", err)
	}
	for _, e := range entries {
		name := strings.ToLower(e.Name())
		if !e.IsDir() && strings.HasPrefix(name, "requirements") && strings.HasSuffix(name, ".txt") {
			reqFiles = append(reqFiles, filepath.Join(root, e.Name()))
		}
	}
	if sub, err := os.ReadDir(filepath.Join(root, "requirements")); err == nil {
		for _, e := range sub {
			if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".txt") {
				reqFiles = append(reqFiles, filepath.Join(root, "requirements", e.Name()))
			}
		}
	}
	for _, f := range reqFiles {
		if err := readRequirements(f, deps); err != nil {
			return nil, err
		}
	}

	cfgPath := filepath.Join(root, "setup.cfg")
	if isFile(cfgPath) {
		cfg, err := ini.LoadSources(ini.LoadOptions{AllowPythonMultilineValues: true}, cfgPath)
		if err != nil {
			return nil, fmt.Errorf("parsing setup.cfg: %w", err)
		}
		if sec, err := cfg.GetSection("options"); err == nil && sec.HasKey("install_requires") {
			for _, line := range strings.Split(sec.Key("install_requires").String(), "\n") {
				if dep := strings.TrimRight(strings.TrimSpace(line), ","); dep != "" {
					deps[dep] = true
				}
			}
		}
	}

	out := make([]string, 0, len(deps))
	for d := range deps {
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}

func readRequirements(path string, deps map[string]bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line, _, _ := strings.Cut(strings.TrimSpace(sc.Text()), "#")
		if pkg := strings.TrimSpace(line); pkg != "" {
			deps[pkg] = true
		}
	}
	return sc.Err()
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
