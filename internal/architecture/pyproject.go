package architecture

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
)

type pyprojectFile struct {
	Project struct {
		Dependencies []string                     `toml:"dependencies"`
		Scripts      map[string]any               `toml:"scripts"`
		EntryPoints  map[string]map[string]string `toml:"entry-points"`
	} `toml:"project"`
	BuildSystem struct {
		Requires []string `toml:"requires"`
		Backend  string   `toml:"build-backend"`
	} `toml:"build-system"`
	Tool struct {
		Poetry struct {
			Dependencies map[string]any `toml:"dependencies"`
			Scripts      map[string]any `toml:"scripts"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// localPyprojectInsights reads the declared dependencies, entry points and
// build system straight from pyproject.toml, in the same shape the model
// is asked to return.
func localPyprojectInsights(content string) (map[string]any, error) {
	var pp pyprojectFile
	if _, err := toml.Decode(content, &pp); err != nil {
		return nil, fmt.Errorf("parsing pyproject.toml: %w", err)
	}

	out := make(map[string]any)

	deps := append([]string(nil), pp.Project.Dependencies...)
	for name := range pp.Tool.Poetry.Dependencies {
		if name != "python" {
			deps = append(deps, name)
		}
	}
	if len(deps) > 0 {
		sort.Strings(deps)
		out["dependencies"] = toAnySlice(deps)
	}

	entry := make(map[string]any)
	for name, target := range pp.Project.Scripts {
		entry[name] = target
	}
	for name, target := range pp.Tool.Poetry.Scripts {
		entry[name] = target
	}
	for group, points := range pp.Project.EntryPoints {
		targets := make(map[string]any, len(points))
		for name, target := range points {
			targets[name] = target
		}
		entry[group] = targets
	}
	if len(entry) > 0 {
		out["entry_points"] = entry
	}

	if pp.BuildSystem.Backend != "" || len(pp.BuildSystem.Requires) > 0 {
		out["build_system"] = map[string]any{
			"requires": toAnySlice(pp.BuildSystem.Requires),
			"backend":  pp.BuildSystem.Backend,
		}
	}
	return out, nil
}

// mergeInsights fills keys the model left out or empty with locally parsed
// values.
func mergeInsights(fromModel, local map[string]any) map[string]any {
	out := make(map[string]any, len(fromModel)+len(local))
	for k, v := range fromModel {
		out[k] = v
	}
	for k, v := range local {
		if isEmptyValue(out[k]) {
			out[k] = v
		}
	}
	return out
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
