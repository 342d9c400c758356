package architecture

import (
	"path"
	"sort"
	"strings"

	"github.com/julianshen/repodoc/internal/analyzer"
)

// OtherModule stands in for every group dropped by ProjectModules.
const OtherModule = "other"

// groupDir cuts a slash-separated directory to its first levels segments.
func groupDir(dir string, levels int) string {
	parts := strings.Split(dir, "/")
	if levels < len(parts) {
		parts = parts[:max(levels, 0)]
	}
	if g := strings.Join(parts, "/"); g != "" {
		return g
	}
	return strings.Split(dir, "/")[0]
}

func fileDir(p string) string {
	d := path.Dir(p)
	if d == "." {
		return ""
	}
	return d
}

// ProjectModules groups the directories of files by their first groupLevels
// segments. When there are more than maxModules groups only the ones with
// the most cross-group class dependencies are kept and the rest collapse
// into OtherModule. The result is sorted, with OtherModule last.
func ProjectModules(files map[string]string, groupLevels, maxModules int) []string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	groups := make(map[string]bool)
	classGroup := make(map[string]string)
	for _, p := range paths {
		g := groupDir(fileDir(p), groupLevels)
		groups[g] = true
		for cls := range analyzer.ExtractClassesFromSource(files[p]) {
			classGroup[cls] = g
		}
	}

	edges := make(map[string]map[string]bool)
	for src, targets := range analyzer.ClassDependencies(files) {
		srcGroup, ok := classGroup[src]
		if !ok {
			continue
		}
		for tgt := range targets {
			tgtGroup, ok := classGroup[tgt]
			if !ok || tgtGroup == srcGroup {
				continue
			}
			if edges[srcGroup] == nil {
				edges[srcGroup] = make(map[string]bool)
			}
			edges[srcGroup][tgtGroup] = true
		}
	}

	degree := make(map[string]int, len(groups))
	for g := range groups {
		degree[g] += len(edges[g])
		for _, targets := range edges {
			if targets[g] {
				degree[g]++
			}
		}
	}

	all := make([]string, 0, len(groups))
	for g := range groups {
		all = append(all, g)
	}
	sort.Strings(all)
	if len(all) <= maxModules {
		return all
	}

	sort.SliceStable(all, func(i, j int) bool { return degree[all[i]] > degree[all[j]] })
	kept := append([]string(nil), all[:maxModules]...)
	sort.Strings(kept)
	return append(kept, OtherModule)
}
