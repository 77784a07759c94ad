package analysis

import (
	"path/filepath"
	"sort"
	"strings"

	"inherit/internal/git"
	"inherit/internal/manifest"
)

// ImpactReport names the scopes affected by a set of changes.
type ImpactReport struct {
	// DirectlyAffected scopes own a changed file.
	DirectlyAffected []string
	// IndirectlyAffected scopes import a directly affected scope, possibly
	// through other scopes.
	IndirectlyAffected []string
}

// Scopes returns every affected scope.
func (r *ImpactReport) Scopes() []string {
	out := append([]string{}, r.DirectlyAffected...)
	out = append(out, r.IndirectlyAffected...)
	sort.Strings(out)
	return out
}

// Analyzer maps changed files onto scopes.
type Analyzer struct {
	sources   map[string]string
	importers map[string][]string
}

// NewAnalyzer indexes the source location of every manifest. Locations are
// made relative to root, the repository top level, so that they compare
// against git paths.
func NewAnalyzer(files []*manifest.File, root string) *Analyzer {
	a := &Analyzer{
		sources:   make(map[string]string),
		importers: make(map[string][]string),
	}
	for _, f := range files {
		if f.Path != "" {
			a.sources[f.Scope] = relativeTo(root, f.Path)
		}
		for _, imp := range f.Imports {
			a.importers[imp] = append(a.importers[imp], f.Scope)
		}
	}
	return a
}

func relativeTo(root, p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.ToSlash(filepath.Clean(p))
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	rel, err := filepath.Rel(rootAbs, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

// AnalyzeImpact identifies which scopes are affected by the given changes.
func (a *Analyzer) AnalyzeImpact(changes []git.ChangedFile) *ImpactReport {
	report := &ImpactReport{
		DirectlyAffected:   []string{},
		IndirectlyAffected: []string{},
	}

	seen := make(map[string]bool)
	for _, change := range changes {
		for scope, src := range a.sources {
			if !seen[scope] && isAffected(src, change.Path) {
				seen[scope] = true
				report.DirectlyAffected = append(report.DirectlyAffected, scope)
			}
		}
	}
	sort.Strings(report.DirectlyAffected)

	queue := append([]string{}, report.DirectlyAffected...)
	for len(queue) > 0 {
		scope := queue[0]
		queue = queue[1:]
		for _, dep := range a.importers[scope] {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			report.IndirectlyAffected = append(report.IndirectlyAffected, dep)
			queue = append(queue, dep)
		}
	}
	sort.Strings(report.IndirectlyAffected)
	return report
}

// isAffected reports whether changed is src itself or lies under it. A scope
// rooted at the repository top level owns every path.
func isAffected(src, changed string) bool {
	if src == "." {
		return true
	}
	changed = filepath.ToSlash(filepath.Clean(changed))
	return changed == src || strings.HasPrefix(changed, src+"/")
}
