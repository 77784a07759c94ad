package analysis

import (
	"path/filepath"
	"testing"

	"inherit/internal/git"
	"inherit/internal/manifest"

	"github.com/stretchr/testify/assert"
)

func project(root string) []*manifest.File {
	return []*manifest.File{
		{Scope: "fruits", Path: filepath.Join(root, "fruits")},
		{Scope: "market", Imports: []string{"fruits"}, Path: filepath.Join(root, "market")},
		{Scope: "stall", Imports: []string{"market"}, Path: filepath.Join(root, "stall")},
		{Scope: "tools", Path: filepath.Join(root, "manifests", "tools.yaml")},
	}
}

func TestAnalyzer_AnalyzeImpact(t *testing.T) {
	root := t.TempDir()
	a := NewAnalyzer(project(root), root)

	tests := []struct {
		name     string
		changes  []git.ChangedFile
		direct   []string
		indirect []string
	}{
		{
			name:     "base scope change reaches transitive importers",
			changes:  []git.ChangedFile{{Path: "fruits/fruits.go", ChangedLines: []int{3}}},
			direct:   []string{"fruits"},
			indirect: []string{"market", "stall"},
		},
		{
			name:     "leaf scope change",
			changes:  []git.ChangedFile{{Path: "stall/stall.go"}},
			direct:   []string{"stall"},
			indirect: []string{},
		},
		{
			name:     "manifest file change",
			changes:  []git.ChangedFile{{Path: "manifests/tools.yaml"}},
			direct:   []string{"tools"},
			indirect: []string{},
		},
		{
			name:     "prefix of a directory name is not a match",
			changes:  []git.ChangedFile{{Path: "fruitsalad/bowl.go"}},
			direct:   []string{},
			indirect: []string{},
		},
		{
			name: "direct change wins over indirect",
			changes: []git.ChangedFile{
				{Path: "market/market.go"},
				{Path: "fruits/fruits.go"},
			},
			direct:   []string{"fruits", "market"},
			indirect: []string{"stall"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := a.AnalyzeImpact(tt.changes)
			assert.Equal(t, tt.direct, rep.DirectlyAffected)
			assert.Equal(t, tt.indirect, rep.IndirectlyAffected)
		})
	}
}

func TestAnalyzer_RootPackage(t *testing.T) {
	root := t.TempDir()
	files := []*manifest.File{
		{Scope: "fruits", Path: root},
		{Scope: "market", Imports: []string{"fruits"}, Path: filepath.Join(root, "market")},
	}
	a := NewAnalyzer(files, root)

	rep := a.AnalyzeImpact([]git.ChangedFile{{Path: "fruits.go"}})
	assert.Equal(t, []string{"fruits"}, rep.DirectlyAffected)
	assert.Equal(t, []string{"market"}, rep.IndirectlyAffected)

	rep = a.AnalyzeImpact([]git.ChangedFile{{Path: "market/market.go"}})
	assert.Equal(t, []string{"fruits", "market"}, rep.DirectlyAffected)
	assert.Empty(t, rep.IndirectlyAffected)
}

func TestImpactReport_Scopes(t *testing.T) {
	rep := &ImpactReport{DirectlyAffected: []string{"market"}, IndirectlyAffected: []string{"stall", "fruits"}}
	assert.Equal(t, []string{"fruits", "market", "stall"}, rep.Scopes())
}
