package index

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"inherit/internal/crawler"
	"inherit/internal/extractor"
	"inherit/internal/manifest"
)

// Indexer turns annotated Go packages into scope manifests.
type Indexer struct {
	crawler *crawler.Crawler
}

// NewIndexer creates a new indexer.
func NewIndexer(c *crawler.Crawler) *Indexer {
	return &Indexer{
		crawler: c,
	}
}

// BuildManifests scans root and returns one manifest per annotated package.
// Every annotated package is a scope named after the package, so two
// annotated packages may not share a name.
func (i *Indexer) BuildManifests(root string) ([]*manifest.File, error) {
	pkgs, err := i.crawler.ScanPackages(root)
	if err != nil {
		return nil, err
	}

	scopes := make(map[string]bool)
	dirs := make(map[string]string)
	required := make(map[string]bool)
	var annotated []*extractor.Package
	for _, pkg := range pkgs {
		if !pkg.IsAnnotated() {
			continue
		}
		if prev, ok := dirs[pkg.Name]; ok {
			return nil, fmt.Errorf("scope %s is declared by both %s and %s", pkg.Name, prev, pkg.Dir)
		}
		dirs[pkg.Name] = pkg.Dir
		scopes[pkg.Name] = true
		for _, fn := range pkg.RequiredFunctions() {
			required[fn] = true
		}
		annotated = append(annotated, pkg)
	}

	files := make([]*manifest.File, 0, len(annotated))
	for _, pkg := range annotated {
		f, err := extractor.BuildManifest(pkg, scopes, required)
		if err != nil {
			return nil, fmt.Errorf("package %s: %w", pkg.Name, err)
		}
		files = append(files, f)
	}
	return files, nil
}

// SaveManifests writes each manifest to dir as <scope>.yaml.
func (i *Indexer) SaveManifests(files []*manifest.File, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create manifest dir: %w", err)
	}
	for _, f := range files {
		data, err := f.Marshal()
		if err != nil {
			return fmt.Errorf("failed to encode manifest %s: %w", f.Scope, err)
		}
		path := filepath.Join(dir, f.Scope+".yaml")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write manifest %s: %w", path, err)
		}
	}
	return nil
}

// LoadManifests reads every .yaml and .yml file in dir, sorted by name.
func LoadManifests(dir string) ([]*manifest.File, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	files := make([]*manifest.File, 0, len(paths))
	for _, p := range paths {
		f, err := manifest.Load(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}
