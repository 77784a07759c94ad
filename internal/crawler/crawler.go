package crawler

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"inherit/internal/extractor"

	"go.uber.org/zap"
)

// Crawler scans a directory for source files.
type Crawler struct {
	extractor *extractor.Extractor
	ignored   []string
	logger    *zap.Logger
}

// NewCrawler creates a new crawler instance. A nil logger discards output.
func NewCrawler(ext *extractor.Extractor, logger *zap.Logger) *Crawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{
		extractor: ext,
		ignored:   []string{".git", "vendor", "node_modules", "testdata"},
		logger:    logger,
	}
}

// ScanProject walks the root directory and extracts every Go file. Results
// are streamed through onFile in lexical path order.
func (c *Crawler) ScanProject(root string, onFile func(*extractor.FileResult)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			for _, ign := range c.ignored {
				if d.Name() == ign {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), ".go") || strings.HasSuffix(d.Name(), "_test.go") {
			return nil
		}

		res, err := c.extractor.ExtractFromFile(path)
		if err != nil {
			// A broken file should not hide the rest of the project.
			c.logger.Warn("skipping file", zap.String("path", path), zap.Error(err))
			return nil
		}
		onFile(res)
		return nil
	})
}

// ScanPackages groups the files under root by directory. Packages come back
// sorted by directory.
func (c *Crawler) ScanPackages(root string) ([]*extractor.Package, error) {
	byDir := make(map[string]*extractor.Package)
	err := c.ScanProject(root, func(res *extractor.FileResult) {
		dir := filepath.Dir(res.Filepath)
		pkg, ok := byDir[dir]
		if !ok {
			pkg = &extractor.Package{Dir: dir, Name: res.Package}
			byDir[dir] = pkg
		}
		pkg.Files = append(pkg.Files, res)
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	pkgs := make([]*extractor.Package, 0, len(byDir))
	for _, pkg := range byDir {
		for _, f := range pkg.Files {
			if f.Package != pkg.Name {
				return nil, fmt.Errorf("directory %s mixes packages %s and %s", pkg.Dir, pkg.Name, f.Package)
			}
		}
		pkgs = append(pkgs, pkg)
	}
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Dir < pkgs[j].Dir })
	return pkgs, nil
}
