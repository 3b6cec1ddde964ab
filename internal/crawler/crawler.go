package crawler

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Crawler finds Rust source files.
type Crawler struct {
	ignored []string
	exclude []string
}

// NewCrawler creates a new crawler. exclude holds doublestar patterns matched
// against slash-separated paths relative to the scanned root.
func NewCrawler(exclude []string) (*Crawler, error) {
	for _, p := range exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	return &Crawler{
		ignored: []string{".git", "vendor", "node_modules"},
		exclude: exclude,
	}, nil
}

// Collect returns the sorted .rs files under root. A file root is returned as
// is. Without recursive only the direct children of root are considered.
func (c *Crawler) Collect(root string, recursive bool) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = c.ScanProject(root, recursive, func(path string) {
		files = append(files, path)
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ScanProject walks root and streams every Rust file it keeps to onFile.
func (c *Crawler) ScanProject(root string, recursive bool, onFile func(path string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			if !recursive || c.skipDir(root, path, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), ".rs") || c.excluded(root, path) {
			return nil
		}
		onFile(path)
		return nil
	})
}

// Dirs returns root and, when recursive, every directory below it that a
// scan would enter.
func (c *Crawler) Dirs(root string, recursive bool) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (!recursive || c.skipDir(root, path, d.Name())) {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	return dirs, err
}

// SkipDir reports whether a scan of root would not enter dir.
func (c *Crawler) SkipDir(root, dir string) bool {
	return c.skipDir(root, dir, filepath.Base(dir))
}

// Excluded reports whether path matches an exclude pattern relative to root.
func (c *Crawler) Excluded(root, path string) bool {
	return c.excluded(root, path)
}

func (c *Crawler) skipDir(root, path, name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, ign := range c.ignored {
		if name == ign {
			return true
		}
	}
	if name == "target" && isBuildOutput(path) {
		return true
	}
	return c.excluded(root, path)
}

func (c *Crawler) excluded(root, path string) bool {
	if len(c.exclude) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	for _, p := range c.exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// isBuildOutput recognises a Cargo target directory: one next to a
// Cargo.lock, or one without Rust sources of its own.
func isBuildOutput(dir string) bool {
	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "Cargo.lock")); err == nil {
		return true
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return true
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".rs") {
			return false
		}
	}
	return true
}
