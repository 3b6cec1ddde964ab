package analysis

import (
	"path/filepath"
	"sort"

	"github.com/jayvdb/pep257-rs/internal/docstring"
	"github.com/jayvdb/pep257-rs/internal/extractor"
	"github.com/jayvdb/pep257-rs/internal/git"
)

// Impact keeps only the items touched by a set of changes.
type Impact struct {
	changed map[string][]int
	deleted []string
}

// NewImpact indexes changes by absolute path.
func NewImpact(changes []git.ChangedFile) *Impact {
	im := &Impact{changed: make(map[string][]int)}
	for _, c := range changes {
		path := normalize(c.Path)
		if c.Deleted {
			im.deleted = append(im.deleted, path)
			continue
		}
		im.changed[path] = append(im.changed[path], c.ChangedLines...)
	}
	sort.Strings(im.deleted)
	return im
}

// Files returns the changed files that still exist, sorted.
func (im *Impact) Files() []string {
	files := make([]string, 0, len(im.changed))
	for p := range im.changed {
		files = append(files, p)
	}
	sort.Strings(files)
	return files
}

// Deleted returns the removed files, sorted.
func (im *Impact) Deleted() []string {
	return im.deleted
}

// Keep reports whether a changed line falls within the item or its docstring.
func (im *Impact) Keep(path string, item extractor.Item, doc *docstring.Docstring) bool {
	lines, ok := im.changed[normalize(path)]
	if !ok {
		return false
	}
	start, end := item.AnchorLine, item.EndLine
	if item.Synthetic {
		// The file item spans the whole file; only its own docs count.
		start, end = 1, 1
		if doc != nil {
			start, end = doc.Line, doc.EndLine
		}
	} else if doc != nil && doc.Line < start {
		start = doc.Line
	}
	if start == 0 {
		start = item.Line
	}
	return isAffected(start, end, lines)
}

func isAffected(start, end int, lines []int) bool {
	// Simple overlap check
	for _, line := range lines {
		if line >= start && line <= end {
			return true
		}
	}
	return false
}

func normalize(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
