// Package manifest decides which Rust files are crate roots, reading Cargo.toml
// target declarations where present.
package manifest

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/jayvdb/pep257-rs/internal/extractor"
)

// Cargo is the subset of Cargo.toml that names crate root files.
type Cargo struct {
	Package packageSection `toml:"package"`
	Lib     *Target        `toml:"lib"`
	Bin     []Target       `toml:"bin"`
	Example []Target       `toml:"example"`
	Test    []Target       `toml:"test"`
	Bench   []Target       `toml:"bench"`
}

type packageSection struct {
	Name  string `toml:"name"`
	Build any    `toml:"build"` // path string, or false to disable
}

// Target is one [lib] or [[bin]]-style table.
type Target struct {
	Name string `toml:"name"`
	Path string `toml:"path"`
}

// rootBasenames are crate roots by naming convention.
var rootBasenames = map[string]bool{
	"lib.rs":   true,
	"main.rs":  true,
	"mod.rs":   true,
	"build.rs": true,
}

// Load parses a Cargo.toml file.
func Load(path string) (*Cargo, error) {
	var c Cargo
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	return &c, nil
}

// RootPaths returns the absolute paths of the crate roots declared in the
// manifest located in dir, plus Cargo's auto-discovered src/bin files.
func (c *Cargo) RootPaths(dir string) []string {
	var paths []string
	add := func(p string) {
		if p == "" {
			return
		}
		paths = append(paths, filepath.Clean(filepath.Join(dir, filepath.FromSlash(p))))
	}
	if c.Lib != nil {
		add(c.Lib.Path)
	}
	for _, group := range [][]Target{c.Bin, c.Example, c.Test, c.Bench} {
		for _, t := range group {
			add(t.Path)
		}
	}
	if build, ok := c.Package.Build.(string); ok {
		add(build)
	}
	if matches, err := filepath.Glob(filepath.Join(dir, "src", "bin", "*.rs")); err == nil {
		paths = append(paths, matches...)
	}
	return paths
}

// FindCargoToml walks up from startDir to locate Cargo.toml.
func FindCargoToml(startDir string) (string, bool, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "Cargo.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Resolver assigns file roles. It is safe for concurrent use and parses each
// Cargo.toml at most once.
type Resolver struct {
	FileModules bool
	Logger      *slog.Logger

	mu    sync.Mutex
	roots map[string]map[string]bool // manifest path -> crate root paths
}

// NewResolver creates a resolver. With fileModules set, every file that is
// not a crate root becomes a module.
func NewResolver(fileModules bool) *Resolver {
	return &Resolver{
		FileModules: fileModules,
		Logger:      slog.Default(),
		roots:       make(map[string]map[string]bool),
	}
}

// RoleFor returns the role of the file at path.
func (r *Resolver) RoleFor(path string) extractor.FileRole {
	if rootBasenames[filepath.Base(path)] || r.declaredRoot(path) {
		return extractor.RolePackageRoot
	}
	if r.FileModules {
		return extractor.RoleModule
	}
	return extractor.RoleNone
}

func (r *Resolver) declaredRoot(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	manifestPath, ok, err := FindCargoToml(filepath.Dir(abs))
	if err != nil || !ok {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	roots, cached := r.roots[manifestPath]
	if !cached {
		roots = make(map[string]bool)
		c, err := Load(manifestPath)
		if err != nil {
			r.Logger.Warn("Ignoring unreadable manifest", "path", manifestPath, "error", err)
		} else {
			for _, p := range c.RootPaths(filepath.Dir(manifestPath)) {
				roots[p] = true
			}
		}
		r.roots[manifestPath] = roots
	}
	return roots[abs]
}
