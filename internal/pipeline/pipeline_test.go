package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jayvdb/pep257-rs/internal/analyzer"
	"github.com/jayvdb/pep257-rs/internal/crawler"
	"github.com/jayvdb/pep257-rs/internal/git"
	"github.com/jayvdb/pep257-rs/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChanges struct {
	changes []git.ChangedFile
	err     error
}

func (f fakeChanges) ChangedFiles(context.Context, string, string) ([]git.ChangedFile, error) {
	return f.changes, f.err
}

func factory(t *testing.T) AnalyzerFactory {
	return func(filter analyzer.ItemFilter) (*analyzer.Analyzer, error) {
		return analyzer.New(nil, analyzer.Options{Filter: filter, Jobs: 2})
	}
}

const twoFunctions = `/// Add.
pub fn add() {}

pub fn sub() {}
`

func TestIncrementalCheck(t *testing.T) {
	root := t.TempDir()
	lib := filepath.Join(root, "lib.rs")
	gen := filepath.Join(root, "gen", "out.rs")
	require.NoError(t, os.WriteFile(lib, []byte(twoFunctions), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Dir(gen), 0o755))
	require.NoError(t, os.WriteFile(gen, []byte("pub fn g() {}\n"), 0o644))

	cr, err := crawler.NewCrawler([]string{"gen/**"})
	require.NoError(t, err)

	changes := fakeChanges{changes: []git.ChangedFile{
		{Path: lib, ChangedLines: []int{1}},
		{Path: gen, ChangedLines: []int{1}},
		{Path: filepath.Join(root, "README.md"), ChangedLines: []int{1}},
		{Path: filepath.Join(t.TempDir(), "elsewhere.rs"), ChangedLines: []int{1}},
	}}

	t.Run("Whole files", func(t *testing.T) {
		s := NewIncrementalCheck(root, "HEAD", factory(t))
		s.Changes = changes
		s.Crawler = cr
		results, err := s.Run(context.Background())
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, lib, results[0].Path)
		require.Len(t, results[0].Violations, 1)
		assert.Equal(t, "D103", results[0].Violations[0].Rule)
		assert.Equal(t, 4, results[0].Violations[0].Line)
	})

	t.Run("Changed lines only", func(t *testing.T) {
		s := NewIncrementalCheck(root, "HEAD", factory(t))
		s.Changes = changes
		s.Crawler = cr
		s.ChangedLinesOnly = true
		results, err := s.Run(context.Background())
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Empty(t, results[0].Violations)
	})

	t.Run("No changes", func(t *testing.T) {
		s := NewIncrementalCheck(root, "HEAD", factory(t))
		s.Changes = fakeChanges{}
		results, err := s.Run(context.Background())
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("Git failure", func(t *testing.T) {
		s := NewIncrementalCheck(root, "HEAD", factory(t))
		s.Changes = fakeChanges{err: errors.New("not a repository")}
		_, err := s.Run(context.Background())
		assert.Error(t, err)
	})
}

func TestWithin(t *testing.T) {
	root := filepath.Join("/", "repo")
	assert.True(t, within(root, root))
	assert.True(t, within(root, filepath.Join(root, "src", "lib.rs")))
	assert.False(t, within(root, filepath.Join("/", "repo2", "lib.rs")))
	assert.False(t, within(root, filepath.Join("/", "other")))
}

func TestWatcher(t *testing.T) {
	root := t.TempDir()
	lib := filepath.Join(root, "lib.rs")
	require.NoError(t, os.WriteFile(lib, []byte("/// Add.\npub fn add() {}\n"), 0o644))

	cr, err := crawler.NewCrawler(nil)
	require.NoError(t, err)
	a, err := analyzer.New(nil, analyzer.Options{})
	require.NoError(t, err)

	batches := make(chan []report.FileResult, 10)
	w, err := NewWatcher(WatchConfig{
		Root:          root,
		Recursive:     true,
		DebounceDelay: 20 * time.Millisecond,
		Crawler:       cr,
		Analyzer:      a,
		OnResults:     func(rs []report.FileResult) { batches <- rs },
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	var initial []report.FileResult
	select {
	case initial = <-batches:
	case <-time.After(5 * time.Second):
		t.Fatal("no initial results")
	}
	require.Len(t, initial, 1)
	assert.Empty(t, initial[0].Violations)

	require.NoError(t, os.WriteFile(lib, []byte("pub fn add() {}\n"), 0o644))

	deadline := time.After(5 * time.Second)
	var found bool
	for !found {
		select {
		case rs := <-batches:
			for _, r := range rs {
				if r.Path == lib && len(r.Violations) == 1 && r.Violations[0].Rule == "D103" {
					found = true
				}
			}
		case <-deadline:
			t.Fatal("change was not re-checked")
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestNewWatcher_RequiresAnalyzer(t *testing.T) {
	_, err := NewWatcher(WatchConfig{Root: t.TempDir()})
	assert.Error(t, err)
}
