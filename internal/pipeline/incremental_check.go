package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jayvdb/pep257-rs/internal/analysis"
	"github.com/jayvdb/pep257-rs/internal/analyzer"
	"github.com/jayvdb/pep257-rs/internal/crawler"
	"github.com/jayvdb/pep257-rs/internal/git"
	"github.com/jayvdb/pep257-rs/internal/report"
	"github.com/jayvdb/pep257-rs/internal/storage"
)

// ChangeSource lists files changed relative to a base revision.
type ChangeSource interface {
	ChangedFiles(ctx context.Context, dir, baseRef string) ([]git.ChangedFile, error)
}

// GitChanges reads changes from the git work tree.
type GitChanges struct{}

func (GitChanges) ChangedFiles(ctx context.Context, dir, baseRef string) ([]git.ChangedFile, error) {
	return git.GetChangedFiles(ctx, dir, baseRef)
}

// AnalyzerFactory builds an analyzer restricted by filter, which may be nil.
type AnalyzerFactory func(filter analyzer.ItemFilter) (*analyzer.Analyzer, error)

// IncrementalCheck checks only the Rust files changed since BaseRef.
type IncrementalCheck struct {
	Root    string
	BaseRef string

	// ChangedLinesOnly limits reports to items whose lines changed.
	ChangedLinesOnly bool

	Changes     ChangeSource
	Crawler     *crawler.Crawler
	Store       storage.ResultStore
	NewAnalyzer AnalyzerFactory
	Logger      *slog.Logger
}

type checkPlan struct {
	Impact *analysis.Impact
	Files  []string
}

func NewIncrementalCheck(root, baseRef string, factory AnalyzerFactory) *IncrementalCheck {
	return &IncrementalCheck{
		Root:        root,
		BaseRef:     baseRef,
		Changes:     GitChanges{},
		NewAnalyzer: factory,
		Logger:      slog.Default(),
	}
}

func (s *IncrementalCheck) Run(ctx context.Context) ([]report.FileResult, error) {
	plan, err := s.detectChangesStage(ctx)
	if err != nil {
		return nil, err
	}

	if s.Store != nil {
		if err := s.Store.Delete(ctx, plan.Impact.Deleted()); err != nil {
			s.Logger.Warn("Failed to drop deleted files from cache", "error", err)
		}
	}

	if len(plan.Files) == 0 {
		s.Logger.Info("No changes detected", "base", s.BaseRef)
		return nil, nil
	}
	s.Logger.Info("Detected changed files", "count", len(plan.Files), "base", s.BaseRef)

	return s.checkStage(ctx, plan)
}

func (s *IncrementalCheck) detectChangesStage(ctx context.Context) (*checkPlan, error) {
	dir := s.Root
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	changes, err := s.Changes.ChangedFiles(ctx, dir, s.BaseRef)
	if err != nil {
		return nil, fmt.Errorf("failed to get git changes: %w", err)
	}

	impact := analysis.NewImpact(git.FilterExt(changes, ".rs"))
	root, err := filepath.Abs(s.Root)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, f := range impact.Files() {
		if !within(root, f) {
			continue
		}
		if s.Crawler != nil && s.skipped(root, f) {
			continue
		}
		files = append(files, f)
	}
	return &checkPlan{Impact: impact, Files: files}, nil
}

func (s *IncrementalCheck) checkStage(ctx context.Context, plan *checkPlan) ([]report.FileResult, error) {
	var filter analyzer.ItemFilter
	if s.ChangedLinesOnly {
		filter = plan.Impact
	}
	a, err := s.NewAnalyzer(filter)
	if err != nil {
		return nil, err
	}
	return a.CheckFiles(ctx, plan.Files)
}

// skipped reports whether a directory scan of root would miss path.
func (s *IncrementalCheck) skipped(root, path string) bool {
	if s.Crawler.Excluded(root, path) {
		return true
	}
	for dir := filepath.Dir(path); dir != root && within(root, dir); dir = filepath.Dir(dir) {
		if s.Crawler.SkipDir(root, dir) {
			return true
		}
	}
	return false
}

// within reports whether path is root or lies below it.
func within(root, path string) bool {
	if root == path {
		return true
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
