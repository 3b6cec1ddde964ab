// Package analyzer runs the per-file pipeline: classify items, harvest their
// docstrings, evaluate rules and aggregate the violations.
package analyzer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jayvdb/pep257-rs/internal/docstring"
	"github.com/jayvdb/pep257-rs/internal/extractor"
	"github.com/jayvdb/pep257-rs/internal/report"
	"github.com/jayvdb/pep257-rs/internal/rules"
)

// RoleResolver decides whether a file is a crate root or a module.
type RoleResolver interface {
	RoleFor(path string) extractor.FileRole
}

// Cache stores per-file violations keyed by a content hash.
type Cache interface {
	Get(ctx context.Context, path, key string) ([]report.Violation, bool, error)
	Put(ctx context.Context, path, key string, violations []report.Violation) error
}

// ItemFilter restricts which items are checked.
type ItemFilter interface {
	Keep(path string, item extractor.Item, doc *docstring.Docstring) bool
}

// Options configures an Analyzer. Zero values are usable.
type Options struct {
	Jobs        int
	Roles       RoleResolver
	Cache       Cache
	Filter      ItemFilter
	Fingerprint string // extra cache key material, e.g. vocabulary overrides
	Logger      *slog.Logger
}

// Analyzer checks Rust files against a rule engine.
type Analyzer struct {
	extractor   *extractor.Extractor
	engine      *rules.Engine
	opts        Options
	fingerprint string
}

type noRoles struct{}

func (noRoles) RoleFor(string) extractor.FileRole { return extractor.RoleNone }

// New creates an analyzer for Rust sources.
func New(engine *rules.Engine, opts Options) (*Analyzer, error) {
	ext, err := extractor.NewExtractor("rust")
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}
	if engine == nil {
		engine = rules.NewEngine(nil, nil)
	}
	if opts.Roles == nil {
		opts.Roles = noRoles{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.GOMAXPROCS(0)
	}

	ids := make([]string, 0, engine.Registry().Len())
	for _, r := range engine.Registry().Rules() {
		ids = append(ids, r.ID)
	}
	return &Analyzer{
		extractor:   ext,
		engine:      engine,
		opts:        opts,
		fingerprint: strings.Join(ids, ",") + "|" + opts.Fingerprint,
	}, nil
}

// CheckSource checks one file's contents.
func (a *Analyzer) CheckSource(ctx context.Context, path string, src []byte) ([]report.Violation, error) {
	role := a.opts.Roles.RoleFor(path)
	file, err := a.extractor.ExtractFromSource(ctx, path, src, role)
	if err != nil {
		return nil, err
	}
	lists := make([][]report.Violation, 0, len(file.Items))
	for _, item := range file.Items {
		doc := docstring.Harvest(item, file.Lines)
		if a.opts.Filter != nil && !a.opts.Filter.Keep(path, item, doc) {
			continue
		}
		lists = append(lists, a.engine.Evaluate(item, doc))
	}
	return report.Aggregate(lists...), nil
}

// CheckFile reads and checks one file. Failures are reported in the result.
func (a *Analyzer) CheckFile(ctx context.Context, path string) report.FileResult {
	a.opts.Logger.Info("Processing file", "path", path)
	res := report.FileResult{Path: path}

	src, err := os.ReadFile(path)
	if err != nil {
		res.Err = fmt.Errorf("failed to read file %s: %w", path, err)
		return res
	}

	// Filtered results depend on more than the file contents.
	useCache := a.opts.Cache != nil && a.opts.Filter == nil
	var key string
	if useCache {
		key = a.cacheKey(path, src)
		vs, ok, err := a.opts.Cache.Get(ctx, path, key)
		if err != nil {
			a.opts.Logger.Warn("Cache lookup failed", "path", path, "error", err)
		} else if ok {
			a.opts.Logger.Debug("Cache hit", "path", path)
			res.Violations = vs
			return res
		}
	}

	vs, err := a.CheckSource(ctx, path, src)
	if err != nil {
		res.Err = err
		return res
	}
	res.Violations = vs

	if useCache {
		if err := a.opts.Cache.Put(ctx, path, key, vs); err != nil {
			a.opts.Logger.Warn("Cache update failed", "path", path, "error", err)
		}
	}
	return res
}

// CheckFiles checks paths concurrently and returns results in input order.
// Only cancellation of ctx is returned as an error.
func (a *Analyzer) CheckFiles(ctx context.Context, paths []string) ([]report.FileResult, error) {
	results := make([]report.FileResult, len(paths))
	if len(paths) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(a.opts.Jobs, len(paths)))
	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = a.CheckFile(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (a *Analyzer) cacheKey(path string, src []byte) string {
	h := sha256.New()
	h.Write([]byte(a.fingerprint))
	h.Write([]byte{0})
	fmt.Fprintf(h, "%d", a.opts.Roles.RoleFor(path))
	h.Write([]byte{0})
	h.Write(src)
	return hex.EncodeToString(h.Sum(nil))
}
