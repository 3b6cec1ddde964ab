package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jayvdb/pep257-rs/internal/analyzer"
	"github.com/jayvdb/pep257-rs/internal/config"
	"github.com/jayvdb/pep257-rs/internal/crawler"
	"github.com/jayvdb/pep257-rs/internal/manifest"
	"github.com/jayvdb/pep257-rs/internal/pipeline"
	"github.com/jayvdb/pep257-rs/internal/report"
	"github.com/jayvdb/pep257-rs/internal/rules"
	"github.com/jayvdb/pep257-rs/internal/storage"
)

// app holds what every command needs once flags and config are merged.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	out     io.Writer
	errOut  io.Writer
	format  report.Format
	color   bool
	engine  *rules.Engine
	roles   *manifest.Resolver
	crawler *crawler.Crawler
	store   *storage.SQLiteStore
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := newLogger(cmd.ErrOrStderr(), verbosity)
	slog.SetDefault(logger)

	f, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}

	reg, err := rules.Default().Filter(cfg.Select, cfg.Ignore)
	if err != nil {
		return nil, err
	}
	mood := rules.DefaultMood().Extend(cfg.Vocabulary.Imperative, cfg.Vocabulary.NonImperative)

	cr, err := crawler.NewCrawler(cfg.Exclude)
	if err != nil {
		return nil, err
	}

	roles := manifest.NewResolver(cfg.FileModules)
	roles.Logger = logger

	a := &app{
		cfg:     cfg,
		logger:  logger,
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
		format:  f,
		color:   useColor(cfg.Color),
		engine:  rules.NewEngine(reg, mood),
		roles:   roles,
		crawler: cr,
	}

	if cfg.Cache != "" {
		store, err := storage.NewSQLiteStore(cfg.Cache)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache %s: %w", cfg.Cache, err)
		}
		a.store = store
	}
	return a, nil
}

// applyFlags lets explicitly set flags win over the config file.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("warnings") {
		cfg.Warnings = warnings
	}
	if flags.Changed("format") {
		cfg.Format = format
	}
	if flags.Changed("no-fail") {
		cfg.NoFail = noFail
	}
	if flags.Changed("cache") {
		cfg.Cache = cachePath
	}
	if flags.Changed("jobs") {
		cfg.Jobs = jobs
	}
	if flags.Changed("ignore") {
		cfg.Ignore = ignoreRules
	}
	if flags.Changed("select") {
		cfg.Select = selectRules
	}
	if flags.Changed("color") {
		cfg.Color = colorMode
	}
	if flags.Changed("file-modules") {
		cfg.FileModules = fileModules
	}
	if flags.Changed("exclude") {
		cfg.Exclude = append(cfg.Exclude, excludeGlobs...)
	}
	if flags.Lookup("recursive") != nil && flags.Changed("recursive") {
		cfg.Recursive = recursive
	}
}

func newLogger(w io.Writer, verbosity int) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case verbosity >= 2:
		level = slog.LevelDebug
	case verbosity == 1:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func useColor(mode string) bool {
	switch strings.ToLower(mode) {
	case "always":
		return true
	case "never":
		return false
	}
	return !color.NoColor
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("Failed to close cache", "error", err)
		}
	}
}

func (a *app) newAnalyzer(filter analyzer.ItemFilter) (*analyzer.Analyzer, error) {
	opts := analyzer.Options{
		Jobs:        a.cfg.Jobs,
		Roles:       a.roles,
		Filter:      filter,
		Fingerprint: a.fingerprint(),
		Logger:      a.logger,
	}
	if a.store != nil {
		opts.Cache = a.store
	}
	return analyzer.New(a.engine, opts)
}

// fingerprint covers the settings that change results without changing the
// source text.
func (a *app) fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%t|%s|%s", version, a.cfg.FileModules,
		strings.Join(a.cfg.Vocabulary.Imperative, ","),
		strings.Join(a.cfg.Vocabulary.NonImperative, ","))
	return hex.EncodeToString(h.Sum(nil))
}

// check checks target, a file or a directory, and prints the results.
func (a *app) check(ctx context.Context, target string, recursive bool) error {
	var results []report.FileResult
	var err error
	if sinceRef != "" {
		s := pipeline.NewIncrementalCheck(target, sinceRef, a.newAnalyzer)
		s.ChangedLinesOnly = changedLines
		s.Crawler = a.crawler
		s.Logger = a.logger
		if a.store != nil {
			s.Store = a.store
		}
		results, err = s.Run(ctx)
	} else {
		results, err = a.checkAll(ctx, target, recursive)
	}
	if err != nil {
		return err
	}

	shown, failed, err := a.emit(results)
	if err != nil {
		return err
	}
	if failed || (shown > 0 && !a.cfg.NoFail) {
		return errViolations
	}
	return nil
}

func (a *app) checkAll(ctx context.Context, target string, recursive bool) ([]report.FileResult, error) {
	files, err := a.crawler.Collect(target, recursive)
	if err != nil {
		return nil, err
	}
	an, err := a.newAnalyzer(nil)
	if err != nil {
		return nil, err
	}
	return an.CheckFiles(ctx, files)
}

// emit writes results and returns how many violations were shown and
// whether any file could not be checked.
func (a *app) emit(results []report.FileResult) (int, bool, error) {
	w, err := report.NewWriter(a.format, a.out, a.color)
	if err != nil {
		return 0, false, err
	}
	shown := 0
	failed := false
	for _, res := range results {
		if res.Err != nil {
			failed = true
			fmt.Fprintln(a.errOut, "Error:", res.Err)
			continue
		}
		res.Violations = report.FilterSeverity(res.Violations, a.cfg.Warnings)
		shown += len(res.Violations)
		if err := w.WriteFile(res); err != nil {
			return shown, failed, err
		}
	}
	return shown, failed, nil
}

func (a *app) watch(ctx context.Context, dir string, recursive bool) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	an, err := a.newAnalyzer(nil)
	if err != nil {
		return err
	}
	cfg := pipeline.WatchConfig{
		Root:      filepath.Clean(dir),
		Recursive: recursive,
		Crawler:   a.crawler,
		Analyzer:  an,
		Logger:    a.logger,
		OnResults: func(results []report.FileResult) {
			if _, _, err := a.emit(results); err != nil {
				a.logger.Error("Failed to write results", "error", err)
			}
		},
	}
	if a.store != nil {
		cfg.Store = a.store
	}
	w, err := pipeline.NewWatcher(cfg)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

func (a *app) listRules(out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, r := range a.engine.Registry().Rules() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Severity, r.Category, r.Name, r.Description)
	}
	return tw.Flush()
}
