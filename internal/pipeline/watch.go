package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jayvdb/pep257-rs/internal/analyzer"
	"github.com/jayvdb/pep257-rs/internal/crawler"
	"github.com/jayvdb/pep257-rs/internal/report"
	"github.com/jayvdb/pep257-rs/internal/storage"
)

// WatchConfig configures Watch.
type WatchConfig struct {
	Root      string
	Recursive bool

	// DebounceDelay is how long changes accumulate before a re-check.
	DebounceDelay time.Duration

	Crawler  *crawler.Crawler
	Analyzer *analyzer.Analyzer
	Store    storage.ResultStore
	Logger   *slog.Logger

	// OnResults receives every batch of results, starting with the full
	// initial check.
	OnResults func(results []report.FileResult)
}

// Watcher re-checks Rust files as they change.
type Watcher struct {
	config  WatchConfig
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op // path → most recent operation
}

// NewWatcher creates a watcher. Call Run to start it.
func NewWatcher(config WatchConfig) (*Watcher, error) {
	if config.Analyzer == nil || config.Crawler == nil {
		return nil, errors.New("watch needs an analyzer and a crawler")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.DebounceDelay == 0 {
		config.DebounceDelay = 200 * time.Millisecond
	}
	if config.OnResults == nil {
		config.OnResults = func([]report.FileResult) {}
	}

	return &Watcher{
		config:  config,
		watcher: fsw,
		logger:  logger,
		pending: make(map[string]fsnotify.Op),
	}, nil
}

// Run performs an initial check, then re-checks changed files until ctx is
// done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	dirs, err := w.config.Crawler.Dirs(w.config.Root, w.config.Recursive)
	if err != nil {
		return err
	}
	for _, d := range dirs {
		w.addWatch(d)
	}

	files, err := w.config.Crawler.Collect(w.config.Root, w.config.Recursive)
	if err != nil {
		return err
	}
	results, err := w.config.Analyzer.CheckFiles(ctx, files)
	if err != nil {
		return err
	}
	w.config.OnResults(results)

	w.logger.Info("File watcher started",
		"root", w.config.Root,
		"debounce", w.config.DebounceDelay)

	ticker := time.NewTicker(w.config.DebounceDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			if err := w.flushPending(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
		}
	}
}

func (w *Watcher) addWatch(dir string) {
	if err := w.watcher.Add(dir); err != nil {
		w.logger.Warn("Failed to watch directory", "path", dir, "error", err)
		return
	}
	w.logger.Debug("Watching directory", "path", dir)
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	if !strings.HasSuffix(path, ".rs") {
		if w.config.Recursive && event.Has(fsnotify.Create) {
			if info, err := os.Stat(path); err == nil && info.IsDir() && !w.config.Crawler.SkipDir(w.config.Root, path) {
				w.addWatch(path)
			}
		}
		return
	}
	if w.config.Crawler.Excluded(w.config.Root, path) {
		return
	}

	w.pendingMu.Lock()
	w.pending[path] = event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("File change detected", "path", path, "op", event.Op.String())
}

// flushPending re-checks the files changed since the last flush.
func (w *Watcher) flushPending(ctx context.Context) error {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return nil
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	var changed, removed []string
	for path := range toProcess {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			removed = append(removed, path)
			continue
		}
		changed = append(changed, path)
	}
	sort.Strings(changed)
	sort.Strings(removed)

	if len(removed) > 0 && w.config.Store != nil {
		if err := w.config.Store.Delete(ctx, removed); err != nil {
			w.logger.Warn("Failed to drop removed files from cache", "error", err)
		}
	}
	if len(changed) == 0 {
		return nil
	}

	results, err := w.config.Analyzer.CheckFiles(ctx, changed)
	if err != nil {
		return err
	}
	w.config.OnResults(results)
	return nil
}
