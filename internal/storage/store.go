package storage

import (
	"context"

	"github.com/jayvdb/pep257-rs/internal/report"
)

// ResultStore persists per-file check results between runs.
type ResultStore interface {
	// Get returns the violations recorded for path when they were computed
	// for the same key.
	Get(ctx context.Context, path, key string) ([]report.Violation, bool, error)

	// Put records the violations for path under key, replacing older entries.
	Put(ctx context.Context, path, key string, violations []report.Violation) error

	// Delete forgets the given paths.
	Delete(ctx context.Context, paths []string) error

	Close() error
}
