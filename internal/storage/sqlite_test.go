package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jayvdb/pep257-rs/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_PutGet(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	vs := []report.Violation{
		{Rule: "D103", Message: "Missing docstring in public function", Line: 3, Column: 1, Severity: report.SevError},
		{Rule: "D401", Message: "First line should be in imperative mood", Line: 7, Column: 5, Severity: report.SevWarning},
	}
	require.NoError(t, store.Put(ctx, "src/lib.rs", "hash-1", vs))

	got, ok, err := store.Get(ctx, "src/lib.rs", "hash-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, vs, got)

	// A different key is a miss.
	_, ok, err = store.Get(ctx, "src/lib.rs", "hash-2")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = store.Get(ctx, "src/other.rs", "hash-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStore_PutReplaces(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a.rs", "old", []report.Violation{{Rule: "D400", Line: 1, Column: 1}}))
	require.NoError(t, store.Put(ctx, "a.rs", "new", nil))

	got, ok, err := store.Get(ctx, "a.rs", "new")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, got)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLiteStore_Delete(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a.rs", "k", nil))
	require.NoError(t, store.Put(ctx, "b.rs", "k", nil))
	require.NoError(t, store.Delete(ctx, []string{"a.rs", "missing.rs"}))
	require.NoError(t, store.Delete(ctx, nil))

	_, ok, err := store.Get(ctx, "a.rs", "k")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "a.rs", "k", []report.Violation{{Rule: "D100", Line: 1, Column: 1, Severity: report.SevError}}))
	require.NoError(t, store.Close())

	store, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()
	got, ok, err := store.Get(ctx, "a.rs", "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "D100", got[0].Rule)
	assert.Equal(t, report.SevError, got[0].Severity)
}
