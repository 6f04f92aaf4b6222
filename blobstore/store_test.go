package blobstore

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/scalareval/internal/fs"
)

func testStore(t *testing.T, store Store) {
	ctx := t.Context()
	data := []byte("f32_10_sets_with_10_values.bin payload")

	// Streaming write.
	w, err := store.Create(ctx, "corpora/a.bin")
	require.NoError(t, err)
	n, err := w.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())

	// One-shot write.
	require.NoError(t, store.Put(ctx, "corpora/b.bin", []byte("b")))
	require.NoError(t, store.Put(ctx, "other.bin", nil))

	blob, err := store.Open(ctx, "corpora/a.bin")
	require.NoError(t, err)
	defer blob.Close()
	assert.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 3)
	n, err = blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "f32", string(buf[:n]))

	rc, err := blob.ReadRange(ctx, 4, 2)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "10", string(got))

	rc, err = blob.ReadRange(ctx, 0, blob.Size())
	require.NoError(t, err)
	got, err = io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	names, err := store.List(ctx, "corpora/")
	require.NoError(t, err)
	assert.Equal(t, []string{"corpora/a.bin", "corpora/b.bin"}, names)

	names, err = store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, names, 3)

	// Aborted writes never become visible.
	w, err = store.Create(ctx, "corpora/c.bin")
	require.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, Abort(w))
	_, err = store.Open(ctx, "corpora/c.bin")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Delete(ctx, "corpora/b.bin"))
	require.NoError(t, store.Delete(ctx, "corpora/b.bin"))
	_, err = store.Open(ctx, "corpora/b.bin")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestLocalStore(t *testing.T) {
	testStore(t, NewLocalStore(t.TempDir()))
}

func TestLocalStore_ListMissingRoot(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "missing"))
	names, err := store.List(t.Context(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLocalStore_FailedCloseLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule(".tmp", fs.Fault{FailAfterBytes: -1, FailOnSync: true})
	store := NewLocalStore(dir).WithFileSystem(ffs)

	err := store.Put(t.Context(), "x.bin", []byte("data"))
	require.ErrorIs(t, err, fs.ErrInjected)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
