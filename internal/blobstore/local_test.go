package blobstore

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStorePutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())

	require.NoError(t, store.Put(ctx, "books/abc.txt", bytes.NewReader([]byte("hello world"))))

	r, err := store.Get(ctx, "books/abc.txt", 0, 0)
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(data))
}

func TestLocalStoreRangeRead(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())
	require.NoError(t, store.Put(ctx, "a.bin", bytes.NewReader([]byte("0123456789"))))

	r, err := store.Get(ctx, "a.bin", 3, 4)
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "3456", string(data))
}

func TestLocalStoreDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())

	require.NoError(t, store.Delete(ctx, "missing/never-existed.bin"))

	require.NoError(t, store.Put(ctx, "x.bin", bytes.NewReader([]byte("x"))))
	require.NoError(t, store.Delete(ctx, "x.bin"))
	require.NoError(t, store.Delete(ctx, "x.bin"))
}

func TestLocalStoreStat(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())
	require.NoError(t, store.Put(ctx, "sized.bin", bytes.NewReader([]byte("12345"))))

	st, err := store.Stat(ctx, "sized.bin")
	require.NoError(t, err)
	require.Equal(t, int64(5), st.Size)
}

func TestLocalStoreRejectsPathEscape(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := NewLocalStore(root)

	_, err := store.Get(ctx, filepath.Join("..", "escaped.bin"), 0, 0)
	require.Error(t, err)
}

func TestSessionChunkPath(t *testing.T) {
	require.Equal(t, "temp_chunks/sess-1/chunk_3.mp3", SessionChunkPath("sess-1", 3, "mp3"))
}
