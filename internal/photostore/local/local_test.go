package local

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/traincheck/internal/domain"
)

func TestLocalPhotoStoreSaveAndGet(t *testing.T) {
	tmpdir := t.TempDir()
	store, err := NewLocalPhotoStore(tmpdir)
	require.NoError(t, err)

	ctx := context.Background()
	imageData := []byte("fake jpeg data")

	key, err := store.Save(ctx, "photo-1", "image/jpeg", bytes.NewReader(imageData))
	require.NoError(t, err)
	assert.Equal(t, "photo-1.jpg", key)

	reader, mimeType, err := store.Get(ctx, key)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, "image/jpeg", mimeType)

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, imageData, data)
}

func TestLocalPhotoStoreSave_LeavesNoTempFiles(t *testing.T) {
	tmpdir := t.TempDir()
	store, err := NewLocalPhotoStore(tmpdir)
	require.NoError(t, err)

	_, err = store.Save(context.Background(), "photo-1", "image/png", bytes.NewReader([]byte("png")))
	require.NoError(t, err)

	entries, err := os.ReadDir(tmpdir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "photo-1.png", entries[0].Name())
}

func TestLocalPhotoStoreDelete(t *testing.T) {
	tmpdir := t.TempDir()
	store, err := NewLocalPhotoStore(tmpdir)
	require.NoError(t, err)

	ctx := context.Background()

	key, err := store.Save(ctx, "photo-1", "image/jpeg", bytes.NewReader([]byte("test data")))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, key))

	_, _, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocalPhotoStoreDelete_Missing(t *testing.T) {
	store, err := NewLocalPhotoStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Delete(context.Background(), "nonexistent.jpg"))
}

func TestLocalPhotoStoreNotFound(t *testing.T) {
	store, err := NewLocalPhotoStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.Get(context.Background(), "nonexistent.jpg")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocalPhotoStorePathTraversal(t *testing.T) {
	tmpdir := t.TempDir()
	store, err := NewLocalPhotoStore(filepath.Join(tmpdir, "photos"))
	require.NoError(t, err)

	ctx := context.Background()

	_, _, err = store.Get(ctx, "../../etc/passwd")
	assert.Error(t, err)

	_, err = store.Save(ctx, "../escape", "image/jpeg", bytes.NewReader([]byte("x")))
	assert.Error(t, err)

	assert.Error(t, store.Delete(ctx, "../outside.jpg"))
}
