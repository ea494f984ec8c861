package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalTestStore(t *testing.T) Storage {
	t.Helper()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestNewLocal(t *testing.T) {
	t.Run("empty dir", func(t *testing.T) {
		store, err := NewLocal("")
		assert.Error(t, err)
		assert.Nil(t, store)
	})

	t.Run("creates directory", func(t *testing.T) {
		dir := t.TempDir() + "/nested/uploads"
		store, err := NewLocal(dir)
		assert.NoError(t, err)
		assert.NotNil(t, store)
	})
}

func TestLocalStorage_PutGet(t *testing.T) {
	store := newLocalTestStore(t)
	ctx := context.Background()

	info, err := store.Put(ctx, "documents/key.txt", strings.NewReader("hello"), PutObjectOptions{
		Size:        5,
		ContentType: "text/plain",
		Metadata:    map[string]string{"original-filename": "hello.txt"},
	})
	require.NoError(t, err)
	assert.Equal(t, "documents/key.txt", info.Key)
	assert.Equal(t, int64(5), info.Size)
	assert.Equal(t, "text/plain", info.ContentType)

	rc, got, err := store.Get(ctx, "documents/key.txt")
	require.NoError(t, err)
	defer rc.Close()

	assert.Equal(t, int64(5), got.Size)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestLocalStorage_GetMissing(t *testing.T) {
	store := newLocalTestStore(t)

	rc, _, err := store.Get(context.Background(), "documents/missing.txt")

	assert.ErrorIs(t, err, ErrNotExist)
	assert.Nil(t, rc)
}

func TestLocalStorage_Exists(t *testing.T) {
	store := newLocalTestStore(t)
	ctx := context.Background()

	_, err := store.Put(ctx, "documents/key.txt", strings.NewReader("hello"), PutObjectOptions{})
	require.NoError(t, err)

	exists, err := store.Exists(ctx, "documents/key.txt")
	assert.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.Exists(ctx, "documents/missing.txt")
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalStorage_Delete(t *testing.T) {
	store := newLocalTestStore(t)
	ctx := context.Background()

	_, err := store.Put(ctx, "documents/key.txt", strings.NewReader("hello"), PutObjectOptions{})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "documents/key.txt"))

	exists, err := store.Exists(ctx, "documents/key.txt")
	assert.NoError(t, err)
	assert.False(t, exists)

	// Deleting again is not an error.
	assert.NoError(t, store.Delete(ctx, "documents/key.txt"))
}

func TestLocalStorage_RejectsEscapingKeys(t *testing.T) {
	store := newLocalTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"", "../outside.txt", "documents/../../outside.txt"} {
		t.Run("key "+key, func(t *testing.T) {
			_, err := store.Put(ctx, key, strings.NewReader("x"), PutObjectOptions{})
			assert.Error(t, err)

			_, _, err = store.Get(ctx, key)
			assert.Error(t, err)

			assert.Error(t, store.Delete(ctx, key))
		})
	}
}

func TestLocalStorage_CanceledContext(t *testing.T) {
	store := newLocalTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Put(ctx, "documents/key.txt", strings.NewReader("x"), PutObjectOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}
