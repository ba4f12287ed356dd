package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	ctx := context.Background()

	store, err := NewFileStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, KeyCart, `{"3":1}`, 0))
	require.NoError(t, store.Set(ctx, KeyToken, "tok", 0))
	require.NoError(t, store.Close())

	reopened, err := NewFileStore(path, nil)
	require.NoError(t, err)

	value, err := reopened.Get(ctx, KeyCart)
	require.NoError(t, err)
	assert.Equal(t, `{"3":1}`, value)

	require.NoError(t, reopened.Delete(ctx, KeyToken))

	again, err := NewFileStore(path, nil)
	require.NoError(t, err)
	exists, err := again.Exists(ctx, KeyToken)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFileStore_ExpiredEntriesAreNotFlushed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	ctx := context.Background()

	store, err := NewFileStore(path, nil)
	require.NoError(t, err)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, KeyToken, "short-lived", time.Second))
	now = now.Add(time.Minute)

	value, err := store.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, store.Set(ctx, KeyCart, `{}`, 0))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "short-lived")
}

func TestFileStore_CorruptDocumentMovedAside(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store, err := NewFileStore(path, nil)
	require.NoError(t, err)

	value, err := store.Get(ctx, KeyCart)
	require.NoError(t, err)
	assert.Empty(t, value)

	aside, err := os.ReadFile(path + CorruptSuffix)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(aside))

	require.NoError(t, store.Set(ctx, KeyCart, `{"1":1}`, 0))
	reopened, err := NewFileStore(path, nil)
	require.NoError(t, err)
	value, err = reopened.Get(ctx, KeyCart)
	require.NoError(t, err)
	assert.Equal(t, `{"1":1}`, value)
}

func TestFileStore_Closed(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "session.json"), nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	err = store.Set(context.Background(), KeyCart, "{}", 0)
	assert.True(t, errors.Is(err, ErrStoreClosed))
	assert.True(t, IsStorageError(err))
}

func TestFileStore_RequiresPath(t *testing.T) {
	_, err := NewFileStore("", nil)
	assert.True(t, IsConfigurationError(err))
}
