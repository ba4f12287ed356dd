package core

import (
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMemory(t *testing.T) {
	t.Run("inmemory", func(t *testing.T) {
		mem, err := NewMemory(MemoryConfig{Provider: MemoryProviderInMemory}, nil)
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, mem)
	})

	t.Run("file", func(t *testing.T) {
		mem, err := NewMemory(MemoryConfig{
			Provider: MemoryProviderFile,
			FilePath: filepath.Join(t.TempDir(), "session.json"),
		}, nil)
		require.NoError(t, err)
		assert.IsType(t, &FileStore{}, mem)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		mem, err := NewMemory(MemoryConfig{
			Provider:  MemoryProviderRedis,
			RedisURL:  "redis://" + mr.Addr(),
			RedisDB:   RedisDBSessions,
			Namespace: "cashier:session",
		}, nil)
		require.NoError(t, err)
		assert.IsType(t, &RedisStore{}, mem)
		require.NoError(t, mem.(Closer).Close())
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := NewMemory(MemoryConfig{Provider: "etcd"}, nil)
		assert.True(t, IsConfigurationError(err))
	})
}
