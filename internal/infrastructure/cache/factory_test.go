package cache

import (
	"testing"

	"github.com/janytree/orderdesk/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// unreachableRedis points at a closed local port.
func unreachableRedis() config.RedisConfig {
	return config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}
}

func TestSessionStoreFactory_CreateStore(t *testing.T) {
	t.Run("redis disabled uses in-memory", func(t *testing.T) {
		store, err := NewSessionStoreFactory(config.RedisConfig{}).CreateStore()
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemorySessionStore{}, store)
	})

	t.Run("falls back when redis is unreachable", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		store, err := NewSessionStoreFactory(unreachableRedis(), WithLogger(zap.New(core))).CreateStore()
		require.NoError(t, err)
		defer store.Close()

		assert.IsType(t, &InMemorySessionStore{}, store)
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("fails without fallback", func(t *testing.T) {
		_, err := NewSessionStoreFactory(unreachableRedis(), WithInMemoryFallback(false)).CreateStore()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Redis required")
	})
}
