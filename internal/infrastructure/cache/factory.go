package cache

import (
	"fmt"
	"io"
	"time"

	"github.com/janytree/orderdesk/internal/application/report"
	"github.com/janytree/orderdesk/internal/infrastructure/config"
	"go.uber.org/zap"
)

// SessionStore is a report.SessionStore that owns resources released by Close.
type SessionStore interface {
	report.SessionStore
	io.Closer
}

// SessionStoreFactory creates session stores based on configuration
type SessionStoreFactory struct {
	redisConfig           config.RedisConfig
	cleanupInterval       time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// SessionStoreFactoryOption is a functional option for configuring the factory
type SessionStoreFactoryOption func(*SessionStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SessionStoreFactoryOption {
	return func(f *SessionStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory store when Redis is unavailable
// Default is true (allow fallback)
func WithInMemoryFallback(allow bool) SessionStoreFactoryOption {
	return func(f *SessionStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// WithCleanupInterval sets the eviction interval of the in-memory store
func WithCleanupInterval(d time.Duration) SessionStoreFactoryOption {
	return func(f *SessionStoreFactory) {
		f.cleanupInterval = d
	}
}

// NewSessionStoreFactory creates a new factory
func NewSessionStoreFactory(cfg config.RedisConfig, opts ...SessionStoreFactoryOption) *SessionStoreFactory {
	f := &SessionStoreFactory{
		redisConfig:           cfg,
		cleanupInterval:       DefaultCleanupInterval,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisStore creates a Redis-based session store
func (f *SessionStoreFactory) CreateRedisStore() (SessionStore, error) {
	store, err := NewRedisSessionStore(RedisConfig{
		Host:      f.redisConfig.Host,
		Port:      f.redisConfig.Port,
		Password:  f.redisConfig.Password,
		DB:        f.redisConfig.DB,
		KeyPrefix: f.redisConfig.KeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis session store: %w", err)
	}
	return store, nil
}

// CreateInMemoryStore creates an in-memory session store
// WARNING: In-memory sessions are only visible to the instance that created them
func (f *SessionStoreFactory) CreateInMemoryStore() SessionStore {
	return NewInMemorySessionStore(f.cleanupInterval)
}

// CreateStore creates the configured session store.
// With Redis disabled it returns the in-memory store. With Redis enabled but
// unreachable it falls back to in-memory only when fallback is allowed.
func (f *SessionStoreFactory) CreateStore() (SessionStore, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("using in-memory session store")
		return f.CreateInMemoryStore(), nil
	}

	store, err := f.CreateRedisStore()
	if err == nil {
		f.logger.Info("using Redis session store", zap.String("addr", f.redisConfig.Addr()))
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for sessions but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory session store. "+
		"Sessions will not be shared between instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryStore(), nil
}
