// Package core holds the configuration, logging, error and session storage
// primitives shared by every cashier package.
//
// The Memory interface is the key-value capability sessions are built on.
// Three backends exist:
//   - MemoryStore: process-local map with TTLs
//   - FileStore: JSON document on local disk, survives restarts
//   - RedisStore: go-redis backed, namespaced keys in a dedicated DB
//
// Database Allocation:
//   - DB 2: Sessions (default for RedisStore)
//
// Namespacing:
// Keys are prefixed with the namespace, e.g. "cashier:session:cart".
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore implements Memory on a Redis database with key namespacing.
type RedisStore struct {
	client    *redis.Client
	dbID      int
	namespace string
	logger    Logger
}

// RedisStoreOptions configures the Redis store
type RedisStoreOptions struct {
	RedisURL  string
	DB        int    // Redis DB number for isolation (0-15)
	Namespace string // Key namespace, e.g. "cashier:session"
	Logger    Logger // Optional logger
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(opts RedisStoreOptions) (*RedisStore, error) {
	logger := opts.Logger
	if logger == nil {
		logger = &NoOpLogger{}
	}

	if opts.RedisURL == "" {
		return nil, fmt.Errorf("redis URL is required: %w", ErrMissingConfiguration)
	}

	redisOpt, err := redis.ParseURL(opts.RedisURL)
	if err != nil {
		logger.Error("Failed to parse Redis URL", map[string]interface{}{
			"error":     err.Error(),
			"redis_url": opts.RedisURL,
		})
		return nil, fmt.Errorf("invalid Redis URL: %w", ErrInvalidConfiguration)
	}

	// Override DB for isolation
	if opts.DB >= 0 && opts.DB <= 15 {
		redisOpt.DB = opts.DB
	}

	store := &RedisStore{
		client:    redis.NewClient(redisOpt),
		dbID:      opts.DB,
		namespace: opts.Namespace,
		logger:    logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := store.HealthCheck(ctx); err != nil {
		logger.Error("Failed to connect to Redis", map[string]interface{}{
			"error":   err.Error(),
			"db":      opts.DB,
			"db_name": GetRedisDBName(opts.DB),
		})
		store.client.Close()
		return nil, fmt.Errorf("failed to connect to Redis DB %d: %w", opts.DB, err)
	}

	logger.Info("Redis session store connected", map[string]interface{}{
		"db":        opts.DB,
		"db_name":   GetRedisDBName(opts.DB),
		"namespace": opts.Namespace,
	})
	return store, nil
}

// Get retrieves a value. A missing key yields "" and no error.
func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, r.formatKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", r.wrap("memory.Get", key, err)
	}
	return val, nil
}

// Set stores a value with optional TTL
func (r *RedisStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.formatKey(key), value, ttl).Err(); err != nil {
		return r.wrap("memory.Set", key, err)
	}
	return nil
}

// Delete removes a key
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.formatKey(key)).Err(); err != nil {
		return r.wrap("memory.Delete", key, err)
	}
	return nil
}

// Exists checks if a key exists
func (r *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.formatKey(key)).Result()
	if err != nil {
		return false, r.wrap("memory.Exists", key, err)
	}
	return n > 0, nil
}

// HealthCheck verifies Redis connectivity. NewRedisStore runs it before
// returning the store.
func (r *RedisStore) HealthCheck(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %v: %w", err, ErrConnectionFailed)
	}
	return nil
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	r.logger.Debug("Closing Redis session store", map[string]interface{}{
		"db":        r.dbID,
		"namespace": r.namespace,
	})
	return r.client.Close()
}

// GetNamespace returns the namespace being used
func (r *RedisStore) GetNamespace() string {
	return r.namespace
}

// formatKey formats a key with the namespace
func (r *RedisStore) formatKey(key string) string {
	if r.namespace != "" {
		return fmt.Sprintf("%s:%s", r.namespace, key)
	}
	return key
}

func (r *RedisStore) wrap(op, key string, err error) error {
	r.logger.Warn("Redis operation failed", map[string]interface{}{
		"operation": op,
		"key":       key,
		"error":     err.Error(),
	})
	sentinel := ErrStoreUnavailable
	if errors.Is(err, redis.ErrClosed) {
		sentinel = ErrStoreClosed
	}
	return &FrameworkError{Op: op, Kind: "memory", ID: key, Err: fmt.Errorf("%v: %w", err, sentinel)}
}
