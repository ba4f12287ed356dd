package core

import "fmt"

// NewMemory builds the session store selected by cfg.Provider.
func NewMemory(cfg MemoryConfig, logger Logger) (Memory, error) {
	if logger == nil {
		logger = &NoOpLogger{}
	}

	switch cfg.Provider {
	case MemoryProviderInMemory, "":
		store := NewMemoryStore()
		store.SetLogger(logger)
		return store, nil
	case MemoryProviderFile:
		return NewFileStore(cfg.FilePath, logger)
	case MemoryProviderRedis:
		return NewRedisStore(RedisStoreOptions{
			RedisURL:  cfg.RedisURL,
			DB:        cfg.RedisDB,
			Namespace: cfg.Namespace,
			Logger:    logger,
		})
	default:
		return nil, fmt.Errorf("unknown memory provider %q: %w", cfg.Provider, ErrInvalidConfiguration)
	}
}
