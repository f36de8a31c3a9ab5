package backend

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"terapia/internal/api"
	"terapia/internal/cache"
	"terapia/internal/core"
	"terapia/internal/memory"
)

const (
	defaultSeedFile  = "data/seed.yaml"
	userCacheSize    = 256
	cacheCleanupTick = time.Minute
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case APIBackend:
		return f.createAPIBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createAPIBackend(config Config) (*BackendResult, error) {
	opts := []api.Option{}
	if config.APITimeout > 0 {
		opts = append(opts, api.WithHTTPClient(&http.Client{Timeout: config.APITimeout}))
	}
	if config.Observer != nil {
		opts = append(opts, api.WithObserver(config.Observer))
	}

	var manager *cache.Manager
	if config.UserCacheTTL > 0 {
		users := cache.NewLRUCache[core.User](userCacheSize, config.UserCacheTTL)
		manager = cache.NewManager()
		manager.Register(users)
		manager.StartCleanup(cacheCleanupTick)
		opts = append(opts, api.WithUserCache(users))
	}

	client := api.New(config.APIHost, opts...)

	f.logger.Info("Initialized API backend",
		"api_host", config.APIHost,
		"user_cache", manager != nil)

	return &BackendResult{
		Backend: client,
		Cleanup: func() error {
			if manager != nil {
				manager.Stop()
			}
			return nil
		},
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	seedFile := config.SeedFile
	if seedFile == "" {
		seedFile = defaultSeedFile
	}

	store, err := memory.NewFromFile(seedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
	}

	f.logger.Info("Initialized memory backend", "seed_file", seedFile)

	return &BackendResult{Backend: store}, nil
}
