package store

import (
	"context"
	"strings"

	"github.com/miradorstack/meterd/internal/utils"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Options selects and configures a persistence backend.
type Options struct {
	Backend    string
	SQLitePath string
	Redis      RedisConfig
}

// Open builds the Provider named by opts.Backend. An empty backend means memory.
func Open(ctx context.Context, opts Options) (Provider, error) {
	switch strings.ToLower(opts.Backend) {
	case "", BackendMemory:
		return NewMemoryProvider(), nil
	case BackendSQLite:
		p, err := NewSQLiteProvider(ctx, opts.SQLitePath)
		if err != nil {
			return nil, utils.NewAppError("store.Open", "sqlite backend unavailable", err)
		}
		return p, nil
	case BackendRedis:
		p, err := NewRedisProvider(ctx, opts.Redis)
		if err != nil {
			return nil, utils.NewAppError("store.Open", "redis backend unavailable", err)
		}
		return p, nil
	default:
		return nil, utils.NewAppError("store.Open", "unknown backend "+opts.Backend, nil)
	}
}
