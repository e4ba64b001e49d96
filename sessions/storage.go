package sessions

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Storage is a durable key-value store partitioned by browser scope.
// Get returns an error wrapping errors.ErrSessionNotFound when the key is absent.
type Storage interface {
	Get(ctx context.Context, scope, key string) ([]byte, error)
	Set(ctx context.Context, scope, key string, value []byte) error
	Delete(ctx context.Context, scope, key string) error
	Close() error
}

// Expirer is implemented by storages that need a periodic sweep of idle scopes
type Expirer interface {
	CleanupExpired(ctx context.Context) (int, error)
}

// Driver identifiers
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// Config selects and tunes a storage backend
type Config struct {
	Driver  string
	IdleTTL time.Duration
	Redis   RedisConfig
}

// RedisConfig captures connection options
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Dependencies carries handles owned by the caller
type Dependencies struct {
	DB *gorm.DB
}

// NewStorage creates the storage backend named by cfg.Driver
func NewStorage(ctx context.Context, cfg Config, deps Dependencies) (Storage, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewInMemoryStorage(cfg.IdleTTL), nil
	case DriverRedis:
		return NewRedisStorage(ctx, cfg.Redis, cfg.IdleTTL)
	case DriverSQLite:
		if deps.DB == nil {
			return nil, fmt.Errorf("[sessions NewStorage] sqlite driver requires a database handle")
		}
		return NewSQLiteStorage(deps.DB, cfg.IdleTTL)
	default:
		return nil, fmt.Errorf("[sessions NewStorage] unsupported session store driver: %s", cfg.Driver)
	}
}
