package config

import "time"

type StorageConfig interface {
	GetSessionStore() string
	GetSessionIdleTTL() time.Duration
	GetSessionCleanupSchedule() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisPrefix() string
	GetSQLitePath() string
	GetAccountsStore() string
}

type Storage struct{}

var _ StorageConfig = Storage{}

// GetSessionStore selects the session storage driver: memory, redis or sqlite
func (Storage) GetSessionStore() string {
	return GetEnv("SESSION_STORE", "memory")
}

// GetSessionIdleTTL is how long an untouched browser scope is kept
func (Storage) GetSessionIdleTTL() time.Duration {
	return GetEnvDuration("SESSION_IDLE_TTL", 30*24*time.Hour)
}

func (Storage) GetSessionCleanupSchedule() string {
	return GetEnv("SESSION_CLEANUP_SCHEDULE", "@every 10m")
}

func (Storage) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Storage) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (Storage) GetRedisDB() int {
	return GetEnvInt("REDIS_DB", 0)
}

func (Storage) GetRedisPrefix() string {
	return GetEnv("REDIS_PREFIX", "rift:scope:")
}

func (Storage) GetSQLitePath() string {
	return GetEnv("SQLITE_PATH", "./data/rift.db")
}

// GetAccountsStore selects where accounts live: sqlite or memory
func (Storage) GetAccountsStore() string {
	return GetEnv("ACCOUNTS_STORE", "sqlite")
}
