package config

import (
	"path/filepath"
	"time"
)

type SessionBackend string

const (
	SessionBackendSQLite SessionBackend = "sqlite"
	SessionBackendRedis  SessionBackend = "redis"
	SessionBackendMemory SessionBackend = "memory"
)

type StorageConfig interface {
	GetSessionBackend() SessionBackend
	GetSessionDBPath() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisPrefix() string
	GetSessionTTL() time.Duration
}

type Storage struct{}

var _ StorageConfig = Storage{}

func (Storage) GetSessionBackend() SessionBackend {
	switch b := SessionBackend(GetEnv("SESSION_BACKEND", string(SessionBackendSQLite))); b {
	case SessionBackendSQLite, SessionBackendRedis, SessionBackendMemory:
		return b
	}
	return SessionBackendSQLite
}

func (Storage) GetSessionDBPath() string {
	return GetEnv("SESSION_DB", filepath.Join(EnvVars{}.GetDataFolder(), "session.db"))
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

// GetRedisPrefix namespaces the fixed session keys so several consoles can share one server.
func (Storage) GetRedisPrefix() string {
	return GetEnv("REDIS_PREFIX", "condo-console:session")
}

// GetSessionTTL expires a shared session after inactivity. Zero keeps it until logout.
func (Storage) GetSessionTTL() time.Duration {
	return GetEnvDuration("SESSION_TTL", 0)
}
