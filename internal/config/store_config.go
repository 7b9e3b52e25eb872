package config

import (
	"os"
	"path/filepath"
	"strings"
)

type StoreType string

const (
	StoreMemory StoreType = "memory"
	StoreFile   StoreType = "file"
	StoreRedis  StoreType = "redis"
)

type Store struct{}

var _ StoreConfig = Store{}

func (Store) GetStoreType() StoreType {
	switch StoreType(strings.ToLower(GetEnv("AUTH_STORE", string(StoreFile)))) {
	case StoreMemory:
		return StoreMemory
	case StoreRedis:
		return StoreRedis
	default:
		return StoreFile
	}
}

func (Store) GetStorePath() string {
	if path := os.Getenv("AUTH_STORE_PATH"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "credentials.enc")
	}
	return filepath.Join(home, ".forma", "credentials.enc")
}

func (Store) GetStorePassphrase() string {
	return GetEnv("AUTH_STORE_PASSPHRASE", "")
}

func (Store) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Store) GetRedisPrefix() string {
	return GetEnv("REDIS_PREFIX", "forma:auth")
}
