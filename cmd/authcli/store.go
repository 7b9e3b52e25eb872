package main

import (
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/securestore"
	"github.com/jrsteele09/go-auth-client/securestore/filestore"
	"github.com/jrsteele09/go-auth-client/securestore/memstore"
	"github.com/jrsteele09/go-auth-client/securestore/redisstore"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// openStore returns the configured credential store and a func releasing it.
func openStore(c config.StoreConfig) (securestore.Store, func(), error) {
	switch c.GetStoreType() {
	case config.StoreMemory:
		return memstore.New(), func() {}, nil
	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{Addr: c.GetRedisAddr()})
		return redisstore.New(rdb, c.GetRedisPrefix()), func() { _ = rdb.Close() }, nil
	default:
		store, err := filestore.New(c.GetStorePath(), c.GetStorePassphrase())
		if err != nil {
			return nil, nil, errors.Wrap(err, "filestore.New")
		}
		return store, func() {}, nil
	}
}
