// Package redisstore keeps credentials in Redis, for server side deployments
// (a backend-for-frontend holding the session on behalf of a device).
package redisstore

import (
	"context"
	"time"

	"github.com/jrsteele09/go-auth-client/autherr"
	"github.com/jrsteele09/go-auth-client/securestore"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var _ securestore.KV = (*KV)(nil)

// KV stores each entry as a plain string key under prefix.
type KV struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

type Option func(*KV)

// WithTTL expires every entry after ttl. Zero keeps entries until cleared.
func WithTTL(ttl time.Duration) Option {
	return func(kv *KV) {
		kv.ttl = ttl
	}
}

// New returns a Store whose keys live under "<prefix>:<name>".
func New(rdb redis.UniversalClient, prefix string, options ...Option) securestore.Store {
	return securestore.NewKVStore(NewKV(rdb, prefix, options...))
}

func NewKV(rdb redis.UniversalClient, prefix string, options ...Option) *KV {
	kv := &KV{rdb: rdb, prefix: prefix}
	for _, opt := range options {
		opt(kv)
	}
	return kv
}

func (r *KV) key(name string) string {
	if r.prefix == "" {
		return name
	}
	return r.prefix + ":" + name
}

func (r *KV) Get(ctx context.Context, name string) (string, bool, error) {
	v, err := r.rdb.Get(ctx, r.key(name)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, autherr.Storage("read", errors.Wrap(err, "[redisstore] GET"))
	}
	return v, true, nil
}

func (r *KV) Set(ctx context.Context, name, value string) error {
	if err := r.rdb.Set(ctx, r.key(name), value, r.ttl).Err(); err != nil {
		return autherr.Storage("write", errors.Wrap(err, "[redisstore] SET"))
	}
	return nil
}

func (r *KV) Delete(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	keys := make([]string, 0, len(names))
	for _, n := range names {
		keys = append(keys, r.key(n))
	}
	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		return autherr.Storage("delete", errors.Wrap(err, "[redisstore] DEL"))
	}
	return nil
}
