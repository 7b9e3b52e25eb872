// Package securestore defines where the client keeps its credentials between
// runs. Implementations return *autherr.Error of kind Storage on failure.
package securestore

import "context"

// Keys of the persisted entries. Every value is a string.
const (
	TokenKey        = "auth_token"
	RefreshTokenKey = "refresh_token"
	UserKey         = "user_data"
)

// Keys lists every entry ClearAll removes.
var Keys = []string{TokenKey, RefreshTokenKey, UserKey}

// Store persists the bearer token, refresh token and serialised user record.
// Getters report ok=false for an absent entry; that is not an error.
type Store interface {
	GetToken(ctx context.Context) (token string, ok bool, err error)
	SetToken(ctx context.Context, token string) error
	RemoveToken(ctx context.Context) error

	GetRefreshToken(ctx context.Context) (token string, ok bool, err error)
	SetRefreshToken(ctx context.Context, token string) error

	GetUser(ctx context.Context) (user string, ok bool, err error)
	SetUser(ctx context.Context, user string) error

	ClearAll(ctx context.Context) error
}

// KV is the minimal backend a Store is built on.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// NewKVStore adapts a KV backend to Store.
func NewKVStore(kv KV) Store {
	return kvStore{kv: kv}
}

type kvStore struct {
	kv KV
}

func (s kvStore) GetToken(ctx context.Context) (string, bool, error) {
	return s.kv.Get(ctx, TokenKey)
}

func (s kvStore) SetToken(ctx context.Context, token string) error {
	return s.kv.Set(ctx, TokenKey, token)
}

func (s kvStore) RemoveToken(ctx context.Context) error {
	return s.kv.Delete(ctx, TokenKey)
}

func (s kvStore) GetRefreshToken(ctx context.Context) (string, bool, error) {
	return s.kv.Get(ctx, RefreshTokenKey)
}

func (s kvStore) SetRefreshToken(ctx context.Context, token string) error {
	return s.kv.Set(ctx, RefreshTokenKey, token)
}

func (s kvStore) GetUser(ctx context.Context) (string, bool, error) {
	return s.kv.Get(ctx, UserKey)
}

func (s kvStore) SetUser(ctx context.Context, user string) error {
	return s.kv.Set(ctx, UserKey, user)
}

func (s kvStore) ClearAll(ctx context.Context) error {
	return s.kv.Delete(ctx, Keys...)
}
