package memstore

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-auth-client/securestore"
)

var _ securestore.KV = (*KV)(nil)

// KV is an in-memory backend, used by tests and by the memory store type.
type KV struct {
	values map[string]string
	lock   sync.RWMutex
}

func NewKV() *KV {
	return &KV{values: make(map[string]string)}
}

// New returns an empty in-memory Store.
func New() securestore.Store {
	return securestore.NewKVStore(NewKV())
}

func (m *KV) Get(_ context.Context, key string) (string, bool, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *KV) Set(_ context.Context, key, value string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.values[key] = value
	return nil
}

func (m *KV) Delete(_ context.Context, keys ...string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}
