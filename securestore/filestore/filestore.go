// Package filestore keeps credentials in a single local file. Each value is
// sealed with XChaCha20-Poly1305 under a key derived from a passphrase with
// Argon2id; the entry name is bound in as additional data so values cannot be
// swapped between keys.
package filestore

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-auth-client/autherr"
	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/securestore"
	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	fileVersion = 1
	saltLength  = 16

	// Argon2id parameters (19 MiB, 2 passes).
	argonTime    = 2
	argonMemory  = 19 * 1024
	argonThreads = 1
)

type fileFormat struct {
	Version int               `json:"version"`
	Salt    string            `json:"salt"`
	Entries map[string]string `json:"entries"`
}

var _ securestore.KV = (*KV)(nil)

// KV is the encrypted file backend.
type KV struct {
	path       string
	passphrase []byte

	lock sync.Mutex
	salt []byte
	key  []byte
}

// New opens (or prepares to create) the credential file at path.
func New(path, passphrase string) (securestore.Store, error) {
	kv, err := NewKV(path, passphrase)
	if err != nil {
		return nil, err
	}
	return securestore.NewKVStore(kv), nil
}

func NewKV(path, passphrase string) (*KV, error) {
	if path == "" {
		return nil, autherr.Storage("open", errors.New("[filestore] path is required"))
	}
	if passphrase == "" {
		return nil, autherr.Storage("open", autherrors.ErrMissingKey)
	}
	return &KV{path: path, passphrase: []byte(passphrase)}, nil
}

func (f *KV) Get(_ context.Context, key string) (string, bool, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	file, err := f.read()
	if err != nil {
		return "", false, autherr.Storage("read", err)
	}
	sealed, ok := file.Entries[key]
	if !ok {
		return "", false, nil
	}
	value, err := f.open(key, sealed)
	if err != nil {
		return "", false, autherr.Storage("read", err)
	}
	return value, true, nil
}

func (f *KV) Set(_ context.Context, key, value string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	file, err := f.read()
	if err != nil {
		return autherr.Storage("write", err)
	}
	sealed, err := f.seal(key, value)
	if err != nil {
		return autherr.Storage("write", err)
	}
	file.Entries[key] = sealed
	if err := f.write(file); err != nil {
		return autherr.Storage("write", err)
	}
	return nil
}

func (f *KV) Delete(_ context.Context, keys ...string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	file, err := f.read()
	if err != nil {
		return autherr.Storage("delete", err)
	}
	changed := false
	for _, k := range keys {
		if _, ok := file.Entries[k]; ok {
			delete(file.Entries, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	if err := f.write(file); err != nil {
		return autherr.Storage("delete", err)
	}
	return nil
}

// read loads the file, returning an empty one when it does not exist yet.
func (f *KV) read() (*fileFormat, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		if f.salt == nil {
			if err := f.newSalt(); err != nil {
				return nil, err
			}
		}
		return &fileFormat{Version: fileVersion, Entries: map[string]string{}}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[filestore] read")
	}

	var file fileFormat
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, autherrors.Wrapf(autherrors.ErrCorruptStore, "[filestore] decode %s", f.path)
	}
	if file.Version != fileVersion {
		return nil, autherrors.Wrapf(autherrors.ErrCorruptStore, "[filestore] unsupported version %d", file.Version)
	}
	salt, err := base64.StdEncoding.DecodeString(file.Salt)
	if err != nil || len(salt) != saltLength {
		return nil, autherrors.Wrapf(autherrors.ErrCorruptStore, "[filestore] bad salt")
	}
	f.useSalt(salt)
	if file.Entries == nil {
		file.Entries = map[string]string{}
	}
	return &file, nil
}

func (f *KV) write(file *fileFormat) error {
	file.Version = fileVersion
	file.Salt = base64.StdEncoding.EncodeToString(f.salt)
	data, err := json.Marshal(file)
	if err != nil {
		return errors.Wrap(err, "[filestore] encode")
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "[filestore] mkdir")
	}
	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return errors.Wrap(err, "[filestore] create temp")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "[filestore] write temp")
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return errors.Wrap(err, "[filestore] chmod")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "[filestore] close temp")
	}
	return errors.Wrap(os.Rename(tmp.Name(), f.path), "[filestore] rename")
}

func (f *KV) newSalt() error {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return errors.Wrap(err, "[filestore] rand.Read")
	}
	f.useSalt(salt)
	return nil
}

func (f *KV) useSalt(salt []byte) {
	if f.key != nil && string(f.salt) == string(salt) {
		return
	}
	f.salt = salt
	f.key = argon2.IDKey(f.passphrase, salt, argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
}

func (f *KV) seal(name, value string) (string, error) {
	aead, err := chacha20poly1305.NewX(f.key)
	if err != nil {
		return "", errors.Wrap(err, "[filestore] cipher")
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(value)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", errors.Wrap(err, "[filestore] nonce")
	}
	sealed := aead.Seal(nonce, nonce, []byte(value), []byte(name))
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (f *KV) open(name, encoded string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", autherrors.Wrapf(autherrors.ErrCorruptStore, "[filestore] entry %s", name)
	}
	aead, err := chacha20poly1305.NewX(f.key)
	if err != nil {
		return "", errors.Wrap(err, "[filestore] cipher")
	}
	if len(sealed) < aead.NonceSize() {
		return "", autherrors.Wrapf(autherrors.ErrCorruptStore, "[filestore] entry %s", name)
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, []byte(name))
	if err != nil {
		return "", autherrors.Wrapf(autherrors.ErrCorruptStore, "[filestore] entry %s cannot be decrypted", name)
	}
	return string(plain), nil
}
