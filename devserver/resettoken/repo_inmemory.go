package resettoken

import (
	"sync"
	"time"

	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is an in-memory implementation of Repo
type InMemoryRepo struct {
	mu     sync.RWMutex
	tokens map[string]Token
	byUser map[string]string // userID -> token, one outstanding reset per user
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		tokens: make(map[string]Token),
		byUser: make(map[string]string),
	}
}

// Upsert stores token, replacing any earlier token issued to the same user.
func (r *InMemoryRepo) Upsert(token Token) error {
	if token.Token == "" {
		return autherrors.Wrapf(autherrors.ErrInvalidResetToken, "token is required")
	}
	if token.UserID == "" {
		return autherrors.Wrapf(autherrors.ErrInvalidResetToken, "userID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if previous, ok := r.byUser[token.UserID]; ok {
		delete(r.tokens, previous)
	}
	r.tokens[token.Token] = token
	r.byUser[token.UserID] = token.Token
	return nil
}

func (r *InMemoryRepo) Get(token string) (Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tokens[token]
	if !ok {
		return Token{}, autherrors.ErrInvalidResetToken
	}
	return t, nil
}

func (r *InMemoryRepo) Delete(token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[token]
	if !ok {
		return nil // Already gone
	}
	delete(r.tokens, token)
	if r.byUser[t.UserID] == token {
		delete(r.byUser, t.UserID)
	}
	return nil
}

func (r *InMemoryRepo) DeleteExpired(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, t := range r.tokens {
		if now.After(t.ExpiresAt) {
			delete(r.tokens, key)
			if r.byUser[t.UserID] == key {
				delete(r.byUser, t.UserID)
			}
			removed++
		}
	}
	return removed
}
