package fakeuserrepo

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/users"
)

var _ users.Repo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users    map[string]*users.Account
	emailIds map[string]string // email to user id
	lock     sync.RWMutex
}

func NewFakeUserRepo() users.Repo {
	return &FakeUserRepo{
		users:    make(map[string]*users.Account),
		emailIds: make(map[string]string),
	}
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (ur *FakeUserRepo) Insert(account *users.Account) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	email := normaliseEmail(account.Email)
	if _, ok := ur.emailIds[email]; ok {
		return autherrors.ErrUserExists
	}
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	stored := *account
	ur.users[account.ID] = &stored
	ur.emailIds[email] = account.ID
	return nil
}

func (ur *FakeUserRepo) GetByEmail(email string) (*users.Account, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[normaliseEmail(email)]
	if !ok {
		return nil, autherrors.ErrUserNotFound
	}
	account := *ur.users[id]
	return &account, nil
}

func (ur *FakeUserRepo) GetByID(id string) (*users.Account, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	stored, ok := ur.users[id]
	if !ok {
		return nil, autherrors.ErrUserNotFound
	}
	account := *stored
	return &account, nil
}

func (ur *FakeUserRepo) SetPassword(id, passwordHash string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	stored, ok := ur.users[id]
	if !ok {
		return autherrors.ErrUserNotFound
	}
	stored.PasswordHash = passwordHash
	return nil
}
