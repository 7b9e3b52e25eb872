package devserver

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/jrsteele09/go-auth-client/internal/utils"
	"github.com/jrsteele09/go-auth-client/users"
	"github.com/pkg/errors"
)

const DefaultDemoName = "Demo User"

// SeedAccount creates an account so the server is usable straight away. An
// empty password generates one, which is returned so it can be shown once.
func (s *Server) SeedAccount(email, password, name string) (generatedPassword string, err error) {
	if _, err := s.repos.Users.GetByEmail(email); err == nil {
		s.logger.Info().Str("email", email).Msg("seed account already exists")
		return "", nil
	}

	if password == "" {
		if password, err = generatePassword(); err != nil {
			return "", err
		}
		generatedPassword = password
	}

	hash, err := users.HashPassword(password)
	if err != nil {
		return "", errors.Wrap(err, "[SeedAccount] HashPassword")
	}
	if name == "" {
		name = DefaultDemoName
	}
	account := &users.Account{
		User:         users.User{Email: email, Name: name, CreatedAt: utils.Ptr(NowTimeFunc().UTC())},
		PasswordHash: hash,
	}
	if err := s.repos.Users.Insert(account); err != nil {
		return "", errors.Wrap(err, "[SeedAccount] Insert")
	}

	s.logger.Info().Str("email", email).Str("user_id", account.ID).Msg("seed account created")
	return generatedPassword, nil
}

// generatePassword returns a random password that also passes the client's
// strength rules.
func generatePassword() (string, error) {
	passwordBytes := make([]byte, 12)
	if _, err := rand.Read(passwordBytes); err != nil {
		return "", errors.Wrap(err, "[generatePassword] rand.Read")
	}
	return fmt.Sprintf("Dev1%s", strings.TrimRight(base64.URLEncoding.EncodeToString(passwordBytes), "=")), nil
}
