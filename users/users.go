package users

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// User is the account record the API returns on login, registration and
// refresh. It is replaced wholesale, never patched.
type User struct {
	ID        string     `json:"id"`                  // Unique identifier for the user
	Email     string     `json:"email"`               // User's email address
	Name      string     `json:"name"`                // Display name
	Avatar    *string    `json:"avatar,omitempty"`    // Avatar URL
	CreatedAt *time.Time `json:"createdAt,omitempty"` // Registration time
}

// Encode serialises u for the secure store.
func Encode(u User) (string, error) {
	data, err := json.Marshal(u)
	if err != nil {
		return "", errors.Wrap(err, "[users.Encode] json.Marshal")
	}
	return string(data), nil
}

// Decode parses a record written by Encode.
func Decode(data string) (*User, error) {
	var u User
	if err := json.Unmarshal([]byte(data), &u); err != nil {
		return nil, errors.Wrap(err, "[users.Decode] json.Unmarshal")
	}
	if u.ID == "" && u.Email == "" {
		return nil, errors.New("[users.Decode] empty user record")
	}
	return &u, nil
}

// Account is the server side view of a user.
type Account struct {
	User
	PasswordHash string `json:"-"` // never serialize
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CheckPassword compares password with the account's hash.
func (a *Account) CheckPassword(password string) bool {
	return CheckPasswordHash(password, a.PasswordHash)
}
