package resettoken

import "time"

// Token is a single-use password reset grant.
type Token struct {
	Token     string
	UserID    string
	Email     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type Repo interface {
	Upsert(token Token) error
	Get(token string) (Token, error)
	Delete(token string) error
	// DeleteExpired removes every token that expired before now.
	DeleteExpired(now time.Time) int
}
