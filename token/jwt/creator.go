package jwt

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-client/users"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

const Issuer = "forma-devserver"

// Creator signs HS256 access tokens for the development server.
type Creator struct {
	secret []byte
	expiry time.Duration
}

// NewCreator creates a new JWT creator
func NewCreator(secret string, expiry time.Duration) *Creator {
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &Creator{
		secret: []byte(secret),
		expiry: expiry,
	}
}

// CreateAccessToken creates a bearer token for user
func (c *Creator) CreateAccessToken(user *users.User) (string, error) {
	now := NowTimeFunc()
	claims := jwtlib.MapClaims{
		"iss":   Issuer,                   // The issuer of the token
		"sub":   user.ID,                  // The user the token was issued for
		"email": user.Email,               // Convenience claim for clients
		"iat":   now.Unix(),               // Issued At: the time at which the token was issued
		"exp":   now.Add(c.expiry).Unix(), // Expiry: when the token will expire
		"jti":   uuid.New().String(),      // Unique token ID for revocation
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return signed, nil
}

func (c *Creator) verificationKey(token *jwtlib.Token) (any, error) {
	if _, ok := token.Method.(*jwtlib.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return c.secret, nil
}
