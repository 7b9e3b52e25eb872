package jwt

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// TokenIntrospection represents the metadata of an access token.
// The 'active' field indicates the state of the token - if it's false, other fields may not be populated.
type TokenIntrospection struct {
	Active bool   `json:"active"`          // True or false - Is the token valid
	Sub    string `json:"sub,omitempty"`   // Users unique ID
	Email  string `json:"email,omitempty"` // Users email
	Jti    string `json:"jti,omitempty"`   // Token ID
	Exp    int64  `json:"exp,omitempty"`   // Expiration
	Iat    int64  `json:"iat,omitempty"`   // Issued at time
}

// RevokedChecker is an interface for checking if a token has been revoked
type RevokedChecker interface {
	IsRevoked(jti string) bool
}

// Inspector validates tokens signed by a Creator
type Inspector struct {
	creator        *Creator
	revokedChecker RevokedChecker
}

// NewInspector creates a new JWT inspector
func NewInspector(creator *Creator, revokedChecker RevokedChecker) *Inspector {
	return &Inspector{
		creator:        creator,
		revokedChecker: revokedChecker,
	}
}

// Introspect validates rawToken and extracts its claims. Expired, revoked or
// badly signed tokens come back inactive.
func (i *Inspector) Introspect(rawToken string) (*TokenIntrospection, error) {
	if strings.TrimSpace(rawToken) == "" {
		return &TokenIntrospection{Active: false}, nil
	}

	token, err := jwtlib.ParseWithClaims(rawToken, jwtlib.MapClaims{}, i.creator.verificationKey,
		jwtlib.WithTimeFunc(NowTimeFunc), jwtlib.WithIssuer(Issuer))
	if err != nil || !token.Valid {
		return &TokenIntrospection{Active: false}, err
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return &TokenIntrospection{Active: false}, errors.New("error extracting claims from token")
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	jti, _ := claims["jti"].(string)
	iat, _ := claims["iat"].(float64)
	exp, _ := claims["exp"].(float64)

	active := true
	// Check if token has been revoked
	if jti != "" && i.revokedChecker != nil && i.revokedChecker.IsRevoked(jti) {
		active = false
	}

	return &TokenIntrospection{
		Active: active,
		Sub:    sub,
		Email:  email,
		Jti:    jti,
		Exp:    int64(exp),
		Iat:    int64(iat),
	}, nil
}

// ExpiresAt returns the time at which the introspected token stops being valid.
func (t *TokenIntrospection) ExpiresAt() time.Time {
	return time.Unix(t.Exp, 0)
}
