package jwt

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Expiry reads the exp claim without verifying the signature. Clients use it
// to report token lifetime; it must never be used to trust a token.
// ok is false for opaque (non-JWT) tokens and tokens without exp.
func Expiry(rawToken string) (exp time.Time, ok bool) {
	token, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	date, err := token.Claims.GetExpirationTime()
	if err != nil || date == nil {
		return time.Time{}, false
	}
	return date.Time, true
}
