package devserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-auth-client/autherr"
	"github.com/jrsteele09/go-auth-client/token/jwt"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyClaims stores the introspected access token
	ContextKeyClaims ContextKey = "claims"
)

// RequireAuth is middleware that validates the Bearer access token and puts
// its claims in the request context.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, autherr.CodeUnauthorized, "Missing bearer token", "")
				return
			}

			claims, err := s.inspector.Introspect(token)
			switch {
			case errors.Is(err, jwtlib.ErrTokenExpired):
				writeError(w, http.StatusUnauthorized, autherr.CodeTokenExpired, "Token expired", "")
				return
			case err != nil || !claims.Active:
				writeError(w, http.StatusUnauthorized, autherr.CodeInvalidToken, "Invalid token", "")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next(w, r.WithContext(ctx))
		}
	}
}

func claimsFrom(ctx context.Context) (*jwt.TokenIntrospection, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(*jwt.TokenIntrospection)
	return claims, ok
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
