package session

import (
	"github.com/jrsteele09/go-auth-client/token/jwt"
	"golang.org/x/oauth2"
)

// ErrNoToken is returned by the TokenSource while signed out.
var ErrNoToken = errNoToken{}

type errNoToken struct{}

func (errNoToken) Error() string { return "session: no bearer token" }

type stateTokenSource struct {
	state *State
}

// TokenSource exposes the current bearer token so other HTTP clients can be
// built with oauth2.NewClient. It never refreshes; refreshing is the request
// coordinator's job.
func (s *State) TokenSource() oauth2.TokenSource {
	return stateTokenSource{state: s}
}

func (ts stateTokenSource) Token() (*oauth2.Token, error) {
	raw := ts.state.Token()
	if raw == "" {
		return nil, ErrNoToken
	}
	t := &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}
	if exp, ok := jwt.Expiry(raw); ok {
		t.Expiry = exp
	}
	return t, nil
}
