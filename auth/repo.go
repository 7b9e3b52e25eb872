package auth

import (
	"context"

	"github.com/jrsteele09/go-auth-client/authapi"
	"github.com/jrsteele09/go-auth-client/users"
)

var _ Remote = (*authapi.Service)(nil)

// Remote is the set of server calls the orchestrator drives. *authapi.Service
// implements it.
type Remote interface {
	Login(ctx context.Context, creds authapi.LoginCredentials) (*authapi.AuthResponse, error)
	Register(ctx context.Context, creds authapi.RegisterCredentials) (*authapi.AuthResponse, error)
	RequestPasswordReset(ctx context.Context, req authapi.PasswordResetRequest) (*authapi.MessageResponse, error)
	ResetPassword(ctx context.Context, req authapi.PasswordReset) (*authapi.MessageResponse, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*users.User, error)
}
