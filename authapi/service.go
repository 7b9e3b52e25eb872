// Package authapi performs the remote auth operations. Each method is one
// call through the apiclient; server and transport failures come back as
// *autherr.Error.
package authapi

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-auth-client/apiclient"
	"github.com/jrsteele09/go-auth-client/autherr"
	"github.com/jrsteele09/go-auth-client/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	PathLogin          = "/auth/login"
	PathRegister       = "/auth/register"
	PathForgotPassword = "/auth/forgot-password"
	PathResetPassword  = "/auth/reset-password"
	PathRefresh        = "/auth/refresh"
	PathLogout         = "/auth/logout"
	PathVerify         = "/auth/verify"
	PathMe             = "/auth/me"
)

// Messages used when the server does not send one.
const (
	MsgLoginFailed         = "Login failed"
	MsgRegistrationFailed  = "Registration failed"
	MsgResetRequestFailed  = "Password reset request failed"
	MsgResetPasswordFailed = "Password reset failed"
	MsgRefreshFailed       = "Token refresh failed"
	MsgCurrentUserFailed   = "Unable to load profile"
)

// Doer is the part of *apiclient.Client the operations need.
type Doer interface {
	DoJSON(ctx context.Context, method, path string, in, out any, options ...apiclient.RequestOption) error
}

var _ apiclient.Refresher = (*Service)(nil)

type Service struct {
	client Doer
	logger zerolog.Logger
}

type Option func(*Service)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(client Doer, options ...Option) *Service {
	s := &Service{client: client, logger: log.Logger}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *Service) Login(ctx context.Context, creds LoginCredentials) (*AuthResponse, error) {
	var resp AuthResponse
	if err := s.client.DoJSON(ctx, http.MethodPost, PathLogin, creds, &resp,
		apiclient.Anonymous(), apiclient.WithFallbackMessage(MsgLoginFailed)); err != nil {
		return nil, err
	}
	return checkAuthResponse(&resp, MsgLoginFailed)
}

func (s *Service) Register(ctx context.Context, creds RegisterCredentials) (*AuthResponse, error) {
	var resp AuthResponse
	if err := s.client.DoJSON(ctx, http.MethodPost, PathRegister, creds, &resp,
		apiclient.Anonymous(), apiclient.WithFallbackMessage(MsgRegistrationFailed)); err != nil {
		return nil, err
	}
	return checkAuthResponse(&resp, MsgRegistrationFailed)
}

func (s *Service) RequestPasswordReset(ctx context.Context, req PasswordResetRequest) (*MessageResponse, error) {
	var resp MessageResponse
	if err := s.client.DoJSON(ctx, http.MethodPost, PathForgotPassword, req, &resp,
		apiclient.Anonymous(), apiclient.WithFallbackMessage(MsgResetRequestFailed)); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *Service) ResetPassword(ctx context.Context, req PasswordReset) (*MessageResponse, error) {
	var resp MessageResponse
	if err := s.client.DoJSON(ctx, http.MethodPost, PathResetPassword, req, &resp,
		apiclient.Anonymous(), apiclient.WithFallbackMessage(MsgResetPasswordFailed)); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refresh exchanges a refresh token for a new access token. It is anonymous:
// a 401 here means the refresh token itself was rejected.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	var resp AuthResponse
	if err := s.client.DoJSON(ctx, http.MethodPost, PathRefresh, refreshRequest{RefreshToken: refreshToken}, &resp,
		apiclient.Anonymous(), apiclient.WithFallbackMessage(MsgRefreshFailed)); err != nil {
		return nil, err
	}
	return checkAuthResponse(&resp, MsgRefreshFailed)
}

// RefreshSession adapts Refresh for the request coordinator.
func (s *Service) RefreshSession(ctx context.Context, refreshToken string) (apiclient.RefreshResult, error) {
	resp, err := s.Refresh(ctx, refreshToken)
	if err != nil {
		return apiclient.RefreshResult{}, err
	}
	user := resp.User
	return apiclient.RefreshResult{
		Token:        resp.Token,
		RefreshToken: resp.RefreshToken,
		User:         &user,
	}, nil
}

// Logout tells the server to revoke the current token. It is best effort:
// failures are logged and never returned.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.client.DoJSON(ctx, http.MethodPost, PathLogout, nil, nil); err != nil {
		s.logger.Warn().Err(err).Msg("remote logout failed")
	}
	return nil
}

// VerifyToken asks the server whether token is valid. Any failure is reported
// as not valid.
func (s *Service) VerifyToken(ctx context.Context, token string) VerifyResponse {
	var resp VerifyResponse
	if err := s.client.DoJSON(ctx, http.MethodPost, PathVerify, verifyRequest{Token: token}, &resp,
		apiclient.Anonymous()); err != nil {
		s.logger.Debug().Err(err).Msg("token verification failed")
		return VerifyResponse{Valid: false}
	}
	return resp
}

// CurrentUser fetches the profile of the signed in user.
func (s *Service) CurrentUser(ctx context.Context) (*users.User, error) {
	var u users.User
	if err := s.client.DoJSON(ctx, http.MethodGet, PathMe, nil, &u,
		apiclient.WithFallbackMessage(MsgCurrentUserFailed)); err != nil {
		return nil, err
	}
	return &u, nil
}

func checkAuthResponse(resp *AuthResponse, fallback string) (*AuthResponse, error) {
	if resp.Token == "" {
		return nil, &autherr.Error{Kind: autherr.KindServer, Code: autherr.CodeServerError, Message: fallback}
	}
	return resp, nil
}
