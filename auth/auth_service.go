// Package auth is the session orchestrator: it runs the login, registration,
// password reset and logout flows, keeping the session state and the secure
// store in step with what the server returned.
package auth

import (
	"context"

	"github.com/jrsteele09/go-auth-client/apiclient"
	"github.com/jrsteele09/go-auth-client/authapi"
	"github.com/jrsteele09/go-auth-client/autherr"
	"github.com/jrsteele09/go-auth-client/securestore"
	"github.com/jrsteele09/go-auth-client/session"
	"github.com/jrsteele09/go-auth-client/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var _ apiclient.SessionHandler = (*Service)(nil)

// Deps holds the collaborators of the Service.
type Deps struct {
	State  *session.State    // observable session shared with the UI
	Store  securestore.Store // credentials persisted across runs
	Remote Remote            // server calls
}

type Service struct {
	deps      Deps
	validator CredentialValidator
	logger    zerolog.Logger
}

type ServiceOption func(*Service)

// WithValidator swaps the credential rule set.
func WithValidator(v CredentialValidator) ServiceOption {
	return func(s *Service) {
		s.validator = v
	}
}

func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(deps Deps, options ...ServiceOption) (*Service, error) {
	if deps.State == nil {
		return nil, ErrStateRequired
	}
	if deps.Store == nil {
		return nil, ErrStoreRequired
	}
	if deps.Remote == nil {
		return nil, ErrRemoteRequired
	}

	s := &Service{
		deps:      deps,
		validator: NewValidator(),
		logger:    log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

func (s *Service) State() *session.State {
	return s.deps.State
}

// Hydrate loads a stored session into the state at startup. Store failures
// are logged and leave the session empty; they never fail startup.
func (s *Service) Hydrate(ctx context.Context) session.Session {
	token, ok, err := s.deps.Store.GetToken(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("loading stored token failed")
		return s.deps.State.Snapshot()
	}
	if !ok || token == "" {
		return s.deps.State.Snapshot()
	}
	s.deps.State.SetToken(token)

	data, ok, err := s.deps.Store.GetUser(ctx)
	switch {
	case err != nil:
		s.logger.Warn().Err(err).Msg("loading stored user failed")
	case ok:
		u, err := users.Decode(data)
		if err != nil {
			s.logger.Warn().Err(err).Msg("stored user record unreadable")
			break
		}
		s.deps.State.SetUser(u)
	}
	return s.deps.State.Snapshot()
}

func (s *Service) Login(ctx context.Context, creds authapi.LoginCredentials) (*authapi.AuthResponse, error) {
	var resp *authapi.AuthResponse
	err := s.run(s.validator.ValidateLogin(creds), func() error {
		var err error
		if resp, err = s.deps.Remote.Login(ctx, creds); err != nil {
			return err
		}
		s.establish(ctx, resp)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", resp.User.ID).Msg("logged in")
	return resp, nil
}

func (s *Service) Register(ctx context.Context, creds authapi.RegisterCredentials) (*authapi.AuthResponse, error) {
	var resp *authapi.AuthResponse
	err := s.run(s.validator.ValidateRegistration(creds), func() error {
		var err error
		if resp, err = s.deps.Remote.Register(ctx, creds); err != nil {
			return err
		}
		s.establish(ctx, resp)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", resp.User.ID).Msg("registered")
	return resp, nil
}

func (s *Service) RequestPasswordReset(ctx context.Context, req authapi.PasswordResetRequest) (*authapi.MessageResponse, error) {
	var resp *authapi.MessageResponse
	err := s.run(s.validator.ValidatePasswordResetRequest(req), func() error {
		var err error
		resp, err = s.deps.Remote.RequestPasswordReset(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *Service) ResetPassword(ctx context.Context, req authapi.PasswordReset) (*authapi.MessageResponse, error) {
	var resp *authapi.MessageResponse
	err := s.run(s.validator.ValidatePasswordReset(req), func() error {
		var err error
		resp, err = s.deps.Remote.ResetPassword(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// RefreshProfile fetches the current user from the server and replaces the
// stored record.
func (s *Service) RefreshProfile(ctx context.Context) (*users.User, error) {
	var u *users.User
	err := s.run(nil, func() error {
		var err error
		if u, err = s.deps.Remote.CurrentUser(ctx); err != nil {
			return err
		}
		s.persistUser(ctx, *u)
		s.deps.State.SetUser(u)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Logout revokes the session on the server when there is one, then always
// clears the store and the state. Calling it again is harmless. The only
// error returned is a store failure, after the state has been cleared.
func (s *Service) Logout(ctx context.Context) error {
	s.deps.State.SetLoading(true)
	defer s.deps.State.SetLoading(false)

	if s.deps.State.IsAuthenticated() {
		// Best effort; the remote logout never blocks local teardown.
		_ = s.deps.Remote.Logout(ctx)
	}
	return s.clearLocal(ctx)
}

// SessionRefreshed is called by the request coordinator once a new token has
// been stored and the coordinator is idle again.
func (s *Service) SessionRefreshed(ctx context.Context, result apiclient.RefreshResult) {
	s.deps.State.SetToken(result.Token)
	if result.User != nil {
		s.persistUser(ctx, *result.User)
		s.deps.State.SetUser(result.User)
	}
	s.logger.Debug().Msg("session refreshed")
}

// SessionExpired is called by the request coordinator when the session could
// not be refreshed. It is a local logout.
func (s *Service) SessionExpired(ctx context.Context) {
	s.logger.Info().Msg("session expired, signing out locally")
	_ = s.clearLocal(ctx)
}

// run wraps a flow with the loading flag and error reporting. The loading
// flag is reset on every exit path.
func (s *Service) run(fieldErrs autherr.FieldErrors, call func() error) error {
	s.deps.State.SetLoading(true)
	s.deps.State.SetError("")
	defer s.deps.State.SetLoading(false)

	if len(fieldErrs) > 0 {
		verr := autherr.Validation(fieldErrs)
		s.deps.State.SetError(verr.Message)
		return verr
	}

	if err := call(); err != nil {
		e := autherr.Parse(err)
		s.deps.State.SetError(e.Message)
		return e
	}
	return nil
}

// establish persists a fresh session and publishes it. Store failures are
// logged; the in-memory session still holds.
func (s *Service) establish(ctx context.Context, resp *authapi.AuthResponse) {
	if err := s.deps.Store.SetToken(ctx, resp.Token); err != nil {
		s.logger.Warn().Err(err).Msg("persisting token failed")
	}
	if resp.RefreshToken != "" {
		if err := s.deps.Store.SetRefreshToken(ctx, resp.RefreshToken); err != nil {
			s.logger.Warn().Err(err).Msg("persisting refresh token failed")
		}
	}
	s.persistUser(ctx, resp.User)

	user := resp.User
	s.deps.State.SetToken(resp.Token)
	s.deps.State.SetUser(&user)
}

func (s *Service) persistUser(ctx context.Context, u users.User) {
	data, err := users.Encode(u)
	if err != nil {
		s.logger.Warn().Err(err).Msg("encoding user failed")
		return
	}
	if err := s.deps.Store.SetUser(ctx, data); err != nil {
		s.logger.Warn().Err(err).Msg("persisting user failed")
	}
}

func (s *Service) clearLocal(ctx context.Context) error {
	err := s.deps.Store.ClearAll(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("clearing secure store failed")
	}
	s.deps.State.Logout()
	return err
}
