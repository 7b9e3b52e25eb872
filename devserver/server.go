// Package devserver is a development implementation of the auth API the
// client talks to. It keeps everything in memory and is meant for local runs
// and end-to-end tests.
package devserver

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-auth-client/devserver/resettoken"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/token/jwt"
	"github.com/jrsteele09/go-auth-client/token/refresh"
	"github.com/jrsteele09/go-auth-client/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Config is the part of the application config the server reads.
type Config interface {
	config.EnvConfig
	config.DevServerConfig
}

// Repos holds all repository dependencies of the server
type Repos struct {
	Users         users.Repo      // Accounts with bcrypt password hashes
	RefreshTokens refresh.Repo    // Opaque refresh tokens
	ResetTokens   resettoken.Repo // Outstanding password reset grants
}

// ResetNotifier delivers a password reset token to the account holder.
type ResetNotifier func(email, token string)

type Server struct {
	env    string
	mux    *http.ServeMux
	routes []string
	config Config
	repos  Repos
	logger zerolog.Logger

	creator   *jwt.Creator
	inspector *jwt.Inspector
	revoked   jwt.RevokedTokenCache
	refresh   *refresh.Manager
	notify    ResetNotifier
}

type Option func(*Server)

// WithResetNotifier replaces the default notifier, which only logs the token.
func WithResetNotifier(n ResetNotifier) Option {
	return func(s *Server) {
		s.notify = n
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func New(cfg Config, repos Repos, options ...Option) (*Server, error) {
	if repos.Users == nil {
		return nil, errors.New("[devserver.New] Users repo is required")
	}
	if repos.RefreshTokens == nil {
		return nil, errors.New("[devserver.New] RefreshTokens repo is required")
	}
	if repos.ResetTokens == nil {
		return nil, errors.New("[devserver.New] ResetTokens repo is required")
	}

	creator := jwt.NewCreator(cfg.GetJWTSecret(), cfg.GetAccessTokenExpiry())
	revoked := jwt.NewInMemoryRevokedTokenCache()

	s := &Server{
		env:       cfg.GetEnv(),
		mux:       http.NewServeMux(),
		config:    cfg,
		repos:     repos,
		logger:    log.Logger,
		creator:   creator,
		inspector: jwt.NewInspector(creator, revoked),
		revoked:   revoked,
		refresh:   refresh.NewManager(repos.RefreshTokens, cfg.GetRefreshTokenExpiry()),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.notify == nil {
		s.notify = s.logResetToken
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

// Cleanup drops expired revocations and reset tokens. Call it periodically.
func (s *Server) Cleanup() {
	s.revoked.Cleanup()
	if n := s.repos.ResetTokens.DeleteExpired(NowTimeFunc()); n > 0 {
		s.logger.Debug().Int("removed", n).Msg("expired reset tokens removed")
	}
}

func (s *Server) logRoutes() {
	if s.env != config.EnvDevelopment {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	s.logger.Info().Str("method", fmt.Sprintf("%-7s", method)).Str("path", path).Msg("route")
}

func (s *Server) logResetToken(email, token string) {
	s.logger.Info().Str("email", email).Str("reset_token", token).Msg("password reset requested")
}
