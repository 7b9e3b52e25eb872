package devserver

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-auth-client/auth"
	"github.com/jrsteele09/go-auth-client/authapi"
	"github.com/jrsteele09/go-auth-client/autherr"
	"github.com/jrsteele09/go-auth-client/devserver/resettoken"
	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/internal/utils"
	"github.com/jrsteele09/go-auth-client/users"
)

const resetTokenLength = 32

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type verifyRequest struct {
	Token string `json:"token"`
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds authapi.LoginCredentials
		if !decodeJSON(w, r, &creds) {
			return
		}

		account, err := s.repos.Users.GetByEmail(creds.Email)
		if err != nil || !account.CheckPassword(creds.Password) {
			writeError(w, http.StatusUnauthorized, autherr.CodeInvalidPassword, "Invalid email or password", "")
			return
		}
		s.issueSession(w, http.StatusOK, &account.User)
	}
}

func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds authapi.RegisterCredentials
		if !decodeJSON(w, r, &creds) {
			return
		}
		creds.Email = strings.TrimSpace(creds.Email)

		if msg := auth.ValidateEmail(creds.Email); msg != "" {
			writeError(w, http.StatusBadRequest, autherr.CodeInvalidEmail, msg, auth.FieldEmail)
			return
		}
		if msg := auth.ValidatePassword(creds.Password); msg != "" {
			writeError(w, http.StatusBadRequest, autherr.CodeWeakPassword, msg, auth.FieldPassword)
			return
		}
		if msg := auth.ValidateName(creds.Name); msg != "" {
			writeError(w, http.StatusBadRequest, autherr.CodeValidation, msg, auth.FieldName)
			return
		}

		hash, err := users.HashPassword(creds.Password)
		if err != nil {
			s.logger.Err(err).Msg("hashing password failed")
			writeError(w, http.StatusInternalServerError, autherr.CodeServerError, "Registration failed", "")
			return
		}
		account := &users.Account{
			User: users.User{
				Email:     creds.Email,
				Name:      strings.TrimSpace(creds.Name),
				CreatedAt: utils.Ptr(NowTimeFunc().UTC()),
			},
			PasswordHash: hash,
		}
		if err := s.repos.Users.Insert(account); err != nil {
			if autherrors.Is(err, autherrors.ErrUserExists) {
				writeError(w, http.StatusConflict, autherr.CodeUserAlreadyExists, autherr.MsgUserExists, auth.FieldEmail)
				return
			}
			s.logger.Err(err).Msg("inserting account failed")
			writeError(w, http.StatusInternalServerError, autherr.CodeServerError, "Registration failed", "")
			return
		}
		s.issueSession(w, http.StatusCreated, &account.User)
	}
}

func (s *Server) ForgotPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authapi.PasswordResetRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		account, err := s.repos.Users.GetByEmail(req.Email)
		if err != nil {
			writeError(w, http.StatusNotFound, autherr.CodeUserNotFound, "User not found", auth.FieldEmail)
			return
		}

		token, err := generateRandomString(resetTokenLength)
		if err != nil {
			s.logger.Err(err).Msg("generating reset token failed")
			writeError(w, http.StatusInternalServerError, autherr.CodeServerError, "Password reset request failed", "")
			return
		}
		now := NowTimeFunc()
		if err := s.repos.ResetTokens.Upsert(resettoken.Token{
			Token:     token,
			UserID:    account.ID,
			Email:     account.Email,
			CreatedAt: now,
			ExpiresAt: now.Add(s.config.GetResetTokenExpiry()),
		}); err != nil {
			s.logger.Err(err).Msg("storing reset token failed")
			writeError(w, http.StatusInternalServerError, autherr.CodeServerError, "Password reset request failed", "")
			return
		}

		s.notify(account.Email, token)
		writeJSON(w, http.StatusOK, authapi.MessageResponse{Message: "Password reset instructions sent"})
	}
}

func (s *Server) ResetPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authapi.PasswordReset
		if !decodeJSON(w, r, &req) {
			return
		}

		grant, err := s.repos.ResetTokens.Get(req.Token)
		if err != nil || NowTimeFunc().After(grant.ExpiresAt) {
			writeError(w, http.StatusBadRequest, autherr.CodeInvalidToken, "Invalid or expired reset token", auth.FieldToken)
			return
		}
		if msg := auth.ValidatePassword(req.Password); msg != "" {
			writeError(w, http.StatusBadRequest, autherr.CodeWeakPassword, msg, auth.FieldPassword)
			return
		}

		hash, err := users.HashPassword(req.Password)
		if err != nil {
			s.logger.Err(err).Msg("hashing password failed")
			writeError(w, http.StatusInternalServerError, autherr.CodeServerError, "Password reset failed", "")
			return
		}
		if err := s.repos.Users.SetPassword(grant.UserID, hash); err != nil {
			writeError(w, http.StatusBadRequest, autherr.CodeInvalidToken, "Invalid or expired reset token", auth.FieldToken)
			return
		}
		if err := s.repos.ResetTokens.Delete(req.Token); err != nil {
			s.logger.Error().Err(err).Str("user_id", grant.UserID).Msg("deleting used reset token failed")
		}
		if err := s.refresh.RevokeUser(grant.UserID); err != nil {
			s.logger.Warn().Err(err).Msg("revoking refresh token after reset failed")
		}

		writeJSON(w, http.StatusOK, authapi.MessageResponse{Message: "Password has been reset"})
	}
}

func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		newRefresh, userID, err := s.refresh.Rotate(req.RefreshToken)
		switch {
		case autherrors.Is(err, autherrors.ErrRefreshTokenExpired):
			writeError(w, http.StatusUnauthorized, autherr.CodeTokenExpired, "Refresh token expired", "")
			return
		case err != nil:
			writeError(w, http.StatusUnauthorized, autherr.CodeInvalidToken, "Invalid refresh token", "")
			return
		}

		account, err := s.repos.Users.GetByID(userID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, autherr.CodeInvalidToken, "Invalid refresh token", "")
			return
		}
		access, err := s.creator.CreateAccessToken(&account.User)
		if err != nil {
			s.logger.Err(err).Msg("creating access token failed")
			writeError(w, http.StatusInternalServerError, autherr.CodeServerError, "Token refresh failed", "")
			return
		}
		writeJSON(w, http.StatusOK, authapi.AuthResponse{Token: access, User: account.User, RefreshToken: newRefresh})
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, autherr.CodeUnauthorized, "Unauthorized", "")
			return
		}
		if err := s.revoked.Add(claims.Jti, claims.ExpiresAt()); err != nil {
			s.logger.Warn().Err(err).Msg("revoking access token failed")
		}
		if err := s.refresh.RevokeUser(claims.Sub); err != nil {
			s.logger.Warn().Err(err).Msg("revoking refresh token failed")
		}
		writeJSON(w, http.StatusOK, authapi.MessageResponse{Message: "Logged out"})
	}
}

func (s *Server) VerifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		claims, err := s.inspector.Introspect(req.Token)
		writeJSON(w, http.StatusOK, authapi.VerifyResponse{Valid: err == nil && claims.Active})
	}
}

func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, autherr.CodeUnauthorized, "Unauthorized", "")
			return
		}
		account, err := s.repos.Users.GetByID(claims.Sub)
		if err != nil {
			writeError(w, http.StatusNotFound, autherr.CodeUserNotFound, "User not found", "")
			return
		}
		writeJSON(w, http.StatusOK, account.User)
	}
}

// issueSession answers with a fresh access token and refresh token for u.
func (s *Server) issueSession(w http.ResponseWriter, status int, u *users.User) {
	access, err := s.creator.CreateAccessToken(u)
	if err != nil {
		s.logger.Err(err).Msg("creating access token failed")
		writeError(w, http.StatusInternalServerError, autherr.CodeServerError, "Unable to create session", "")
		return
	}
	refreshToken, err := s.refresh.Create(u.ID)
	if err != nil {
		s.logger.Err(err).Msg("creating refresh token failed")
		writeError(w, http.StatusInternalServerError, autherr.CodeServerError, "Unable to create session", "")
		return
	}
	writeJSON(w, status, authapi.AuthResponse{Token: access, User: *u, RefreshToken: refreshToken})
}
