package authapi

import "github.com/jrsteele09/go-auth-client/users"

type LoginCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterCredentials is sent without ConfirmPassword, which only exists for
// local validation.
type RegisterCredentials struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
	Name            string `json:"name"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type PasswordReset struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
}

// AuthResponse is returned by login, register and refresh.
type AuthResponse struct {
	Token        string     `json:"token"`
	User         users.User `json:"user"`
	RefreshToken string     `json:"refreshToken,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type VerifyResponse struct {
	Valid bool `json:"valid"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type verifyRequest struct {
	Token string `json:"token"`
}
