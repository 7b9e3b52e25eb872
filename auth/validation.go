package auth

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jrsteele09/go-auth-client/authapi"
	"github.com/jrsteele09/go-auth-client/autherr"
)

// Field names used as keys of autherr.FieldErrors.
const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
	FieldName            = "name"
	FieldToken           = "token"
)

const (
	minPasswordLength = 8
	minNameLength     = 2
	maxNameLength     = 50
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// CredentialValidator checks form input before any network call. A nil or
// empty map means the input is valid.
type CredentialValidator interface {
	ValidateLogin(creds authapi.LoginCredentials) autherr.FieldErrors
	ValidateRegistration(creds authapi.RegisterCredentials) autherr.FieldErrors
	ValidatePasswordResetRequest(req authapi.PasswordResetRequest) autherr.FieldErrors
	ValidatePasswordReset(req authapi.PasswordReset) autherr.FieldErrors
}

var _ CredentialValidator = (*Validator)(nil)

// Validator implements the default rule set.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateEmail returns "" for a valid address.
func ValidateEmail(email string) string {
	if email == "" {
		return "Email is required"
	}
	if !emailPattern.MatchString(email) {
		return "Invalid email format"
	}
	return ""
}

// ValidatePassword applies the strength rules, reporting the first one broken.
func ValidatePassword(password string) string {
	switch {
	case password == "":
		return "Password is required"
	case utf8.RuneCountInString(password) < minPasswordLength:
		return "Password must be at least 8 characters"
	case !strings.ContainsFunc(password, isASCIIUpper):
		return "Password must contain at least one uppercase letter"
	case !strings.ContainsFunc(password, isASCIILower):
		return "Password must contain at least one lowercase letter"
	case !strings.ContainsFunc(password, isASCIIDigit):
		return "Password must contain at least one number"
	}
	return ""
}

func ValidateConfirmPassword(password, confirmPassword string) string {
	if confirmPassword == "" {
		return "Confirm password is required"
	}
	if password != confirmPassword {
		return "Passwords do not match"
	}
	return ""
}

func ValidateName(name string) string {
	if name == "" {
		return "Name is required"
	}
	if utf8.RuneCountInString(strings.TrimSpace(name)) < minNameLength {
		return "Name must be at least 2 characters"
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "Name must be less than 50 characters"
	}
	return ""
}

func (v *Validator) ValidateLogin(creds authapi.LoginCredentials) autherr.FieldErrors {
	errs := autherr.FieldErrors{}
	add(errs, FieldEmail, ValidateEmail(creds.Email))
	if creds.Password == "" {
		errs[FieldPassword] = "Password is required"
	}
	return errs
}

func (v *Validator) ValidateRegistration(creds authapi.RegisterCredentials) autherr.FieldErrors {
	errs := autherr.FieldErrors{}
	add(errs, FieldEmail, ValidateEmail(creds.Email))
	add(errs, FieldPassword, ValidatePassword(creds.Password))
	add(errs, FieldConfirmPassword, ValidateConfirmPassword(creds.Password, creds.ConfirmPassword))
	add(errs, FieldName, ValidateName(creds.Name))
	return errs
}

func (v *Validator) ValidatePasswordResetRequest(req authapi.PasswordResetRequest) autherr.FieldErrors {
	errs := autherr.FieldErrors{}
	add(errs, FieldEmail, ValidateEmail(req.Email))
	return errs
}

func (v *Validator) ValidatePasswordReset(req authapi.PasswordReset) autherr.FieldErrors {
	errs := autherr.FieldErrors{}
	if strings.TrimSpace(req.Token) == "" {
		errs[FieldToken] = "Reset token is required"
	}
	add(errs, FieldPassword, ValidatePassword(req.Password))
	add(errs, FieldConfirmPassword, ValidateConfirmPassword(req.Password, req.ConfirmPassword))
	return errs
}

func add(errs autherr.FieldErrors, field, msg string) {
	if msg != "" {
		errs[field] = msg
	}
}

func isASCIIUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isASCIILower(r rune) bool { return r >= 'a' && r <= 'z' }
func isASCIIDigit(r rune) bool { return r >= '0' && r <= '9' }
