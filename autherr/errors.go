package autherr

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
)

// Kind classifies an error for the caller. The request coordinator only acts
// on KindAuthorization; every other kind is surfaced unchanged.
type Kind string

const (
	KindValidation     Kind = "validation"      // field errors, resolved before any network call
	KindAuthorization  Kind = "authorization"   // 401-class response
	KindSessionExpired Kind = "session_expired" // no refresh token, or refresh failed
	KindNetwork        Kind = "network"         // connectivity or timeout
	KindServer         Kind = "server"          // 5xx
	KindDomain         Kind = "domain"          // 4xx with a business message
	KindStorage        Kind = "storage"         // secure store read/write failure
)

// Error codes understood by the UI layer.
const (
	CodeInvalidEmail       = "INVALID_EMAIL"
	CodeWeakPassword       = "WEAK_PASSWORD"
	CodePasswordsDontMatch = "PASSWORDS_DONT_MATCH"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeInvalidPassword    = "INVALID_PASSWORD"
	CodeUserAlreadyExists  = "USER_ALREADY_EXISTS"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeNetworkError       = "NETWORK_ERROR"
	CodeServerError        = "SERVER_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeValidation         = "VALIDATION_ERROR"
	CodeStorage            = "STORAGE_ERROR"
	CodeUnknown            = "UNKNOWN_ERROR"
	CodeGeneric            = "ERROR"
)

const (
	MsgNetwork        = "Network connection error. Please check your internet connection."
	MsgServer         = "Server error. Please try again later."
	MsgSessionExpired = "Session expired. Please log in again."
	MsgUserNotFound   = "User not found. Please check your email."
	MsgUserExists     = "An account with this email already exists"
	MsgInvalidRequest = "Invalid request. Please check your input."
	MsgUnexpected     = "An unexpected error occurred"
	MsgUnknown        = "An unknown error occurred. Please try again."
	MsgStorage        = "Unable to access secure storage"
)

// FieldErrors maps a form field name to its message.
type FieldErrors map[string]string

// Error is the normalised error returned by every operation of this module.
type Error struct {
	Kind    Kind
	Status  int         // HTTP status, 0 when no response was received
	Code    string      // machine readable code, see the Code constants
	Message string      // user presentable text
	Field   string      // form field the server blamed, if any
	Fields  FieldErrors // populated for KindValidation
	cause   error
}

// Sentinels for errors.Is, matching on Kind only.
var (
	ErrValidation     = &Error{Kind: KindValidation}
	ErrAuthorization  = &Error{Kind: KindAuthorization}
	ErrSessionExpired = &Error{Kind: KindSessionExpired}
	ErrNetwork        = &Error{Kind: KindNetwork}
	ErrServer         = &Error{Kind: KindServer}
	ErrDomain         = &Error{Kind: KindDomain}
	ErrStorage        = &Error{Kind: KindStorage}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.cause != nil {
		return msg + ": " + e.cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches sentinel errors (those with only Kind set) by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code == "" && t.Message == "" && t.Status == 0 {
		return e.Kind == t.Kind
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// Validation builds a KindValidation error. Message is the first field error
// in form order so a single-line UI still has something to show.
func Validation(fields FieldErrors) *Error {
	return &Error{
		Kind:    KindValidation,
		Code:    CodeValidation,
		Message: firstFieldMessage(fields),
		Fields:  fields,
	}
}

// SessionExpired wraps the refresh failure (or nil when no refresh token was stored).
func SessionExpired(cause error) *Error {
	return &Error{
		Kind:    KindSessionExpired,
		Status:  http.StatusUnauthorized,
		Code:    CodeUnauthorized,
		Message: MsgSessionExpired,
		cause:   cause,
	}
}

// Network normalises a transport failure, timeouts included.
func Network(cause error) *Error {
	return &Error{
		Kind:    KindNetwork,
		Code:    CodeNetworkError,
		Message: MsgNetwork,
		cause:   cause,
	}
}

// Storage normalises a secure store failure.
func Storage(op string, cause error) *Error {
	msg := MsgStorage
	if op != "" {
		msg = MsgStorage + " (" + op + ")"
	}
	return &Error{
		Kind:    KindStorage,
		Code:    CodeStorage,
		Message: msg,
		cause:   cause,
	}
}

// IsTimeout reports whether err came from a deadline rather than a refused connection.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// Parse converts any error into an *Error for presentation.
func Parse(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if IsTimeout(err) || errors.Is(err, context.Canceled) {
		return Network(err)
	}
	msg := err.Error()
	if strings.TrimSpace(msg) == "" {
		return &Error{Kind: KindDomain, Code: CodeUnknown, Message: MsgUnknown, cause: err}
	}
	return &Error{Kind: KindDomain, Code: CodeGeneric, Message: msg, cause: err}
}

// Message returns the user presentable text for err.
func Message(err error) string {
	if e := Parse(err); e != nil {
		return e.Message
	}
	return ""
}

// FieldError returns the message attached to field, or "" when err does not
// concern that field.
func FieldError(err error, field string) string {
	e := Parse(err)
	if e == nil {
		return ""
	}
	if msg, ok := e.Fields[field]; ok {
		return msg
	}
	if e.Field == field {
		return e.Message
	}
	return ""
}

var fieldOrder = []string{"email", "name", "token", "password", "confirmPassword"}

func firstFieldMessage(fields FieldErrors) string {
	for _, f := range fieldOrder {
		if msg, ok := fields[f]; ok {
			return msg
		}
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		return fields[keys[0]]
	}
	return ""
}
