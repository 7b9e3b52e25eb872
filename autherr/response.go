package autherr

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Body is the error response convention shared with the server.
type Body struct {
	Status  int    `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
}

// FromResponse normalises a non-2xx response. fallback is the operation
// specific text used when the server sends no message ("Login failed").
func FromResponse(status int, body []byte, fallback string) *Error {
	var b Body
	if len(body) > 0 {
		_ = json.Unmarshal(body, &b)
	}

	e := &Error{
		Kind:   kindForStatus(status),
		Status: status,
		Code:   strings.TrimSpace(b.Code),
		Field:  b.Field,
	}

	code, msg := statusDefaults(status)
	if e.Code == "" {
		e.Code = code
	}
	switch {
	case strings.TrimSpace(b.Message) != "":
		e.Message = b.Message
	case fallback != "":
		e.Message = fallback
	default:
		e.Message = msg
	}
	return e
}

// Authorization is the error a 401 turns into when it is passed through.
func Authorization(message string) *Error {
	return FromResponse(http.StatusUnauthorized, nil, message)
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuthorization
	case status >= 500:
		return KindServer
	default:
		return KindDomain
	}
}

func statusDefaults(status int) (code, message string) {
	switch {
	case status == http.StatusBadRequest:
		return CodeInvalidRequest, MsgInvalidRequest
	case status == http.StatusUnauthorized:
		return CodeUnauthorized, MsgSessionExpired
	case status == http.StatusNotFound:
		return CodeUserNotFound, MsgUserNotFound
	case status == http.StatusConflict:
		return CodeUserAlreadyExists, MsgUserExists
	case status >= 500:
		return CodeServerError, MsgServer
	default:
		return CodeUnknown, MsgUnexpected
	}
}
