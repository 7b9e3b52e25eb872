package devserver

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-auth-client/autherr"
	"github.com/pkg/errors"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"

	maxRequestBytes = 1 << 16
)

// generateRandomString creates a random base64url string
func generateRandomString(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "[generateRandomString] rand.Read")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, autherr.CodeInvalidRequest, "Invalid request body", "")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the {status, message, code, field} body the client parses.
func writeError(w http.ResponseWriter, status int, code, message, field string) {
	writeJSON(w, status, autherr.Body{Status: status, Message: message, Code: code, Field: field})
}
