package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/ohbridge/internal/accessory"
)

// Error is the JSON body of every error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeUnauthorized   = "unauthorised"
	ErrCodeInternal       = "internal_error"
	ErrCodeMethodNotAllow = "method_not_allowed"
	ErrCodeBadGateway     = "bad_gateway"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{Status: status, Code: code, Message: message})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// characteristicErrors maps accessory sentinels to responses. Anything
// unmatched came from the registry and is reported as 502.
var characteristicErrors = []struct {
	target error
	status int
	code   string
}{
	{accessory.ErrAccessoryNotFound, http.StatusNotFound, ErrCodeNotFound},
	{accessory.ErrCharacteristicNotFound, http.StatusNotFound, ErrCodeNotFound},
	{accessory.ErrNotReadable, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow},
	{accessory.ErrNotWritable, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow},
	{accessory.ErrInvalidValue, http.StatusBadRequest, ErrCodeBadRequest},
	{accessory.ErrOutOfRange, http.StatusBadRequest, ErrCodeBadRequest},
}

func writeCharacteristicError(w http.ResponseWriter, err error) {
	for _, m := range characteristicErrors {
		if errors.Is(err, m.target) {
			writeError(w, m.status, m.code, err.Error())
			return
		}
	}
	writeError(w, http.StatusBadGateway, ErrCodeBadGateway, err.Error())
}
