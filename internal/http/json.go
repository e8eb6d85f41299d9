// Package httpx serves the bhajan library over HTTP: guarded page payloads and the JSON API.
package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "github.com/target/bhajan-library/internal/errors"
	"github.com/target/bhajan-library/internal/service"
)

// DecodeJSON decodes JSON from the request body into the destination and handles errors.
// Returns true if successful, false if there was an error (error response already written).
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decodeJSON(w, r, dst, false)
}

// DecodeOptionalJSON is DecodeJSON for endpoints whose body may be empty.
func DecodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decodeJSON(w, r, dst, true)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return true
		}
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Err: err})
		return false
	}

	return true
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
}

// WriteError writes the {"error", "code"} envelope. The message is the user-facing part of
// Err; causes stay in the logs.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	msg := http.StatusText(p.Code)
	if p.Err != nil {
		msg = apperrors.Message(p.Err)
	}
	WriteJSON(w, p.Code, map[string]string{"error": msg, "code": p.ErrCode})
}

// WriteAppError writes err with the status its code maps to.
func WriteAppError(w http.ResponseWriter, err error) {
	code := string(apperrors.GetCode(err))
	if code == "" {
		code = string(apperrors.ErrCodeInternal)
	}
	WriteError(w, ErrorParams{Code: StatusForCode(code), ErrCode: code, Err: err})
}

// WriteResult writes a store Result: the Result itself with status on success, the error
// envelope otherwise.
func WriteResult(w http.ResponseWriter, status int, res service.Result) {
	if res.Success {
		WriteJSON(w, status, res)
		return
	}
	err := res.Err()
	if err == nil {
		err = errors.New(res.Error)
	}
	code := res.Code
	if code == "" {
		code = string(apperrors.ErrCodeInternal)
	}
	WriteError(w, ErrorParams{Code: StatusForCode(code), ErrCode: code, Err: err})
}

// WriteData wraps data in a successful Result envelope.
func WriteData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, service.Result{Success: true, Data: data})
}

// StatusForCode maps an error code onto an HTTP status.
func StatusForCode(code string) int {
	switch apperrors.ErrorCode(code) {
	case apperrors.ErrCodeNotAuthenticated:
		return http.StatusUnauthorized
	case apperrors.ErrCodeNotAuthorized:
		return http.StatusForbidden
	case apperrors.ErrCodeValidation, apperrors.ErrCodeForeignKey:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeConflict:
		return http.StatusConflict
	case apperrors.ErrCodeBackendFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
