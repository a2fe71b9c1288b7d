package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/matzehuels/brickgrid/pkg/errors"
)

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidPosition, errors.ErrCodeOutOfBounds, errors.ErrCodeCyclicParent,
		errors.ErrCodeInvalidParent, errors.ErrCodeInvalidInput, errors.ErrCodeInvalidBreakpoint,
		errors.ErrCodeInvalidDocument, errors.ErrCodeInvalidManifest, errors.ErrCodeInvalidTemplate:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeDuplicateID, errors.ErrCodeGestureBusy:
		return http.StatusConflict
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	body := errorBody{Code: code, Message: errors.UserMessage(err)}
	if code == "" {
		body.Code = errors.ErrCodeInternal
		body.Message = "internal error"
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	} else {
		s.logger.Debug("request rejected", "code", code, "err", err)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func itoa(v uint64) string { return strconv.FormatUint(v, 10) }
