package server

import (
	"cryptochat/auth"
	"cryptochat/errors"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/handlers"
)

const maxBodyBytes = 64 << 10

type jsonError struct {
	Message string `json:"message"`
}

// writeJSON sends a JSON payload in response to a HTTP request
func writeJSON(log *slog.Logger, w http.ResponseWriter, v any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to serialize JSON payload", "error", err)
	}
}

// writeError sends an error as a problem+json object with a message property
func writeError(w http.ResponseWriter, err error, statusCode int) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(jsonError{Message: err.Error()})
}

// parseJSONBody decodes and validates a request body, answering 400 itself on failure
func parseJSONBody(v any, w http.ResponseWriter, r *http.Request) error {
	d := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	d.DisallowUnknownFields()
	if err := d.Decode(v); err != nil {
		err = fmt.Errorf("failed to parse request body: %w", err)
		writeError(w, err, http.StatusBadRequest)
		return err
	}
	if err := auth.Validate(v); err != nil {
		writeError(w, err, http.StatusBadRequest)
		return err
	}
	return nil
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	var validationErrs validator.ValidationErrors
	switch {
	case stderrors.As(err, &validationErrs),
		stderrors.Is(err, errors.ErrNoVerificationInProgress),
		stderrors.Is(err, errors.ErrNotMember),
		stderrors.Is(err, errors.ErrInvalidRoomName):
		return http.StatusBadRequest
	case stderrors.Is(err, errors.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case stderrors.Is(err, errors.ErrUserNotFound),
		stderrors.Is(err, errors.ErrAuthDisabled):
		return http.StatusNotFound
	case stderrors.Is(err, errors.ErrNoRoomMembers):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// accessLog writes gorilla access logs into slog at debug level
func accessLog(log *slog.Logger, name string) handlers.LogFormatter {
	return func(_ io.Writer, params handlers.LogFormatterParams) {
		log.Debug(fmt.Sprintf("%v %v %v", name, params.Request.Method, params.URL.RequestURI()),
			"remote", params.Request.RemoteAddr,
			"agent", params.Request.UserAgent(),
			"status", params.StatusCode,
			"resSize", params.Size,
		)
	}
}
