package traders

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// APIError is a non-success response from the game API.
type APIError struct {
	Status  int
	Code    int
	Message string
	Path    string
	Data    json.RawMessage
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Path, e.Status)
	}
	return fmt.Sprintf("%s: HTTP %d (code %d): %s", e.Path, e.Status, e.Code, e.Message)
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}

// newAPIError decodes the {"error": {...}} envelope when present.
func newAPIError(path string, status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Path: path}
	var envelope struct {
		Error struct {
			Message string          `json:"message"`
			Code    int             `json:"code"`
			Data    json.RawMessage `json:"data"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		apiErr.Data = envelope.Error.Data
	}
	return apiErr
}

// RetryableError marks a failure worth another attempt. After is the
// server-requested delay, zero when the retry policy decides.
type RetryableError struct {
	Err   error
	After time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err, or any error it wraps, is retryable.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}
