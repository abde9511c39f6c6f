package rest

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an API failure. Classification happens once, at the
// transport boundary; callers branch on the kind and decide whether the
// failure is worth surfacing or retrying (the SDK itself never retries).
type ErrorKind string

const (
	KindNetwork    ErrorKind = "network"    // offline, DNS, connection refused
	KindServer     ErrorKind = "server"     // 5xx or unknown upstream failure
	KindAuth       ErrorKind = "auth"       // 401, 403
	KindValidation ErrorKind = "validation" // 422
	KindUnknown    ErrorKind = "unknown"    // anything else
)

// APIError is the typed error every request returns on failure. Status is
// zero for network errors that never produced a response.
type APIError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("api error (%s, status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("api error (%s): %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

func classifyStatus(status int) ErrorKind {
	switch {
	case status == 401 || status == 403:
		return KindAuth
	case status == 422:
		return KindValidation
	case status >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

// ErrorKindOf returns the classification of err, or KindUnknown for errors
// that did not come from this client.
func ErrorKindOf(err error) ErrorKind {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// IsAuthError reports whether err is a 401/403 failure.
func IsAuthError(err error) bool { return ErrorKindOf(err) == KindAuth }

// IsNetworkError reports whether err never reached the server.
func IsNetworkError(err error) bool { return ErrorKindOf(err) == KindNetwork }

// IsValidationError reports whether err is a 422 failure.
func IsValidationError(err error) bool { return ErrorKindOf(err) == KindValidation }

// IsServerError reports whether err is an upstream 5xx failure.
func IsServerError(err error) bool { return ErrorKindOf(err) == KindServer }
