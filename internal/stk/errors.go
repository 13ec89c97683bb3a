package stk

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every *Error unwraps to exactly one of them.
var (
	ErrAuthentication = errors.New("authentication failure")
	ErrContract       = errors.New("contract failure")
	ErrPermission     = errors.New("permission failure")
	ErrIntegration    = errors.New("integration failure")
)

// ErrMaxAttempts is returned when an execution is still running after the
// configured number of polls. It is not an HTTP failure kind.
var ErrMaxAttempts = errors.New("maximum number of attempts reached")

// Endpoint names the remote API a failure came from.
type Endpoint string

const (
	EndpointToken     Endpoint = "token"
	EndpointExecution Endpoint = "execution"
	EndpointCallback  Endpoint = "callback"
)

// Error is a classified failure of a remote call.
type Error struct {
	Kind       error
	Endpoint   Endpoint
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	body := e.Body
	if body == "" {
		body = "No message"
	}
	switch {
	case e.StatusCode == 0 && e.Err != nil:
		return fmt.Sprintf("%s with %s API: %v", e.Kind, e.Endpoint, e.Err)
	case e.Kind == ErrIntegration:
		return fmt.Sprintf("%s with %s API: status_code: %d message: %s", e.Kind, e.Endpoint, e.StatusCode, body)
	default:
		return fmt.Sprintf("%s with %s API: %s", e.Kind, e.Endpoint, body)
	}
}

// Unwrap exposes the kind and, for transport failures, the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// classify maps an HTTP status to an error kind. 403 is a permission failure
// only on the callback endpoint; anywhere else it is unexpected.
func classify(endpoint Endpoint, status int) error {
	switch {
	case status == http.StatusBadRequest:
		return ErrContract
	case status == http.StatusUnauthorized:
		return ErrAuthentication
	case status == http.StatusForbidden && endpoint == EndpointCallback:
		return ErrPermission
	default:
		return ErrIntegration
	}
}

// newStatusError builds the error for a non-2xx response.
func newStatusError(endpoint Endpoint, status int, body []byte) *Error {
	return &Error{
		Kind:       classify(endpoint, status),
		Endpoint:   endpoint,
		StatusCode: status,
		Body:       string(body),
	}
}

// newTransportError wraps a failure that never produced an HTTP status.
func newTransportError(endpoint Endpoint, err error) *Error {
	return &Error{Kind: ErrIntegration, Endpoint: endpoint, Err: err}
}

// IsRetryable reports whether err is a transient integration failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrIntegration)
}
