package custom_error

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies a failed remote call.
type Kind int

const (
	KindNetwork Kind = iota + 1
	KindTimeout
	KindServer
	KindContract
	KindRejected
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindServer:
		return "server"
	case KindContract:
		return "contract"
	case KindRejected:
		return "rejected"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Retryable reports whether repeating the same call may succeed.
func (k Kind) Retryable() bool {
	switch k {
	case KindNetwork, KindTimeout, KindServer:
		return true
	case KindContract, KindRejected, KindUnauthorized:
		return false
	default:
		return false
	}
}

// ErrUnauthenticated is returned by token sources when there is no usable session.
var ErrUnauthenticated = errors.New("not logged in")

type RemoteError struct {
	Kind    Kind
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s error (status %d): %s", e.Op, e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s error: %s", e.Op, e.Kind, msg)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

func (e *RemoteError) Retryable() bool {
	return e.Kind.Retryable()
}

// NewTransportError classifies an error returned before any response was read.
func NewTransportError(op string, err error) *RemoteError {
	if errors.Is(err, ErrUnauthenticated) {
		return &RemoteError{Kind: KindUnauthorized, Op: op, Message: ErrUnauthenticated.Error(), Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &RemoteError{Kind: KindTimeout, Op: op, Message: "request timed out", Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &RemoteError{Kind: KindTimeout, Op: op, Message: "request timed out", Err: err}
	}

	return &RemoteError{Kind: KindNetwork, Op: op, Err: err}
}

// NewStatusError classifies a non-2xx response.
func NewStatusError(op string, status int, message string) *RemoteError {
	kind := KindServer
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindUnauthorized
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		kind = KindTimeout
	case status >= 500:
		kind = KindServer
	case status >= 400:
		kind = KindRejected
	}

	if message == "" {
		message = http.StatusText(status)
	}

	return &RemoteError{Kind: kind, Op: op, Status: status, Message: message}
}

// NewContractError reports a response that does not match the expected schema.
func NewContractError(op string, err error) *RemoteError {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	msg := "unexpected response shape"
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		msg = "response does not match client schema"
	}
	return &RemoteError{Kind: KindContract, Op: op, Message: msg, Err: err}
}

// AsRemote extracts a *RemoteError from err.
func AsRemote(err error) (*RemoteError, bool) {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr, true
	}
	return nil, false
}

// IsRetryable reports whether err is a retryable remote failure.
func IsRetryable(err error) bool {
	if remoteErr, ok := AsRemote(err); ok {
		return remoteErr.Retryable()
	}
	return false
}

// HTTPStatus picks the gateway response status for an error.
func HTTPStatus(err error) int {
	remoteErr, ok := AsRemote(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch remoteErr.Kind {
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindNetwork, KindServer, KindContract:
		return http.StatusBadGateway
	case KindRejected:
		if remoteErr.Status != 0 {
			return remoteErr.Status
		}
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
