package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors
var (
	// ErrAuthExpired matches any 401 response. The cached token has already
	// been cleared by the time a caller sees it.
	ErrAuthExpired = errors.New("authorization expired")
	ErrNotFound    = errors.New("resource not found")
)

// NetworkError is a transport-level failure: no HTTP response was received.
type NetworkError struct {
	Op  string // "METHOD /path"
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("api: %s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError is a non-2xx response.
type ServerError struct {
	Op      string
	Status  int
	Body    []byte
	Message string // "error" field of the body, if any
}

func (e *ServerError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("api: %s: %d %s", e.Op, e.Status, msg)
}

// Is implements errors.Is for ServerError
func (e *ServerError) Is(target error) bool {
	switch target {
	case ErrAuthExpired:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// ServerMessage returns the server-supplied error message carried by err,
// or "" if err is not a ServerError or the body had none.
func ServerMessage(err error) string {
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return serverErr.Message
	}
	return ""
}

// IsNetworkError reports whether err is a transport failure.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
