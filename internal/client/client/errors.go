package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// ServiceError is a failure reported by the backend. Message is meant to be
// shown to the user as is.
type ServiceError struct {
	Status  int
	Code    string
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

// Message returns the text to show for err: the backend message of a
// ServiceError, or the error text otherwise.
func Message(err error) string {
	var se *ServiceError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return err.Error()
}

type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// decodeError turns a non-2xx response into an error.
func decodeError(status int, body []byte) error {
	var env errorEnvelope
	_ = json.Unmarshal(body, &env)
	if env.Message == "" {
		env.Message = http.StatusText(status)
	}
	switch status {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, env.Message)
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, env.Message)
	}
	return &ServiceError{Status: status, Code: env.Error, Message: env.Message}
}

// isTokenExpired reports whether a 401 body says the access token expired.
func isTokenExpired(status int, body []byte) bool {
	if status != http.StatusUnauthorized {
		return false
	}
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return false
	}
	return env.Message == tokenExpiredMessage
}
