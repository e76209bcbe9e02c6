package client

import (
	"errors"
	"fmt"
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx responses.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport failures and timeouts.
	ErrorClassNetwork ErrorClass = "network"
)

// Common errors returned by the client.
var (
	// ErrNotModifiedWithoutCache is returned when the server answers 304 to a
	// request the client did not make conditional.
	ErrNotModifiedWithoutCache = errors.New("304 without cached response")
)

// NetworkError is a transport failure: no HTTP response was received.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("gallery network error: %s %s: %v", e.Method, e.Path, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError is a non-2xx response from the gallery API.
type ServerError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Body       []byte
	Err        error
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gallery %s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("gallery %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ServerError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err is, or wraps, a NetworkError.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsServerError reports whether err is, or wraps, a ServerError.
func IsServerError(err error) bool {
	var srvErr *ServerError
	return errors.As(err, &srvErr)
}

// Class returns the error class of err, or "" when it is not a client error.
func Class(err error) ErrorClass {
	var srvErr *ServerError
	if errors.As(err, &srvErr) {
		return srvErr.ErrorClass
	}
	if IsNetworkError(err) {
		return ErrorClassNetwork
	}
	return ""
}
