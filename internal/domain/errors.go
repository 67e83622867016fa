package domain

import (
	"fmt"
	"strings"
)

// ConnectivityError means the request never reached the advice backend.
type ConnectivityError struct {
	BaseURL string
	Err     error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("cannot connect to backend server, ensure the API server is running at %s", e.BaseURL)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// BackendError is a 5xx response from the advice backend.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "Internal Server Error"
	}
	return "backend error: " + msg
}

// HTTPError is any other non-2xx response.
type HTTPError struct {
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Status)
}

// UnknownFetchError wraps failures that fit no other category.
type UnknownFetchError struct {
	Err error
}

func (e *UnknownFetchError) Error() string {
	if e.Err == nil {
		return "failed to fetch advice data"
	}
	return "failed to fetch advice data: " + e.Err.Error()
}

func (e *UnknownFetchError) Unwrap() error { return e.Err }

// EmptyResultError is returned when the backend served zero advices.
type EmptyResultError struct{}

func (e *EmptyResultError) Error() string {
	return "no investment advice available, check backend data"
}
